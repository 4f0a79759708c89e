package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
)

func testOfflineSession(t *testing.T) *offlineSession {
	t.Helper()
	cfg := audio.DefaultAudioConfig()
	cfg.Seed = 3
	s, err := newOfflineSession(cfg)
	if err != nil {
		t.Fatalf("newOfflineSession failed: %v", err)
	}
	t.Cleanup(func() { s.engine.Close() })
	return s
}

// TestOfflineStreamerLockStep verifies the clock tracks rendered frames and the stream ends on time
func TestOfflineStreamerLockStep(t *testing.T) {
	s := testOfflineSession(t)
	src, err := s.start(2)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	total := src.remaining
	buf := make([][2]float64, 1000)
	rendered := 0
	var peak float64
	for {
		n, ok := src.Stream(buf)
		rendered += n
		for _, f := range buf[:n] {
			peak = max(peak, f[0], -f[0])
		}
		if !ok {
			break
		}
	}

	if rendered != total {
		t.Errorf("Expected %d frames, got %d", total, rendered)
	}
	if peak == 0 {
		t.Error("Expected audible output")
	}

	// Clock sits within one chunk of the last rendered frame
	elapsed := s.clock.Now().Sub(renderEpoch)
	want := 2 * constant.BarDuration
	if elapsed > want || want-elapsed > constant.BarDuration/100 {
		t.Errorf("Expected clock near %v, got %v", want, elapsed)
	}
	if st := s.engine.State(); st.GlobalBar != 2 {
		t.Errorf("Expected 2 bars played, got %d", st.GlobalBar)
	}
}

// TestRenderWAV verifies a rendered file decodes with the expected length
func TestRenderWAV(t *testing.T) {
	s := testOfflineSession(t)
	src, err := s.start(1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	total := src.remaining

	path := filepath.Join(t.TempDir(), "bar.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := wav.Encode(f, src, src.graph.Format()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	dec, format, err := wav.Decode(r)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if int(format.SampleRate) != constant.AudioSampleRate || format.NumChannels != 2 {
		t.Errorf("Unexpected format %+v", format)
	}
	if dec.Len() != total {
		t.Errorf("Expected %d frames, got %d", total, dec.Len())
	}
}
