package music

import (
	"bytes"
	"math"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/parameter"
)

func newTestRecorder() (*Recorder, *ManualClock) {
	clock := NewManualClock(epoch)
	r := NewRecorder(clock)
	r.Initialize()
	r.SetPlaying(true)
	return r, clock
}

// TestRecorderVelocity verifies intensity to velocity mapping and clamping
func TestRecorderVelocity(t *testing.T) {
	tests := []struct {
		intensity float64
		want      uint8
	}{
		{1.0, 100},
		{0.48, 48},
		{0, 1},
		{-0.5, 1},
		{1.2, 120},
		{2.0, 127},
	}
	for _, tt := range tests {
		if got := velocity(tt.intensity); got != tt.want {
			t.Errorf("velocity(%v) = %d, want %d", tt.intensity, got, tt.want)
		}
	}
}

// TestRecorderChannelsAndKeys verifies each voice lands on its channel and key
func TestRecorderChannelsAndKeys(t *testing.T) {
	r, clock := newTestRecorder()

	r.Kick(1)
	r.Snare(1)
	r.HiHat(false, 1)
	r.HiHat(true, 1)
	clock.Advance(time.Second)
	r.Bass(65.41, 400*time.Millisecond, 1)
	r.Pad([]float64{261.63, 329.63, 392.0}, constant.BarDuration, 1)

	want := []struct {
		channel uint8
		key     int
	}{
		{parameter.ChannelDrums, parameter.DrumKick},
		{parameter.ChannelDrums, parameter.DrumSnare},
		{parameter.ChannelDrums, parameter.DrumClosedHat},
		{parameter.ChannelDrums, parameter.DrumOpenHat},
		{parameter.ChannelBass, parameter.MIDINote(parameter.NoteC, 2)},
		{parameter.ChannelPad, parameter.MIDINote(parameter.NoteC, 4)},
		{parameter.ChannelPad, parameter.MIDINote(parameter.NoteE, 4)},
		{parameter.ChannelPad, parameter.MIDINote(parameter.NoteG, 4)},
	}

	events := r.Events()
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(events))
	}
	for i, w := range want {
		if events[i].Channel != w.channel || int(events[i].Key) != w.key {
			t.Errorf("Event %d: channel %d key %d, want channel %d key %d",
				i, events[i].Channel, events[i].Key, w.channel, w.key)
		}
	}
	if events[4].At != time.Second || events[4].Length != 400*time.Millisecond {
		t.Errorf("Expected bass at 1s for 400ms, got %v for %v", events[4].At, events[4].Length)
	}
}

// TestRecorderLeadDelay verifies the lead onset includes its delay
func TestRecorderLeadDelay(t *testing.T) {
	r, clock := newTestRecorder()
	clock.Advance(constant.BeatDuration)

	r.Lead(523.25, 300*time.Millisecond, 50*time.Millisecond, 0.7)

	events := r.Events()
	if len(events) != 1 {
		t.Fatalf("Expected one event, got %d", len(events))
	}
	ev := events[0]
	if ev.At != constant.BeatDuration+50*time.Millisecond {
		t.Errorf("Expected onset %v, got %v", constant.BeatDuration+50*time.Millisecond, ev.At)
	}
	if ev.Channel != parameter.ChannelLead || int(ev.Key) != parameter.MIDINote(parameter.NoteC, 5) || ev.Velocity != 70 {
		t.Errorf("Unexpected lead event %+v", ev)
	}
}

// TestRecorderIgnoresWhenStopped verifies nothing is captured outside playback
func TestRecorderIgnoresWhenStopped(t *testing.T) {
	clock := NewManualClock(epoch)
	r := NewRecorder(clock)

	r.SetPlaying(true)
	r.Kick(1) // Not initialized

	r.Initialize()
	r.SetPlaying(false)
	r.Snare(1)

	r.Bass(-1, time.Second, 1) // Out of range
	r.SetPlaying(true)
	r.Bass(0, time.Second, 1)

	if n := len(r.Events()); n != 0 {
		t.Errorf("Expected no events, got %d", n)
	}
}

// TestRecorderTempo verifies the bar clock tempo
func TestRecorderTempo(t *testing.T) {
	if got := Tempo(); math.Abs(got-137.142857) > 1e-5 {
		t.Errorf("Expected ~137.14 BPM, got %f", got)
	}
	if got := toTicks(constant.BeatDuration); got != parameter.TicksPerQuarter {
		t.Errorf("Expected one beat = %d ticks, got %d", parameter.TicksPerQuarter, got)
	}
	if got := toTicks(constant.BarDuration); got != 4*parameter.TicksPerQuarter {
		t.Errorf("Expected one bar = %d ticks, got %d", 4*parameter.TicksPerQuarter, got)
	}
}

// TestRecorderWriteTo verifies an engine session exports as a readable SMF
func TestRecorderWriteTo(t *testing.T) {
	clock := NewManualClock(epoch)
	r := NewRecorder(clock)
	e, err := NewEngine(r, WithClock(clock), WithLogger(quietLogger()), WithSeed(1))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	e.Start()
	clock.Advance(bars(8) - time.Millisecond)
	e.Stop()

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) || n == 0 {
		t.Errorf("Expected %d bytes reported, got %d", buf.Len(), n)
	}

	sm, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if len(sm.Tracks) != 1+len(trackLayout) {
		t.Fatalf("Expected %d tracks, got %d", 1+len(trackLayout), len(sm.Tracks))
	}

	tempos := sm.TempoChanges()
	if len(tempos) == 0 || math.Abs(tempos[0].BPM-Tempo()) > 0.01 {
		t.Errorf("Expected tempo %f, got %+v", Tempo(), tempos)
	}

	// Count note starts per exported track
	starts := make(map[uint8]int)
	for _, track := range sm.Tracks[1:] {
		for _, ev := range track {
			var ch, key, vel uint8
			if midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
				starts[ch]++
			}
		}
	}

	recorded := make(map[uint8]int)
	for _, ev := range r.Events() {
		recorded[ev.Channel]++
	}
	for ch, want := range recorded {
		if starts[ch] != want {
			t.Errorf("Channel %d: %d note starts in file, %d recorded", ch, starts[ch], want)
		}
	}
	if recorded[parameter.ChannelPad] != 8*3 {
		t.Errorf("Expected 24 pad notes over 8 bars, got %d", recorded[parameter.ChannelPad])
	}
	if recorded[parameter.ChannelLead] != 4 {
		t.Errorf("Expected 4 verse lead notes, got %d", recorded[parameter.ChannelLead])
	}
}
