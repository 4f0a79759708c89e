package audio

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
	"github.com/lixenwraith/ambient/parameter"
	"github.com/lixenwraith/ambient/status"
)

// Graph renders live voices through the master gain and five reverb sends
// It is a beep.Streamer; the frame counter is the audio clock
type Graph struct {
	sampleRate int
	format     beep.Format

	reg     *registry
	sends   [core.SendCount]*Convolver
	returns [core.SendCount]float64

	nominal float64
	master  *status.AtomicFloat
	peak    *status.AtomicFloat
	frame   atomic.Int64 // Next frame to render
	closed  atomic.Bool

	// Render scratch, owned by Stream
	mu     sync.Mutex
	dry    []float64
	wet    [core.SendCount][]float64
	voices []*Voice
}

// Metric keys published by the graph
const (
	MetricMasterGain = "audio.master"
	MetricPeak       = "audio.peak"
)

// NewGraph builds the master gain and the reverb sends
// Master gain and block peak live in stats; nil stats keeps them private
func NewGraph(cfg *AudioConfig, rng *rand.Rand, stats *status.Registry) (*Graph, error) {
	if stats == nil {
		stats = status.NewRegistry()
	}

	g := &Graph{
		sampleRate: cfg.SampleRate,
		format: beep.Format{
			SampleRate:  beep.SampleRate(cfg.SampleRate),
			NumChannels: constant.AudioChannels,
			Precision:   constant.AudioBitDepth / 8,
		},
		reg:     newRegistry(),
		returns: cfg.SendLevels,
		nominal: constant.MasterLevel * cfg.MasterVolume,
		master:  stats.Floats.Get(MetricMasterGain),
		peak:    stats.Floats.Get(MetricPeak),
	}
	g.master.Store(g.nominal)

	for s, spec := range parameter.ReverbSends {
		left, right := NewImpulseResponse(rng, cfg.SampleRate, spec.RoomSize, spec.DecaySeconds)
		normalizeImpulse(left, right, cfg.SampleRate)
		conv, err := NewConvolver(left, right, constant.ReverbBlockSize)
		if err != nil {
			return nil, fmt.Errorf("reverb %s: %w", core.SendID(s), err)
		}
		g.sends[s] = conv
	}

	return g, nil
}

// Format returns the stream format for encoders and devices
func (g *Graph) Format() beep.Format {
	return g.format
}

// SampleRate returns the graph sample rate
func (g *Graph) SampleRate() int {
	return g.sampleRate
}

// Frame returns the next frame to be rendered
func (g *Graph) Frame() int64 {
	return g.frame.Load()
}

// Now returns the audio clock in seconds
func (g *Graph) Now() float64 {
	return float64(g.frame.Load()) / float64(g.sampleRate)
}

// SetMuted sets the master gain to zero or the nominal level instantly
func (g *Graph) SetMuted(muted bool) {
	level := g.nominal
	if muted {
		level = 0
	}
	g.master.Store(level)
}

// MasterGain returns the current master gain
func (g *Graph) MasterGain() float64 {
	return g.master.Load()
}

// Peak returns the absolute peak of the last rendered block
func (g *Graph) Peak() float64 {
	return g.peak.Load()
}

// AddVoice registers a voice for rendering
// A voice whose start frame was already rendered is pushed back to the
// next block with its envelope, so the attack is never skipped
func (g *Graph) AddVoice(v *Voice) {
	if g.closed.Load() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if late := g.frame.Load() - v.start; late > 0 {
		v.start += late
		v.end += late
		v.shift += late
	}
	g.reg.add(v)
}

// StopAll force-stops every live voice, returns how many were still sounding
func (g *Graph) StopAll() (int, error) {
	return g.reg.stopAll()
}

// Voices returns the number of registered voices
func (g *Graph) Voices() int {
	return g.reg.count()
}

// Close stops the stream; Stream reports drained afterwards
func (g *Graph) Close() {
	g.closed.Store(true)
	g.reg.stopAll()
	g.peak.Store(0)
}

// Stream implements beep.Streamer
func (g *Graph) Stream(samples [][2]float64) (n int, ok bool) {
	if g.closed.Load() {
		return 0, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n = len(samples)
	g.grow(n)
	dry := g.dry[:n]
	clear(dry)
	for s := range g.wet {
		clear(g.wet[s][:n])
	}

	// Voices added while rendering start with the next block
	f0 := g.frame.Add(int64(n)) - int64(n)

	g.voices = g.reg.snapshot(g.voices)
	for _, v := range g.voices {
		if v.render(dry, g.wet[v.Send][:n], f0, g.sampleRate) {
			g.reg.remove(v)
		}
	}

	for i := range samples {
		samples[i] = [2]float64{dry[i], dry[i]}
	}
	for s, conv := range g.sends {
		conv.Process(g.wet[s][:n], samples, g.returns[s])
	}

	master := g.master.Load()
	var peak float64
	for i := range samples {
		for c := 0; c < 2; c++ {
			v := softLimit(samples[i][c] * master)
			samples[i][c] = v
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	g.peak.Store(peak)

	return n, true
}

// Err implements beep.Streamer
func (g *Graph) Err() error {
	if g.closed.Load() {
		return ErrGraphClosed
	}
	return nil
}

func (g *Graph) grow(n int) {
	if cap(g.dry) >= n {
		return
	}
	g.dry = make([]float64, n)
	for s := range g.wet {
		g.wet[s] = make([]float64, n)
	}
}

// softLimit compresses above 0.8 then hard clips to [-1, 1]
func softLimit(v float64) float64 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}

	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}
