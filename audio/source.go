package audio

import (
	"math"
	"math/rand"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// source produces one mono sample per call, advancing by dt seconds
type source interface {
	next(t, dt float64) float64
}

// Oscillator is a periodic source with automatable frequency
type Oscillator struct {
	Wave  WaveType
	Freq  *Param
	phase float64 // [0,1)
}

// NewOscillator creates an oscillator starting at freq Hz
func NewOscillator(wave WaveType, freq float64) *Oscillator {
	return &Oscillator{Wave: wave, Freq: NewParam(freq)}
}

func (o *Oscillator) next(t, dt float64) float64 {
	v := waveform(o.Wave, o.phase)
	o.phase += o.Freq.ValueAt(t) * dt
	o.phase -= math.Floor(o.phase)
	return v
}

// waveform evaluates a unit wave at phase p, all shapes start at zero except square
func waveform(w WaveType, p float64) float64 {
	switch w {
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		s := p + 0.5
		return 2*(s-math.Floor(s)) - 1
	case WaveTriangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// bufferSource plays a sample buffer once
type bufferSource struct {
	data []float64
	pos  int
}

func (b *bufferSource) next(_, _ float64) float64 {
	if b.pos >= len(b.data) {
		return 0
	}
	v := b.data[b.pos]
	b.pos++
	return v
}

// NewNoiseBuffer fills n samples with white noise shaped by (1-i/n)^curve
func NewNoiseBuffer(rng *rand.Rand, n int, curve float64) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = (rng.Float64()*2 - 1) * math.Pow(1-float64(i)/float64(n), curve)
	}
	return buf
}
