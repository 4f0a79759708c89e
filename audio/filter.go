package audio

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// FilterType selects the biquad response
type FilterType int

const (
	FilterLowPass FilterType = iota
	FilterHighPass
	FilterBandPass
)

// Biquad is a second order IIR filter
// Low-pass and high-pass Q is resonance in dB, band-pass Q is linear
type Biquad struct {
	section *biquad.Section

	// Constant 0 dB peak band-pass (RBJ cookbook, transposed direct form II)
	b0, b2, a1, a2 float64
	z1, z2         float64
}

// NewBiquad computes coefficients for a fixed cutoff
func NewBiquad(typ FilterType, freq, q float64, sampleRate int) *Biquad {
	sr := float64(sampleRate)
	nyquist := sr / 2
	if freq >= nyquist {
		freq = nyquist * 0.999
	}
	if freq < 1 {
		freq = 1
	}

	switch typ {
	case FilterLowPass:
		return &Biquad{section: biquad.NewSection(design.Lowpass(freq, resonanceQ(q), sr))}
	case FilterHighPass:
		return &Biquad{section: biquad.NewSection(design.Highpass(freq, resonanceQ(q), sr))}
	}

	if q <= 0 {
		q = 1e-4
	}
	w0 := 2 * math.Pi * freq / sr
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return &Biquad{
		b0: alpha / a0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}
}

// resonanceQ converts a resonance in dB to the linear Q of the cookbook designs
func resonanceQ(db float64) float64 {
	return math.Pow(10, db/20)
}

// Process filters one sample
func (f *Biquad) Process(x float64) float64 {
	if f.section != nil {
		return f.section.ProcessSample(x)
	}
	y := f.b0*x + f.z1
	f.z1 = -f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}
