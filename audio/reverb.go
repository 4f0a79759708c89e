package audio

import (
	"math"
	"math/rand"
)

// Impulse response normalization, matching the browser convolver's
// normalize=true behavior
const (
	irGainCalibration           = 0.00125
	irGainCalibrationSampleRate = 44100.0
	irMinPower                  = 0.000125
)

// NewImpulseResponse generates decorrelated stereo noise decaying as
// ((n-i)/n)^(roomSize*3), n = decay seconds of samples
func NewImpulseResponse(rng *rand.Rand, sampleRate int, roomSize, decay float64) (left, right []float64) {
	n := int(float64(sampleRate) * decay)
	if n < 1 {
		n = 1
	}
	left = make([]float64, n)
	right = make([]float64, n)

	exp := roomSize * 3
	for i := 0; i < n; i++ {
		env := math.Pow(float64(n-i)/float64(n), exp)
		left[i] = (rng.Float64()*2 - 1) * env
		right[i] = (rng.Float64()*2 - 1) * env
	}
	return left, right
}

// normalizeImpulse scales the response to a calibrated RMS power
func normalizeImpulse(left, right []float64, sampleRate int) {
	var power float64
	for i := range left {
		power += left[i]*left[i] + right[i]*right[i]
	}
	power = math.Sqrt(power / float64(2*len(left)))
	if math.IsNaN(power) || power < irMinPower {
		power = irMinPower
	}

	scale := 1 / power * irGainCalibration * irGainCalibrationSampleRate / float64(sampleRate)
	for i := range left {
		left[i] *= scale
		right[i] *= scale
	}
}

// Convolver is a uniformly partitioned overlap-save convolution reverb
// The stereo response is packed as hL + i·hR so one complex FFT per block
// convolves a mono input into both output channels
// Output lags input by exactly one block
type Convolver struct {
	block int
	fft   *spectrum

	parts [][]complex128 // Response partition spectra
	fdl   [][]complex128 // Input spectra delay line, ring indexed by head
	head  int

	prev  []float64    // Previous input block
	in    []float64    // Input block being filled
	out   []complex128 // Output block being drained
	pos   int
	frame []complex128
	acc   []complex128

	quiet int // Consecutive silent input blocks
}

// NewConvolver partitions the stereo response into blocks of size block
func NewConvolver(left, right []float64, block int) (*Convolver, error) {
	size := 2 * block
	fft, err := newSpectrum(size)
	if err != nil {
		return nil, err
	}

	count := (len(left) + block - 1) / block
	if count < 1 {
		count = 1
	}

	c := &Convolver{
		block: block,
		fft:   fft,
		parts: make([][]complex128, count),
		fdl:   make([][]complex128, count),
		prev:  make([]float64, block),
		in:    make([]float64, block),
		out:   make([]complex128, block),
		frame: make([]complex128, size),
		acc:   make([]complex128, size),
		quiet: count,
	}

	for p := range c.parts {
		h := make([]complex128, size)
		for i := 0; i < block; i++ {
			j := p*block + i
			if j >= len(left) {
				break
			}
			h[i] = complex(left[j], right[j])
		}
		c.parts[p] = make([]complex128, size)
		if err := fft.forward(c.parts[p], h); err != nil {
			return nil, err
		}
		c.fdl[p] = make([]complex128, size)
	}

	return c, nil
}

// Partitions returns the number of response partitions
func (c *Convolver) Partitions() int {
	return len(c.parts)
}

// Process convolves in and adds level-scaled stereo output to out
func (c *Convolver) Process(in []float64, out [][2]float64, level float64) {
	for i, x := range in {
		y := c.out[c.pos]
		out[i][0] += real(y) * level
		out[i][1] += imag(y) * level

		c.in[c.pos] = x
		c.pos++
		if c.pos == c.block {
			c.pos = 0
			c.step()
		}
	}
}

// step consumes a full input block and produces the next output block
func (c *Convolver) step() {
	silent := true
	for _, x := range c.in {
		if x != 0 {
			silent = false
			break
		}
	}
	if silent {
		c.quiet++
	} else {
		c.quiet = 0
	}

	// Tail fully decayed through every partition
	if c.quiet > len(c.parts) {
		if c.quiet == len(c.parts)+1 {
			for _, x := range c.fdl {
				clear(x)
			}
		}
		clear(c.out)
		c.prev, c.in = c.in, c.prev
		return
	}

	b := c.block
	for i := 0; i < b; i++ {
		c.frame[i] = complex(c.prev[i], 0)
		c.frame[b+i] = complex(c.in[i], 0)
	}
	c.head = (c.head + len(c.fdl) - 1) % len(c.fdl)
	if err := c.fft.forward(c.fdl[c.head], c.frame); err != nil {
		clear(c.out)
		c.prev, c.in = c.in, c.prev
		return
	}

	clear(c.acc)
	for p, h := range c.parts {
		x := c.fdl[(c.head+p)%len(c.fdl)]
		for k := range c.acc {
			c.acc[k] += x[k] * h[k]
		}
	}
	if err := c.fft.inverse(c.frame, c.acc); err != nil {
		clear(c.out)
	} else {
		copy(c.out, c.frame[b:])
	}

	c.prev, c.in = c.in, c.prev
}
