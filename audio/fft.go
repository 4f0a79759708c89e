package audio

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// spectrum wraps an unnormalized forward plan for one transform size
// The inverse reuses the forward plan: ifft(X) = conj(fft(conj(X))) / n
type spectrum struct {
	n       int
	plan    *algofft.Plan[complex128]
	scratch []complex128
}

func newSpectrum(n int) (*spectrum, error) {
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan %d: %w", n, err)
	}
	return &spectrum{
		n:       n,
		plan:    plan,
		scratch: make([]complex128, n),
	}, nil
}

// forward writes the spectrum of src into dst; dst and src must not alias
func (s *spectrum) forward(dst, src []complex128) error {
	return s.plan.Forward(dst, src)
}

// inverse writes the scaled inverse transform of src into dst
func (s *spectrum) inverse(dst, src []complex128) error {
	for i, x := range src {
		s.scratch[i] = complex(real(x), -imag(x))
	}
	if err := s.plan.Forward(dst, s.scratch); err != nil {
		return err
	}

	scale := 1 / float64(s.n)
	for i, x := range dst {
		dst[i] = complex(real(x)*scale, -imag(x)*scale)
	}
	return nil
}
