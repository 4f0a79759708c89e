package music

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/ambient/core"
	"github.com/lixenwraith/ambient/parameter"
)

// ErrInvalidArrangement reports an arrangement that cannot be scheduled
var ErrInvalidArrangement = errors.New("invalid arrangement")

// Section is one arrangement segment with its harmony
// Chords and bass notes are indexed independently by bar within the section
type Section struct {
	Kind      core.SectionKind
	Bars      int
	Intensity float64
	Chords    [][3]float64
	Bass      []float64
}

// Name returns the section identifier
func (s Section) Name() string {
	return s.Kind.String()
}

// DisplayName returns the short label shown by players
func (s Section) DisplayName() string {
	return s.Kind.DisplayName()
}

// Chord returns the chord for bar k of the section
func (s Section) Chord(k int) [3]float64 {
	return s.Chords[k%len(s.Chords)]
}

// BassNote returns the bass frequency for bar k of the section
func (s Section) BassNote(k int) float64 {
	return s.Bass[k%len(s.Bass)]
}

// Arrangement is the ordered, cycling list of sections
type Arrangement []Section

// DefaultArrangement returns intro, verse, buildup, drop, breakdown, outro
func DefaultArrangement() Arrangement {
	specs := parameter.DefaultSections()
	a := make(Arrangement, len(specs))
	for i, spec := range specs {
		a[i] = Section{
			Kind:      spec.Kind,
			Bars:      spec.Bars,
			Intensity: spec.Intensity,
			Chords:    spec.Chords,
			Bass:      spec.Bass,
		}
	}
	return a
}

// Validate checks every section can be indexed by bar
func (a Arrangement) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidArrangement)
	}
	for i, s := range a {
		switch {
		case s.Bars < 1:
			return fmt.Errorf("%w: section %d (%s) has %d bars", ErrInvalidArrangement, i, s.Name(), s.Bars)
		case len(s.Chords) == 0:
			return fmt.Errorf("%w: section %d (%s) has no chords", ErrInvalidArrangement, i, s.Name())
		case len(s.Bass) == 0:
			return fmt.Errorf("%w: section %d (%s) has no bass notes", ErrInvalidArrangement, i, s.Name())
		case s.Intensity < 0:
			return fmt.Errorf("%w: section %d (%s) has negative intensity", ErrInvalidArrangement, i, s.Name())
		}
	}
	return nil
}

// TotalBars returns the length of one full cycle
func (a Arrangement) TotalBars() int {
	n := 0
	for _, s := range a {
		n += s.Bars
	}
	return n
}

// StartBar returns the cycle bar at which section i begins
func (a Arrangement) StartBar(i int) int {
	n := 0
	for _, s := range a[:i] {
		n += s.Bars
	}
	return n
}
