package parameter

import "github.com/lixenwraith/ambient/core"

// SectionSpec is the static description of one arrangement segment
type SectionSpec struct {
	Kind      core.SectionKind
	Bars      int
	Intensity float64
	Chords    [][3]float64 // Hz, one triad per entry
	Bass      []float64    // Hz
}

// Triads (equal temperament, A4 = 440Hz)
var (
	chordC  = [3]float64{261.63, 329.63, 392.0}
	chordAm = [3]float64{220.0, 261.63, 329.63}
	chordF  = [3]float64{174.61, 220.0, 261.63}
	chordG  = [3]float64{196.0, 246.94, 293.66}
	chordEm = [3]float64{164.81, 196.0, 246.94}
	chordDm = [3]float64{146.83, 174.61, 220.0}

	chordCLow  = [3]float64{130.81, 164.81, 196.0}
	chordAmLow = [3]float64{110.0, 130.81, 164.81}
	chordFLow  = [3]float64{87.31, 110.0, 130.81}
	chordGLow  = [3]float64{98.0, 123.47, 146.83}

	chordCHigh  = [3]float64{523.25, 659.25, 783.99}
	chordAmHigh = [3]float64{440.0, 523.25, 659.25}
)

// DefaultSections returns the fixed six-section arrangement in playback order
// Returns fresh slices on every call so callers may not alias the tables
func DefaultSections() []SectionSpec {
	return []SectionSpec{
		{
			Kind:      core.SectionIntro,
			Bars:      4,
			Intensity: 0.6,
			Chords:    [][3]float64{chordC, chordAm},
			Bass:      []float64{130.81, 110.0},
		},
		{
			Kind:      core.SectionVerse,
			Bars:      8,
			Intensity: 0.8,
			Chords:    [][3]float64{chordC, chordAm, chordF, chordG},
			Bass:      []float64{130.81, 110.0, 87.31, 98.0},
		},
		{
			Kind:      core.SectionBuildup,
			Bars:      4,
			Intensity: 1.0,
			Chords:    [][3]float64{chordEm, chordDm, chordG, chordC},
			Bass:      []float64{82.41, 73.42, 98.0, 130.81},
		},
		{
			Kind:      core.SectionDrop,
			Bars:      8,
			Intensity: 1.2,
			Chords:    [][3]float64{chordCLow, chordAmLow, chordFLow, chordGLow},
			Bass:      []float64{65.41, 55.0, 43.65, 49.0},
		},
		{
			Kind:      core.SectionBreakdown,
			Bars:      4,
			Intensity: 0.7,
			Chords:    [][3]float64{chordCHigh, chordAmHigh},
			Bass:      []float64{261.63, 220.0},
		},
		{
			Kind:      core.SectionOutro,
			Bars:      4,
			Intensity: 0.5,
			Chords:    [][3]float64{chordC, chordAm},
			Bass:      []float64{130.81, 110.0},
		},
	}
}
