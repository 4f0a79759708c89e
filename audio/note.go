package audio

import "math"

// NoteFrequencies contains precomputed frequencies for MIDI notes 0-127
// A4 (note 69) = 440Hz, equal temperament
var NoteFrequencies [128]float64

func init() {
	for i := range NoteFrequencies {
		NoteFrequencies[i] = 440.0 * math.Exp2((float64(i)-69.0)/12.0)
	}
}

// NoteFreq returns frequency in Hz for MIDI note number
func NoteFreq(midi int) float64 {
	if midi < 0 || midi >= 128 {
		return 0
	}
	return NoteFrequencies[midi]
}

// FreqNote returns the nearest MIDI note for a frequency, -1 if out of range
func FreqNote(freq float64) int {
	if freq <= 0 {
		return -1
	}
	n := int(math.Round(69 + 12*math.Log2(freq/440.0)))
	if n < 0 || n >= 128 {
		return -1
	}
	return n
}
