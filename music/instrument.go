package music

import "time"

// Instrument receives voice triggers from the scheduler
// Intensity scales each voice's peak level
type Instrument interface {
	Kick(intensity float64)
	Snare(intensity float64)
	HiHat(open bool, intensity float64)
	Bass(freq float64, d time.Duration, intensity float64)
	Lead(freq float64, d, delay time.Duration, intensity float64)
	Pad(chord []float64, d time.Duration, intensity float64)
}

// Output is an Instrument with a playback lifecycle
type Output interface {
	Instrument

	// Initialize prepares the output; repeated calls must be cheap and keep state
	Initialize() error
	// SetPlaying gates voice creation
	SetPlaying(playing bool)
	SetMuted(muted bool)
	// StopAll force-stops sounding voices, returns how many were stopped
	StopAll() int
	Close() error
}
