package audio

import (
	"math"
	"sort"
)

type automationKind uint8

const (
	automationSet automationKind = iota
	automationLinear
	automationExponential
)

type automationEvent struct {
	kind  automationKind
	at    float64 // Seconds on the audio clock
	value float64
}

// Param is an automatable value evaluated against the audio clock
// Semantics follow audio-parameter automation: a ramp event interpolates from
// the previous event's time and value to its own
type Param struct {
	initial float64
	events  []automationEvent
}

// NewParam creates a param holding v until the first event
func NewParam(v float64) *Param {
	return &Param{initial: v}
}

// SetValueAtTime jumps to v at time at
func (p *Param) SetValueAtTime(v, at float64) {
	p.insert(automationEvent{kind: automationSet, at: at, value: v})
}

// LinearRampToValueAtTime ramps linearly to v, reaching it at time at
func (p *Param) LinearRampToValueAtTime(v, at float64) {
	p.insert(automationEvent{kind: automationLinear, at: at, value: v})
}

// ExponentialRampToValueAtTime ramps exponentially to v, reaching it at time at
// If the ramp would cross or touch zero the previous value is held until at
func (p *Param) ExponentialRampToValueAtTime(v, at float64) {
	p.insert(automationEvent{kind: automationExponential, at: at, value: v})
}

// insert keeps events ordered by time, later insertions after equal times
func (p *Param) insert(e automationEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].at > e.at })
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// ValueAt returns the automated value at time t
func (p *Param) ValueAt(t float64) float64 {
	prevAt, prevValue := 0.0, p.initial

	for _, e := range p.events {
		if e.at <= t {
			prevAt, prevValue = e.at, e.value
			continue
		}

		frac := (t - prevAt) / (e.at - prevAt)
		switch e.kind {
		case automationLinear:
			return prevValue + (e.value-prevValue)*frac
		case automationExponential:
			if prevValue*e.value <= 0 {
				return prevValue
			}
			return prevValue * math.Pow(e.value/prevValue, frac)
		default:
			return prevValue
		}
	}

	return prevValue
}
