package parameter

import (
	"time"

	"github.com/lixenwraith/ambient/core"
)

// ReverbSpec shapes a synthetic impulse response
// RoomSize controls decay steepness, DecaySeconds the response length
type ReverbSpec struct {
	RoomSize     float64
	DecaySeconds float64
}

// ReverbSends holds per-send impulse response settings, indexed by core.SendID
var ReverbSends = [core.SendCount]ReverbSpec{
	core.SendKick:  {RoomSize: 0.3, DecaySeconds: 1.2}, // Short, tight
	core.SendSnare: {RoomSize: 0.6, DecaySeconds: 1.8},
	core.SendHihat: {RoomSize: 0.8, DecaySeconds: 0.8}, // Bright, short
	core.SendSynth: {RoomSize: 0.7, DecaySeconds: 2.5},
	core.SendPad:   {RoomSize: 0.9, DecaySeconds: 3.5}, // Long, spacious
}

// Per-beat intensity multipliers applied to the section intensity
const (
	PadLevel         = 0.8
	OffbeatHatLevel  = 0.6
	BackbeatSnare    = 0.8
	LeadLevel        = 0.7
	SecondHatLevel   = 0.4
	SecondKickLevel  = 0.8
	SecondBassLevel  = 0.8
	ThirdHatLevel    = 0.5
	OpenHatLevel     = 0.6
	LastHatLevel     = 0.3
	FillSecondLevel  = 0.8
	FillThirdLevel   = 0.6
	SecondBassFactor = 1.5 // Fifth above the bar's bass note
	LeadOctave       = 2.0
)

// Trigger note lengths
const (
	DownbeatBassDuration = 400 * time.Millisecond
	SecondBassDuration   = 300 * time.Millisecond
	LeadNoteDuration     = 300 * time.Millisecond
)
