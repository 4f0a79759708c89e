package core

// SectionKind identifies an arrangement segment
type SectionKind int

const (
	SectionIntro SectionKind = iota
	SectionVerse
	SectionBuildup
	SectionDrop
	SectionBreakdown
	SectionOutro
	SectionCount
)

func (k SectionKind) String() string {
	names := [...]string{"intro", "verse", "buildup", "drop", "breakdown", "outro"}
	if k >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// DisplayName returns the short label shown by players
func (k SectionKind) DisplayName() string {
	names := [...]string{"Intro", "Verse", "Build", "Drop", "Break", "Outro"}
	if k >= 0 && int(k) < len(names) {
		return names[k]
	}
	return ""
}

// VoiceKind identifies a synthesized voice chain
type VoiceKind int

const (
	VoiceKick VoiceKind = iota
	VoiceSnareNoise
	VoiceSnareTone
	VoiceHihatClosed
	VoiceHihatOpen
	VoiceBass
	VoiceLead
	VoicePad
	VoiceKindCount
)

func (v VoiceKind) String() string {
	names := [...]string{"kick", "snare_noise", "snare_tone", "hihat_closed", "hihat_open", "bass", "lead", "pad"}
	if v >= 0 && int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

// IsDrum returns true for percussion voices
func (v VoiceKind) IsDrum() bool {
	return v <= VoiceHihatOpen
}

// SendID identifies a reverb send bus
type SendID int

const (
	SendKick SendID = iota
	SendSnare
	SendHihat
	SendSynth
	SendPad
	SendCount
)

func (s SendID) String() string {
	names := [...]string{"kick", "snare", "hihat", "synth", "pad"}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ParseSendID maps a send name to its ID
func ParseSendID(name string) (SendID, bool) {
	for s := SendKick; s < SendCount; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
