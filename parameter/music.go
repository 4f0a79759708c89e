package parameter

// General MIDI percussion keys (channel 10)
const (
	DrumKick      = 36
	DrumSnare     = 38
	DrumClosedHat = 42
	DrumOpenHat   = 46
)

// MIDI channels for exported tracks (zero-based)
const (
	ChannelBass  = 0
	ChannelLead  = 1
	ChannelPad   = 2
	ChannelDrums = 9
)

// MIDI export resolution
const (
	TicksPerQuarter = 960
	MaxVelocity     = 127
)

// Note names (semitone offset within octave)
const (
	NoteC  = 0
	NoteCs = 1
	NoteD  = 2
	NoteDs = 3
	NoteE  = 4
	NoteF  = 5
	NoteFs = 6
	NoteG  = 7
	NoteGs = 8
	NoteA  = 9
	NoteAs = 10
	NoteB  = 11
)

// MIDINote computes MIDI note number from note + octave
func MIDINote(note, octave int) int {
	return (octave+1)*12 + note // C-1 = 0, C4 = 60
}
