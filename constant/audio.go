package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration determines device latency and pipe writer tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// ReverbBlockSize is the convolution partition length in samples
	// Also the wet path latency (~46ms at 44.1kHz)
	ReverbBlockSize = 2048

	// MasterLevel is the nominal (unmuted) master gain
	MasterLevel = 1.2
)

// Arrangement Clock
const (
	BarDuration  = 1750 * time.Millisecond
	BeatsPerBar  = 4
	BeatDuration = BarDuration / BeatsPerBar // 437.5ms

	// FillSpacing separates the buildup snare fill hits
	FillSpacing = 100 * time.Millisecond

	// AutoPlayDelay is the wait between first interaction and playback
	AutoPlayDelay = 1 * time.Second
)

// Envelope floor for exponential ramps (exponential ramps cannot reach zero)
const EnvelopeFloor = 0.001

// Kick
const (
	KickStartFreq  = 65.0
	KickEndFreq    = 25.0
	KickSweep      = 150 * time.Millisecond
	KickFilterFreq = 120.0
	KickFilterQ    = 2.0
	KickAttack     = 10 * time.Millisecond
	KickDuration   = 400 * time.Millisecond
	KickPeak       = 1.1
	KickDry        = 0.8
	KickWet        = 0.2
)

// Snare (noise layer + tonal layer)
const (
	SnareNoiseLength   = 200 * time.Millisecond
	SnareNoiseCurve    = 3.0
	SnareFilterFreq    = 800.0
	SnareFilterQ       = 3.0
	SnareNoiseAttack   = 10 * time.Millisecond
	SnareNoiseDecay    = 150 * time.Millisecond
	SnareNoisePeak     = 0.5
	SnareNoiseDry      = 0.6
	SnareNoiseWet      = 0.4
	SnareToneStartFreq = 200.0
	SnareToneEndFreq   = 150.0
	SnareToneDuration  = 100 * time.Millisecond
	SnareToneAttack    = 5 * time.Millisecond
	SnareTonePeak      = 0.2
	SnareToneDry       = 0.7
	SnareToneWet       = 0.3
)

// Hi-hat
const (
	HihatFilterFreq   = 8000.0
	HihatFilterQ      = 1.0
	HihatAttack       = 5 * time.Millisecond
	HihatOpenLength   = 300 * time.Millisecond
	HihatOpenCurve    = 1.0
	HihatOpenDecay    = 300 * time.Millisecond
	HihatOpenPeak     = 0.15
	HihatOpenDry      = 0.5
	HihatOpenWet      = 0.5
	HihatClosedLength = 100 * time.Millisecond
	HihatClosedCurve  = 4.0
	HihatClosedDecay  = 80 * time.Millisecond
	HihatClosedPeak   = 0.25
	HihatClosedDry    = 0.8
	HihatClosedWet    = 0.2
)

// Bass
const (
	BassFilterFreq = 300.0
	BassFilterQ    = 5.0
	BassAttack     = 50 * time.Millisecond
	BassPeak       = 0.4
	BassSustain    = 0.35
	BassTail       = 100 * time.Millisecond
	BassDuration   = 500 * time.Millisecond
	BassDry        = 0.9
	BassWet        = 0.1
)

// Lead
const (
	LeadFilterFreq = 2000.0
	LeadFilterQ    = 2.0
	LeadAttack     = 20 * time.Millisecond
	LeadPeak       = 0.2
	LeadDuration   = 300 * time.Millisecond
	LeadDry        = 0.6
	LeadWet        = 0.4
)

// Pad
const (
	PadFilterFreq = 1500.0
	PadFilterQ    = 0.5
	PadAttack     = 1500 * time.Millisecond
	PadPeak       = 0.1
	PadSustain    = 0.08
	PadRelease    = 1 * time.Second
	PadDuration   = 3500 * time.Millisecond
	PadDry        = 0.4
	PadWet        = 0.6
)

// Device test tone
const (
	ToneFreq     = 440.0
	ToneDuration = 1 * time.Second
	ToneFade     = 20 * time.Millisecond
	ToneLevel    = 0.3
)
