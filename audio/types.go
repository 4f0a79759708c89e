package audio

import (
	"errors"
)

// BackendType identifies the audio output backend
type BackendType int

const (
	BackendSpeaker BackendType = iota // beep/speaker (oto)
	BackendPulse
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
	BackendNull // No hardware, clock advances only when rendered
)

func (b BackendType) String() string {
	names := [...]string{"speaker", "pacat", "pw-cat", "aplay", "sox", "ffplay", "oss", "null"}
	if b >= 0 && int(b) < len(names) {
		return names[b]
	}
	return "unknown"
}

// IsPipe returns true for backends fed through a CLI tool or device file
func (b BackendType) IsPipe() bool {
	return b >= BackendPulse && b <= BackendOSS
}

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend  = errors.New("no compatible audio backend found")
	ErrPipeClosed      = errors.New("audio pipe closed")
	ErrUnknownBackend  = errors.New("unknown audio backend")
	ErrGraphClosed     = errors.New("audio graph closed")
	ErrVoiceFinished   = errors.New("voice already finished")
	ErrVoiceStopped    = errors.New("voice already stopped")
	ErrInvalidSendName = errors.New("invalid send name")
)
