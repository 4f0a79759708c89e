package audio

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
)

// AudioConfig holds output and mix settings
type AudioConfig struct {
	Backend      string  // "speaker", "pipe", "null"
	MasterVolume float64 // 0.0-1.0, scales the nominal master level
	SampleRate   int
	BufferSize   time.Duration
	SendLevels   [core.SendCount]float64 // Reverb return levels
	Seed         int64                   // Noise and lead-note seed, 0 = time based
}

// DefaultAudioConfig returns the stock configuration
func DefaultAudioConfig() *AudioConfig {
	cfg := &AudioConfig{
		Backend:      "speaker",
		MasterVolume: 1.0,
		SampleRate:   constant.AudioSampleRate,
		BufferSize:   constant.AudioBufferDuration,
	}
	for i := range cfg.SendLevels {
		cfg.SendLevels[i] = 1.0
	}
	return cfg
}

// LoadAudioConfig loads audio configuration from environment variables
func LoadAudioConfig() *AudioConfig {
	cfg := DefaultAudioConfig()

	if backend := os.Getenv("AMBIENT_AUDIO_BACKEND"); backend != "" {
		cfg.Backend = backend
	}

	// Load master volume (0-100 converted to 0.0-1.0)
	if volume := os.Getenv("AMBIENT_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = clampUnit(float64(val) / 100.0)
		}
	}

	if sampleRate := os.Getenv("AMBIENT_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if bufferMs := os.Getenv("AMBIENT_BUFFER_MS"); bufferMs != "" {
		if val, err := strconv.Atoi(bufferMs); err == nil && val > 0 {
			cfg.BufferSize = time.Duration(val) * time.Millisecond
		}
	}

	// Send return levels from JSON, e.g. {"pad":0.8,"kick":0.5}
	if levels := os.Getenv("AMBIENT_SEND_LEVELS"); levels != "" {
		if err := cfg.ApplySendLevels(levels); err != nil {
			log.Printf("audio: ignoring AMBIENT_SEND_LEVELS: %v", err)
		}
	}

	if seed := os.Getenv("AMBIENT_SEED"); seed != "" {
		if val, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = val
		}
	}

	return cfg
}

// ApplySendLevels merges a JSON object of send name to return level
// Unknown names fail the whole update
func (c *AudioConfig) ApplySendLevels(raw string) error {
	var levels map[string]float64
	if err := json.Unmarshal([]byte(raw), &levels); err != nil {
		return fmt.Errorf("send levels: %w", err)
	}

	updated := c.SendLevels
	for name, v := range levels {
		id, ok := core.ParseSendID(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidSendName, name)
		}
		if v < 0 {
			v = 0
		}
		updated[id] = v
	}
	c.SendLevels = updated
	return nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
