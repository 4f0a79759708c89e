package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// speakerContext plays through beep/speaker behind a pausable Ctrl
type speakerContext struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	bufferSize  int
	ctrl        *beep.Ctrl
	initialized bool
}

func newSpeakerContext(cfg *AudioConfig) *speakerContext {
	rate := beep.SampleRate(cfg.SampleRate)
	return &speakerContext{
		rate:       rate,
		bufferSize: rate.N(cfg.BufferSize),
	}
}

func (c *speakerContext) Start(s beep.Streamer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := speaker.Init(c.rate, c.bufferSize); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	c.ctrl = &beep.Ctrl{Streamer: s, Paused: false}
	speaker.Play(c.ctrl)
	c.initialized = true
	return nil
}

func (c *speakerContext) Resume() error {
	return c.setPaused(false)
}

func (c *speakerContext) Suspend() error {
	return c.setPaused(true)
}

func (c *speakerContext) setPaused(paused bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrGraphClosed
	}
	speaker.Lock()
	c.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

func (c *speakerContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}

	speaker.Clear()
	speaker.Close()
	c.initialized = false
	return nil
}

func (c *speakerContext) Name() string { return "speaker" }
