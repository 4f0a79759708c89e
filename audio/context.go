package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"
)

// Context is the hardware side of the graph: it pulls from a streamer
// Suspend freezes pulling, which also freezes the audio clock
type Context interface {
	Start(s beep.Streamer) error
	Resume() error
	Suspend() error
	Close() error
	Name() string
}

// OpenContext creates the context named by cfg.Backend
func OpenContext(cfg *AudioConfig) (Context, error) {
	switch cfg.Backend {
	case "speaker", "":
		return newSpeakerContext(cfg), nil
	case "pipe":
		return newPipeContext(cfg), nil
	case "null":
		return NewNullContext(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// NullContext accepts a streamer without pulling from it
// Used for offline rendering and tests, where the caller drives Stream
type NullContext struct {
	mu        sync.Mutex
	streamer  beep.Streamer
	suspended bool
	closed    bool
}

// NewNullContext creates a context with no device
func NewNullContext() *NullContext {
	return &NullContext{}
}

func (c *NullContext) Start(s beep.Streamer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamer = s
	return nil
}

func (c *NullContext) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = false
	return nil
}

func (c *NullContext) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
	return nil
}

func (c *NullContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.streamer = nil
	return nil
}

func (c *NullContext) Name() string { return "null" }

// Streamer returns the started streamer, nil after Close
func (c *NullContext) Streamer() beep.Streamer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamer
}
