package audio

import (
	"errors"
	"sync"
)

// registry tracks live voices for the render loop and for forced stop
type registry struct {
	mu     sync.Mutex
	voices map[*Voice]struct{}
}

func newRegistry() *registry {
	return &registry{voices: make(map[*Voice]struct{})}
}

func (r *registry) add(v *Voice) {
	r.mu.Lock()
	r.voices[v] = struct{}{}
	r.mu.Unlock()
}

func (r *registry) remove(v *Voice) {
	r.mu.Lock()
	delete(r.voices, v)
	r.mu.Unlock()
}

// snapshot copies live voices into dst to render without holding the lock
func (r *registry) snapshot(dst []*Voice) []*Voice {
	dst = dst[:0]
	r.mu.Lock()
	for v := range r.voices {
		dst = append(dst, v)
	}
	r.mu.Unlock()
	return dst
}

// stopAll stops and forgets every voice, returns the number actually stopped
// Voices that already ended are tolerated
func (r *registry) stopAll() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stopped := 0
	var errs []error
	for v := range r.voices {
		err := v.Stop()
		switch {
		case err == nil:
			stopped++
		case errors.Is(err, ErrVoiceFinished), errors.Is(err, ErrVoiceStopped):
		default:
			errs = append(errs, err)
		}
		delete(r.voices, v)
	}
	return stopped, errors.Join(errs...)
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}
