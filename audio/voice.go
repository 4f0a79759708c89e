package audio

import (
	"sync/atomic"

	"github.com/lixenwraith/ambient/core"
)

const (
	voiceActive int32 = iota
	voiceFinished
	voiceStopped
)

// Voice is one transient synthesis chain: source, optional filter, gain
// envelope, then a dry path to master and a wet path to a reverb send
// Start and end are absolute frames on the graph's audio clock
type Voice struct {
	Kind core.VoiceKind
	Send core.SendID

	src    source
	filter *Biquad
	gain   *Param

	dryLevel float64
	wetLevel float64

	start int64
	end   int64
	shift int64 // Frames the voice was pushed back when added late

	state atomic.Int32
}

// render mixes the voice into mono dry and wet buffers for the block starting at frame f0
// Returns true once the voice has ended or been stopped
func (v *Voice) render(dry, wet []float64, f0 int64, sampleRate int) bool {
	if v.state.Load() != voiceActive {
		return true
	}

	dt := 1 / float64(sampleRate)
	for i := range dry {
		f := f0 + int64(i)
		if f < v.start {
			continue
		}
		if f >= v.end {
			v.state.CompareAndSwap(voiceActive, voiceFinished)
			return true
		}

		t := float64(f-v.shift) * dt
		s := v.src.next(t, dt)
		if v.filter != nil {
			s = v.filter.Process(s)
		}
		s *= v.gain.ValueAt(t)

		dry[i] += s * v.dryLevel
		wet[i] += s * v.wetLevel
	}

	return false
}

// Stop terminates the voice immediately
func (v *Voice) Stop() error {
	if v.state.CompareAndSwap(voiceActive, voiceStopped) {
		return nil
	}
	if v.state.Load() == voiceFinished {
		return ErrVoiceFinished
	}
	return ErrVoiceStopped
}

// Done reports whether the voice has ended or been stopped
func (v *Voice) Done() bool {
	return v.state.Load() != voiceActive
}
