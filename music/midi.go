package music

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/parameter"
)

// NoteEvent is one recorded note, timed from the first Initialize
type NoteEvent struct {
	At       time.Duration
	Length   time.Duration
	Channel  uint8
	Key      uint8
	Velocity uint8
}

// Recorder is an Output that captures triggers as MIDI notes instead of sound
type Recorder struct {
	clock Clock

	mu      sync.Mutex
	start   time.Time
	started bool
	playing bool
	events  []NoteEvent
}

// NewRecorder creates a recorder timestamping from clock
func NewRecorder(clock Clock) *Recorder {
	return &Recorder{clock: clock}
}

// Initialize anchors the timeline on first call
func (r *Recorder) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.start = r.clock.Now()
		r.started = true
	}
	return nil
}

func (r *Recorder) SetPlaying(playing bool) {
	r.mu.Lock()
	r.playing = playing
	r.mu.Unlock()
}

// SetMuted has no effect on a recording
func (r *Recorder) SetMuted(bool) {}

// StopAll reports no sounding voices; notes are already closed
func (r *Recorder) StopAll() int { return 0 }

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded notes in trigger order
func (r *Recorder) Events() []NoteEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]NoteEvent(nil), r.events...)
}

func (r *Recorder) record(channel uint8, key int, d, delay time.Duration, intensity float64) {
	if key < 0 || key > 127 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.playing || !r.started {
		return
	}
	r.events = append(r.events, NoteEvent{
		At:       r.clock.Now().Sub(r.start) + delay,
		Length:   d,
		Channel:  channel,
		Key:      uint8(key),
		Velocity: velocity(intensity),
	})
}

// velocity maps intensity 1.0 to 100, clamped to the MIDI range
func velocity(intensity float64) uint8 {
	v := math.Round(intensity * 100)
	if v < 1 {
		v = 1
	}
	if v > parameter.MaxVelocity {
		v = parameter.MaxVelocity
	}
	return uint8(v)
}

func (r *Recorder) Kick(intensity float64) {
	r.record(parameter.ChannelDrums, parameter.DrumKick, constant.KickDuration, 0, intensity)
}

func (r *Recorder) Snare(intensity float64) {
	r.record(parameter.ChannelDrums, parameter.DrumSnare, constant.SnareNoiseLength, 0, intensity)
}

func (r *Recorder) HiHat(open bool, intensity float64) {
	if open {
		r.record(parameter.ChannelDrums, parameter.DrumOpenHat, constant.HihatOpenLength, 0, intensity)
		return
	}
	r.record(parameter.ChannelDrums, parameter.DrumClosedHat, constant.HihatClosedLength, 0, intensity)
}

func (r *Recorder) Bass(freq float64, d time.Duration, intensity float64) {
	r.record(parameter.ChannelBass, audio.FreqNote(freq), d, 0, intensity)
}

func (r *Recorder) Lead(freq float64, d, delay time.Duration, intensity float64) {
	r.record(parameter.ChannelLead, audio.FreqNote(freq), d, delay, intensity)
}

func (r *Recorder) Pad(chord []float64, d time.Duration, intensity float64) {
	for _, freq := range chord {
		r.record(parameter.ChannelPad, audio.FreqNote(freq), d, 0, intensity)
	}
}

// Tempo is the bar clock expressed as quarter notes per minute
func Tempo() float64 {
	return float64(time.Minute) / float64(constant.BeatDuration)
}

func toTicks(d time.Duration) uint32 {
	beats := float64(d) / float64(constant.BeatDuration)
	return uint32(math.Round(beats * parameter.TicksPerQuarter))
}

type tickMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

var trackLayout = []struct {
	name    string
	channel uint8
}{
	{"drums", parameter.ChannelDrums},
	{"bass", parameter.ChannelBass},
	{"lead", parameter.ChannelLead},
	{"pad", parameter.ChannelPad},
}

// SMF builds a Standard MIDI File: a tempo track then one track per part
func (r *Recorder) SMF() (*smf.SMF, error) {
	events := r.Events()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(parameter.TicksPerQuarter)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(constant.BeatsPerBar, 4))
	tempo.Add(0, smf.MetaTempo(Tempo()))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("add tempo track: %w", err)
	}

	for _, layout := range trackLayout {
		var msgs []tickMessage
		for _, ev := range events {
			if ev.Channel != layout.channel {
				continue
			}
			on := toTicks(ev.At)
			off := toTicks(ev.At + ev.Length)
			if off <= on {
				off = on + 1
			}
			msgs = append(msgs,
				tickMessage{tick: on, msg: midi.NoteOn(ev.Channel, ev.Key, ev.Velocity)},
				tickMessage{tick: off, off: true, msg: midi.NoteOff(ev.Channel, ev.Key)},
			)
		}

		// Note-offs first at equal ticks so retriggered keys are not cut short
		sort.SliceStable(msgs, func(i, j int) bool {
			if msgs[i].tick != msgs[j].tick {
				return msgs[i].tick < msgs[j].tick
			}
			return msgs[i].off && !msgs[j].off
		})

		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(layout.name))
		var last uint32
		for _, m := range msgs {
			track.Add(m.tick-last, m.msg)
			last = m.tick
		}
		track.Close(0)

		if err := sm.Add(track); err != nil {
			return nil, fmt.Errorf("add %s track: %w", layout.name, err)
		}
	}

	return sm, nil
}

// WriteTo encodes the recording as a Standard MIDI File
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	sm, err := r.SMF()
	if err != nil {
		return 0, err
	}
	return sm.WriteTo(w)
}
