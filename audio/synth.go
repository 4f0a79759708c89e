package audio

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
	"github.com/lixenwraith/ambient/status"
)

// ContextFactory opens a hardware context for a config
type ContextFactory func(cfg *AudioConfig) (Context, error)

// Synth owns the audio graph lifecycle and builds voices on it
// Voice triggers are no-ops while not playing or before the graph exists
type Synth struct {
	config *AudioConfig
	open   ContextFactory
	logger *log.Logger
	stats  *status.Registry

	mu    sync.Mutex // Protects ctx, graph, rng
	ctx   Context
	graph *Graph
	rng   *rand.Rand

	playing atomic.Bool
	muted   atomic.Bool

	spawned *atomic.Int64
	cut     *atomic.Int64
}

// Metric keys published by the synth
const (
	MetricVoicesSpawned = "audio.voices_spawned"
	MetricVoicesCut     = "audio.voices_cut"
)

// SynthOption configures a Synth
type SynthOption func(*Synth)

// WithContextFactory overrides backend selection
func WithContextFactory(f ContextFactory) SynthOption {
	return func(s *Synth) { s.open = f }
}

// WithSynthLogger sets the logger for backend failures
func WithSynthLogger(l *log.Logger) SynthOption {
	return func(s *Synth) { s.logger = l }
}

// WithStatus publishes voice counters to reg
func WithStatus(reg *status.Registry) SynthOption {
	return func(s *Synth) { s.stats = reg }
}

// NewSynth creates a synth; the graph is built on first Initialize
func NewSynth(cfg *AudioConfig, opts ...SynthOption) *Synth {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Synth{
		config: cfg,
		open:   OpenContext,
		logger: log.Default(),
		rng:    rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.stats == nil {
		s.stats = status.NewRegistry()
	}
	s.spawned = s.stats.Ints.Get(MetricVoicesSpawned)
	s.cut = s.stats.Ints.Get(MetricVoicesCut)
	return s
}

// Initialize builds the graph once; later calls only resume the context
func (s *Synth) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph != nil {
		if err := s.ctx.Resume(); err != nil {
			return fmt.Errorf("resume %s: %w", s.ctx.Name(), err)
		}
		return nil
	}

	ctx, err := s.open(s.config)
	if err != nil {
		return err
	}

	g, err := NewGraph(s.config, s.rng, s.stats)
	if err != nil {
		ctx.Close()
		return err
	}
	g.SetMuted(s.muted.Load())

	if err := ctx.Start(g); err != nil {
		ctx.Close()
		return fmt.Errorf("start %s: %w", ctx.Name(), err)
	}

	if reporter, ok := ctx.(interface{ Errors() <-chan error }); ok {
		errs := reporter.Errors()
		logger := s.logger
		core.Go(func() {
			if err, ok := <-errs; ok {
				logger.Printf("audio: %v, continuing silent", err)
			}
		})
	}

	s.ctx, s.graph = ctx, g
	s.logger.Printf("audio: graph started on %s at %d Hz", ctx.Name(), s.config.SampleRate)
	return nil
}

// Graph returns the graph, nil before Initialize
func (s *Synth) Graph() *Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// SetPlaying gates voice creation
func (s *Synth) SetPlaying(playing bool) {
	s.playing.Store(playing)
}

// SetMuted sets master gain to zero or nominal; voices keep being created
func (s *Synth) SetMuted(muted bool) {
	s.muted.Store(muted)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil {
		s.graph.SetMuted(muted)
	}
}

// StopAll force-stops every live voice, returns how many were still sounding
func (s *Synth) StopAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		return 0
	}
	n, err := s.graph.StopAll()
	if err != nil {
		s.logger.Printf("audio: stop voices: %v", err)
	}
	s.cut.Add(int64(n))
	return n
}

// Close tears down the graph and releases the context
func (s *Synth) Close() error {
	s.playing.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		return nil
	}
	s.graph.Close()
	err := s.ctx.Close()
	s.ctx, s.graph = nil, nil
	return err
}

// target returns the graph if voices may be created; caller holds s.mu
func (s *Synth) target() *Graph {
	if !s.playing.Load() {
		return nil
	}
	return s.graph
}

// frames converts a duration to whole frames at the graph rate
func (g *Graph) frames(d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(g.sampleRate)))
}

// percussive builds the shared attack then exponential decay envelope
func percussive(t0, peak float64, attack, decay time.Duration) *Param {
	gain := NewParam(0)
	gain.SetValueAtTime(0, t0)
	gain.LinearRampToValueAtTime(peak, t0+attack.Seconds())
	gain.ExponentialRampToValueAtTime(constant.EnvelopeFloor, t0+decay.Seconds())
	return gain
}

// spawn registers a voice on g starting at frame start and lasting d
func (s *Synth) spawn(g *Graph, v *Voice, start int64, d time.Duration) {
	v.start = start
	v.end = start + g.frames(d)
	g.AddVoice(v)
	s.spawned.Add(1)
}

// Kick plays a sine sweep through a resonant low-pass
func (s *Synth) Kick(intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.target()
	if g == nil {
		return
	}

	start := g.Frame()
	t0 := g.Now()

	osc := NewOscillator(WaveSine, constant.KickStartFreq)
	osc.Freq.SetValueAtTime(constant.KickStartFreq, t0)
	osc.Freq.ExponentialRampToValueAtTime(constant.KickEndFreq, t0+constant.KickSweep.Seconds())

	s.spawn(g, &Voice{
		Kind:     core.VoiceKick,
		Send:     core.SendKick,
		src:      osc,
		filter:   NewBiquad(FilterLowPass, constant.KickFilterFreq, constant.KickFilterQ, g.sampleRate),
		gain:     percussive(t0, constant.KickPeak*intensity, constant.KickAttack, constant.KickDuration),
		dryLevel: constant.KickDry,
		wetLevel: constant.KickWet,
	}, start, constant.KickDuration)
}

// Snare plays a band-passed noise burst layered with a falling triangle
func (s *Synth) Snare(intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.target()
	if g == nil {
		return
	}

	start := g.Frame()
	t0 := g.Now()

	noise := NewNoiseBuffer(s.rng, int(g.frames(constant.SnareNoiseLength)), constant.SnareNoiseCurve)
	s.spawn(g, &Voice{
		Kind:     core.VoiceSnareNoise,
		Send:     core.SendSnare,
		src:      &bufferSource{data: noise},
		filter:   NewBiquad(FilterBandPass, constant.SnareFilterFreq, constant.SnareFilterQ, g.sampleRate),
		gain:     percussive(t0, constant.SnareNoisePeak*intensity, constant.SnareNoiseAttack, constant.SnareNoiseDecay),
		dryLevel: constant.SnareNoiseDry,
		wetLevel: constant.SnareNoiseWet,
	}, start, constant.SnareNoiseLength)

	tone := NewOscillator(WaveTriangle, constant.SnareToneStartFreq)
	tone.Freq.SetValueAtTime(constant.SnareToneStartFreq, t0)
	tone.Freq.ExponentialRampToValueAtTime(constant.SnareToneEndFreq, t0+constant.SnareToneDuration.Seconds())

	s.spawn(g, &Voice{
		Kind:     core.VoiceSnareTone,
		Send:     core.SendSnare,
		src:      tone,
		gain:     percussive(t0, constant.SnareTonePeak*intensity, constant.SnareToneAttack, constant.SnareToneDuration),
		dryLevel: constant.SnareToneDry,
		wetLevel: constant.SnareToneWet,
	}, start, constant.SnareToneDuration)
}

// HiHat plays high-passed noise; open hats ring longer with more reverb
func (s *Synth) HiHat(open bool, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.target()
	if g == nil {
		return
	}

	start := g.Frame()
	t0 := g.Now()

	kind := core.VoiceHihatClosed
	length, curve, decay := constant.HihatClosedLength, constant.HihatClosedCurve, constant.HihatClosedDecay
	peak, dry, wet := constant.HihatClosedPeak, constant.HihatClosedDry, constant.HihatClosedWet
	if open {
		kind = core.VoiceHihatOpen
		length, curve, decay = constant.HihatOpenLength, constant.HihatOpenCurve, constant.HihatOpenDecay
		peak, dry, wet = constant.HihatOpenPeak, constant.HihatOpenDry, constant.HihatOpenWet
	}

	noise := NewNoiseBuffer(s.rng, int(g.frames(length)), curve)
	s.spawn(g, &Voice{
		Kind:     kind,
		Send:     core.SendHihat,
		src:      &bufferSource{data: noise},
		filter:   NewBiquad(FilterHighPass, constant.HihatFilterFreq, constant.HihatFilterQ, g.sampleRate),
		gain:     percussive(t0, peak*intensity, constant.HihatAttack, decay),
		dryLevel: dry,
		wetLevel: wet,
	}, start, length)
}

// Bass plays a low-passed sawtooth held for d
func (s *Synth) Bass(freq float64, d time.Duration, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.target()
	if g == nil {
		return
	}
	if d <= 0 {
		d = constant.BassDuration
	}

	start := g.Frame()
	t0 := g.Now()
	end := t0 + d.Seconds()

	gain := NewParam(0)
	gain.SetValueAtTime(0, t0)
	gain.LinearRampToValueAtTime(constant.BassPeak*intensity, t0+constant.BassAttack.Seconds())
	gain.LinearRampToValueAtTime(constant.BassSustain*intensity, end-constant.BassTail.Seconds())
	gain.ExponentialRampToValueAtTime(constant.EnvelopeFloor, end)

	s.spawn(g, &Voice{
		Kind:     core.VoiceBass,
		Send:     core.SendSynth,
		src:      NewOscillator(WaveSaw, freq),
		filter:   NewBiquad(FilterLowPass, constant.BassFilterFreq, constant.BassFilterQ, g.sampleRate),
		gain:     gain,
		dryLevel: constant.BassDry,
		wetLevel: constant.BassWet,
	}, start, d)
}

// Lead plays a low-passed square starting delay after now
func (s *Synth) Lead(freq float64, d, delay time.Duration, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.target()
	if g == nil {
		return
	}
	if d <= 0 {
		d = constant.LeadDuration
	}
	if delay < 0 {
		delay = 0
	}

	start := g.Frame() + g.frames(delay)
	t0 := float64(start) / float64(g.sampleRate)

	s.spawn(g, &Voice{
		Kind:     core.VoiceLead,
		Send:     core.SendSynth,
		src:      NewOscillator(WaveSquare, freq),
		filter:   NewBiquad(FilterLowPass, constant.LeadFilterFreq, constant.LeadFilterQ, g.sampleRate),
		gain:     percussive(t0, constant.LeadPeak*intensity, constant.LeadAttack, d),
		dryLevel: constant.LeadDry,
		wetLevel: constant.LeadWet,
	}, start, d)
}

// Pad plays one slow-swelling sine voice per chord tone
func (s *Synth) Pad(chord []float64, d time.Duration, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.target()
	if g == nil {
		return
	}
	if d <= 0 {
		d = constant.PadDuration
	}

	start := g.Frame()
	t0 := g.Now()
	end := t0 + d.Seconds()

	for _, freq := range chord {
		gain := NewParam(0)
		gain.SetValueAtTime(0, t0)
		gain.LinearRampToValueAtTime(constant.PadPeak*intensity, t0+constant.PadAttack.Seconds())
		gain.LinearRampToValueAtTime(constant.PadSustain*intensity, end-constant.PadRelease.Seconds())
		gain.LinearRampToValueAtTime(0, end)

		s.spawn(g, &Voice{
			Kind:     core.VoicePad,
			Send:     core.SendPad,
			src:      NewOscillator(WaveSine, freq),
			filter:   NewBiquad(FilterLowPass, constant.PadFilterFreq, constant.PadFilterQ, g.sampleRate),
			gain:     gain,
			dryLevel: constant.PadDry,
			wetLevel: constant.PadWet,
		}, start, d)
	}
}
