package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/music"
)

// renderChunk bounds trigger timing error to one chunk of frames
const renderChunk = 64

var renderEpoch = time.Unix(0, 0)

// offlineStreamer pulls the graph faster than real time, advancing the
// manual clock to each chunk's first frame so due triggers land on it
type offlineStreamer struct {
	graph     *audio.Graph
	clock     *music.ManualClock
	rate      int
	remaining int
}

func newOfflineStreamer(g *audio.Graph, clock *music.ManualClock, frames int) *offlineStreamer {
	return &offlineStreamer{graph: g, clock: clock, rate: g.SampleRate(), remaining: frames}
}

func (s *offlineStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) && s.remaining > 0 {
		chunk := min(renderChunk, len(samples)-n, s.remaining)

		at := time.Duration(s.graph.Frame() * int64(time.Second) / int64(s.rate))
		if d := renderEpoch.Add(at).Sub(s.clock.Now()); d > 0 {
			s.clock.Advance(d)
		}

		got, gok := s.graph.Stream(samples[n : n+chunk])
		n += got
		s.remaining -= got
		if !gok || got == 0 {
			s.remaining = 0
			break
		}
	}
	return n, n > 0
}

func (s *offlineStreamer) Err() error {
	return s.graph.Err()
}

// offlineSession is an engine on a manual clock driving a graph with no device
type offlineSession struct {
	engine *music.Engine
	synth  *audio.Synth
	clock  *music.ManualClock
}

func newOfflineSession(cfg *audio.AudioConfig) (*offlineSession, error) {
	synth := audio.NewSynth(cfg,
		audio.WithSynthLogger(log.Default()),
		audio.WithContextFactory(func(*audio.AudioConfig) (audio.Context, error) {
			return audio.NewNullContext(), nil
		}),
	)

	clock := music.NewManualClock(renderEpoch)
	opts := []music.Option{music.WithClock(clock), music.WithLogger(log.Default())}
	if cfg.Seed != 0 {
		opts = append(opts, music.WithSeed(cfg.Seed))
	}
	engine, err := music.NewEngine(synth, opts...)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("create engine"))
	}

	return &offlineSession{engine: engine, synth: synth, clock: clock}, nil
}

// start begins playback and returns a streamer of exactly bars bars
func (s *offlineSession) start(bars int) (*offlineStreamer, error) {
	s.engine.Start()
	g := s.synth.Graph()
	if g == nil {
		return nil, fault.Wrap(audio.ErrGraphClosed,
			fmsg.WithDesc("offline graph missing", "Could not build the audio graph."),
			ftag.With(kindAudio),
		)
	}
	frames := g.Format().SampleRate.N(time.Duration(bars) * constant.BarDuration)
	return newOfflineStreamer(g, s.clock, frames), nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var af audioFlags
	af.register(fs)
	bars := fs.Int("bars", 32, "number of bars to render")
	out := fs.String("out", "ambient.wav", "output WAV file")
	if err := parse(fs, args); err != nil {
		return err
	}

	if f := setupLogging(af.debug); f != nil {
		defer f.Close()
	}

	if *bars < 1 {
		return fault.Wrap(fmt.Errorf("bars %d", *bars),
			fmsg.WithDesc("invalid bar count", "-bars must be at least 1."),
			ftag.With(kindUsage),
		)
	}

	cfg, err := af.config()
	if err != nil {
		return err
	}

	session, err := newOfflineSession(cfg)
	if err != nil {
		return err
	}
	defer session.engine.Close()

	src, err := session.start(*bars)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("create output", fmt.Sprintf("Cannot create %s.", *out)), ftag.With(kindOutput))
	}
	defer f.Close()

	start := time.Now()
	if err := wav.Encode(f, src, src.graph.Format()); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("encode wav", fmt.Sprintf("Failed writing %s.", *out)), ftag.With(kindOutput))
	}

	length := time.Duration(*bars) * constant.BarDuration
	log.Printf("render: %d bars in %v", *bars, time.Since(start))
	fmt.Printf("Rendered %d bars (%v) to %s\n", *bars, length, *out)
	return nil
}
