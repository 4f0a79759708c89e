package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gopxl/beep"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
)

func runTone(args []string) error {
	fs := flag.NewFlagSet("tone", flag.ContinueOnError)
	var af audioFlags
	af.register(fs)
	freq := fs.Float64("freq", constant.ToneFreq, "tone frequency in Hz")
	length := fs.Duration("length", constant.ToneDuration, "tone length")
	if err := parse(fs, args); err != nil {
		return err
	}

	if f := setupLogging(af.debug); f != nil {
		defer f.Close()
	}

	cfg, err := af.config()
	if err != nil {
		return err
	}

	tone, err := audio.NewTestTone(cfg, *freq, *length)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("build tone", "Invalid tone settings."), ftag.With(kindUsage))
	}

	ctx, err := audio.OpenContext(cfg)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("open backend", fmt.Sprintf("Unknown audio backend %q.", cfg.Backend)), ftag.With(kindConfig))
	}
	defer ctx.Close()

	done := make(chan struct{})
	if err := ctx.Start(beep.Seq(tone, beep.Callback(func() { close(done) }))); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("start backend", "No audio output device available."), ftag.With(kindAudio))
	}
	log.Printf("tone: %.1f Hz for %v on %s", *freq, *length, ctx.Name())
	fmt.Printf("Playing %.1f Hz for %v on %s\n", *freq, *length, ctx.Name())

	// Null backends never pull; bound the wait by the tone length plus device slack
	select {
	case <-done:
	case <-time.After(*length + time.Second):
	}
	return nil
}
