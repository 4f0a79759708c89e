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

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/music"
)

// recordBars runs the engine against a MIDI recorder for bars bars
// Stops just before the next downbeat so no partial bar is captured
func recordBars(bars int, seed int64) (*music.Recorder, error) {
	clock := music.NewManualClock(time.Unix(0, 0))
	rec := music.NewRecorder(clock)

	opts := []music.Option{music.WithClock(clock), music.WithLogger(log.Default())}
	if seed != 0 {
		opts = append(opts, music.WithSeed(seed))
	}
	engine, err := music.NewEngine(rec, opts...)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("create engine"))
	}
	defer engine.Close()

	engine.Start()
	clock.Advance(time.Duration(bars)*constant.BarDuration - time.Millisecond)
	engine.Stop()

	return rec, nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	bars := fs.Int("bars", 32, "number of bars to record")
	out := fs.String("out", "ambient.mid", "output MIDI file")
	seed := fs.Int64("seed", 0, "lead-note seed, 0 = time based")
	debug := fs.Bool("debug", false, "write logs to logs/ambient.log")
	if err := parse(fs, args); err != nil {
		return err
	}

	if f := setupLogging(*debug); f != nil {
		defer f.Close()
	}

	if *bars < 1 {
		return fault.Wrap(fmt.Errorf("bars %d", *bars),
			fmsg.WithDesc("invalid bar count", "-bars must be at least 1."),
			ftag.With(kindUsage),
		)
	}

	rec, err := recordBars(*bars, *seed)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("create output", fmt.Sprintf("Cannot create %s.", *out)), ftag.With(kindOutput))
	}
	defer f.Close()

	if _, err := rec.WriteTo(f); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("write smf", fmt.Sprintf("Failed writing %s.", *out)), ftag.With(kindOutput))
	}

	fmt.Printf("Exported %d bars, %d notes at %.2f BPM to %s\n", *bars, len(rec.Events()), music.Tempo(), *out)
	return nil
}
