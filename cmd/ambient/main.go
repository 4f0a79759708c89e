package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/core"
)

// Error kinds reported by the CLI
const (
	kindUsage    ftag.Kind = "usage"
	kindAudio    ftag.Kind = "audio_unavailable"
	kindOutput   ftag.Kind = "output_failed"
	kindConfig   ftag.Kind = "invalid_config"
	kindTerminal ftag.Kind = "terminal_failed"
)

var errUnknownCommand = errors.New("unknown command")

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"play", "interactive terminal player", runPlay},
	{"render", "render bars offline to a WAV file", runRender},
	{"export", "record bars to a Standard MIDI File", runExport},
	{"info", "print the arrangement", runInfo},
	{"tone", "play a test tone on the output device", runTone},
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	name, args := os.Args[1], os.Args[2:]
	if name == "-h" || name == "--help" || name == "help" {
		printUsage()
		return
	}

	err := dispatch(name, args)
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}

	log.Printf("ambient %s: %+v", name, err)
	fmt.Fprintf(os.Stderr, "ambient: %s\n", issue(err))
	if ftag.Get(err) == kindUsage {
		printUsage()
		os.Exit(2)
	}
	os.Exit(1)
}

func dispatch(name string, args []string) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(args)
		}
	}
	return fault.Wrap(errUnknownCommand,
		fmsg.WithDesc(fmt.Sprintf("unknown command %q", name), fmt.Sprintf("Unknown command %q.", name)),
		ftag.With(kindUsage),
	)
}

// issue returns the user-facing message, falling back to the error chain
func issue(err error) string {
	if msg := fmsg.GetIssue(err); msg != "" {
		return msg
	}
	return err.Error()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: ambient <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'ambient <command> -h' for command flags.\n")
}

// audioFlags are shared by every command that builds an audio configuration
type audioFlags struct {
	backend  string
	volume   int
	seed     int64
	sends    string
	debug    bool
	sampleHz int
	bufferMs int
}

func (f *audioFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.backend, "backend", "", "audio backend: speaker, pipe, null (env AMBIENT_AUDIO_BACKEND)")
	fs.IntVar(&f.volume, "volume", -1, "master volume 0-100 (env AMBIENT_MASTER_VOLUME)")
	fs.Int64Var(&f.seed, "seed", 0, "noise and lead-note seed, 0 = time based (env AMBIENT_SEED)")
	fs.StringVar(&f.sends, "sends", "", `reverb return levels as JSON, e.g. {"pad":0.5} (env AMBIENT_SEND_LEVELS)`)
	fs.IntVar(&f.sampleHz, "rate", 0, "sample rate in Hz (env AMBIENT_SAMPLE_RATE)")
	fs.IntVar(&f.bufferMs, "buffer", 0, "device buffer in milliseconds (env AMBIENT_BUFFER_MS)")
	fs.BoolVar(&f.debug, "debug", false, "write logs to logs/ambient.log")
}

// config loads the environment configuration and applies set flags on top
func (f *audioFlags) config() (*audio.AudioConfig, error) {
	cfg := audio.LoadAudioConfig()

	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.volume >= 0 {
		if f.volume > 100 {
			f.volume = 100
		}
		cfg.MasterVolume = float64(f.volume) / 100.0
	}
	if f.seed != 0 {
		cfg.Seed = f.seed
	}
	if f.sampleHz > 0 {
		cfg.SampleRate = f.sampleHz
	}
	if f.bufferMs > 0 {
		cfg.BufferSize = time.Duration(f.bufferMs) * time.Millisecond
	}
	if f.sends != "" {
		if err := cfg.ApplySendLevels(f.sends); err != nil {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("apply send levels", "Invalid -sends value: "+err.Error()),
				ftag.With(kindConfig),
			)
		}
	}
	return cfg, nil
}

// parse parses args into fs, tagging flag errors as usage errors
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fault.Wrap(err, fmsg.WithDesc("parse flags", err.Error()), ftag.With(kindUsage))
	}
	return nil
}
