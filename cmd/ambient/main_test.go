package main

import (
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"

	"github.com/lixenwraith/ambient/core"
)

// TestDispatchUnknownCommand verifies unknown commands are usage errors with a readable issue
func TestDispatchUnknownCommand(t *testing.T) {
	err := dispatch("dance", nil)
	if err == nil {
		t.Fatal("Expected error for unknown command")
	}
	if ftag.Get(err) != kindUsage {
		t.Errorf("Expected usage kind, got %q", ftag.Get(err))
	}
	if got := issue(err); !strings.Contains(got, `"dance"`) {
		t.Errorf("Expected command name in issue, got %q", got)
	}
}

// TestAudioFlagsOverrideEnv verifies set flags win over environment values
func TestAudioFlagsOverrideEnv(t *testing.T) {
	t.Setenv("AMBIENT_AUDIO_BACKEND", "pipe")
	t.Setenv("AMBIENT_MASTER_VOLUME", "50")
	t.Setenv("AMBIENT_SEED", "7")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var af audioFlags
	af.register(fs)
	if err := parse(fs, []string{"-backend", "null", "-volume", "150", "-buffer", "20", "-sends", `{"pad":0.25}`}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg, err := af.config()
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if cfg.Backend != "null" {
		t.Errorf("Expected backend null, got %q", cfg.Backend)
	}
	if cfg.MasterVolume != 1.0 {
		t.Errorf("Expected volume clamped to 1.0, got %f", cfg.MasterVolume)
	}
	if cfg.Seed != 7 {
		t.Errorf("Expected env seed 7 kept, got %d", cfg.Seed)
	}
	if cfg.BufferSize != 20*time.Millisecond {
		t.Errorf("Expected 20ms buffer, got %v", cfg.BufferSize)
	}
	if cfg.SendLevels[core.SendPad] != 0.25 || cfg.SendLevels[core.SendKick] != 1.0 {
		t.Errorf("Unexpected send levels %v", cfg.SendLevels)
	}
}

// TestAudioFlagsInvalidSends verifies a bad send map is a config error
func TestAudioFlagsInvalidSends(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var af audioFlags
	af.register(fs)
	if err := parse(fs, []string{"-sends", `{"choir":1}`}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	_, err := af.config()
	if err == nil {
		t.Fatal("Expected error for unknown send")
	}
	if ftag.Get(err) != kindConfig {
		t.Errorf("Expected config kind, got %q", ftag.Get(err))
	}
}

// TestParseBadFlag verifies flag errors are tagged as usage
func TestParseBadFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(nopWriter{})
	err := parse(fs, []string{"-nope"})
	if ftag.Get(err) != kindUsage {
		t.Errorf("Expected usage kind, got %q (%v)", ftag.Get(err), err)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
