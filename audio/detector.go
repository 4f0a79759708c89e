package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// pipeSink is a CLI player that reads raw s16le stereo from stdin
type pipeSink struct {
	typ  BackendType
	tool string
	args func(rate, ms string) []string
}

// pipeSinks lists candidates in preference order
var pipeSinks = []pipeSink{
	{BackendPulse, "pacat", func(rate, ms string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=" + ms, "--playback"}
	}},
	{BackendPipeWire, "pw-cat", func(rate, ms string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + rate, "--channels=2", "--latency=" + ms + "ms", "-"}
	}},
	{BackendALSA, "aplay", func(rate, _ string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q"}
	}},
	{BackendSoX, "play", func(rate, _ string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rate, "-", "-d", "-q"}
	}},
	{BackendFFplay, "ffplay", func(rate, _ string) []string {
		return []string{"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", rate,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet"}
	}},
}

// Lookup hooks, replaced in tests
var (
	lookPath = exec.LookPath
	statFile = os.Stat
)

const ossDevice = "/dev/dsp"

// DetectBackend picks the first CLI sink found on PATH for the given rate and latency
// FreeBSD falls back to writing the OSS device directly
func DetectBackend(sampleRate int, latency time.Duration) (*BackendConfig, error) {
	rate := strconv.Itoa(sampleRate)
	ms := strconv.Itoa(int(latency / time.Millisecond))

	for _, sink := range pipeSinks {
		path, err := lookPath(sink.tool)
		if err != nil {
			continue
		}
		return &BackendConfig{
			Type: sink.typ,
			Name: sink.typ.String(),
			Path: path,
			Args: sink.args(rate, ms),
		}, nil
	}

	if runtime.GOOS == "freebsd" {
		if _, err := statFile(ossDevice); err == nil {
			return &BackendConfig{Type: BackendOSS, Name: BackendOSS.String(), Path: ossDevice}, nil
		}
	}

	return nil, ErrNoAudioBackend
}
