package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
)

// pipeContext feeds s16le stereo to a system CLI player or OSS device
// A write failure switches to silent mode: rendering continues, output is dropped
type pipeContext struct {
	config *AudioConfig

	backend *BackendConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File // For direct OSS writes
	output  io.Writer

	streamer beep.Streamer

	running    atomic.Bool
	paused     atomic.Bool
	silentMode atomic.Bool

	stopChan chan struct{}
	errChan  chan error
	wg       sync.WaitGroup
}

func newPipeContext(cfg *AudioConfig) *pipeContext {
	return &pipeContext{
		config:   cfg,
		stopChan: make(chan struct{}),
		errChan:  make(chan error, 1),
	}
}

// Start launches the backend process and the writer loop
func (c *pipeContext) Start(s beep.Streamer) error {
	if c.running.Load() {
		return fmt.Errorf("pipe context already running")
	}
	c.streamer = s

	backend, err := DetectBackend(c.config.SampleRate, c.config.BufferSize)
	if err != nil {
		return err
	}
	c.backend = backend

	if backend.Type == BackendOSS {
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", backend.Path, err)
		}
		c.ossFile = f
		c.output = f
	} else {
		cmd := exec.Command(backend.Path, backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("%s stdin: %w", backend.Name, err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return fmt.Errorf("start %s: %w", backend.Name, err)
		}
		c.cmd = cmd
		c.stdin = stdin
		c.output = stdin

		c.wg.Add(1)
		core.Go(c.monitorProcess)
	}

	c.running.Store(true)
	c.wg.Add(1)
	core.Go(c.loop)
	return nil
}

// monitorProcess watches for subprocess exit
func (c *pipeContext) monitorProcess() {
	defer c.wg.Done()

	if err := c.cmd.Wait(); err != nil && c.running.Load() {
		c.silentMode.Store(true)
	}
}

// loop renders one buffer per tick, writing silence while paused to keep the pipe alive
func (c *pipeContext) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.BufferSize)
	defer ticker.Stop()

	frames := beep.SampleRate(c.config.SampleRate).N(c.config.BufferSize)
	samples := make([][2]float64, frames)
	outBytes := make([]byte, frames*constant.AudioBytesPerFrame)

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			if c.paused.Load() {
				clear(outBytes)
			} else {
				n, ok := c.streamer.Stream(samples)
				clear(samples[n:])
				floatToBytes(samples, outBytes)
				if !ok {
					c.paused.Store(true)
				}
			}

			if c.silentMode.Load() {
				continue
			}
			if _, err := c.output.Write(outBytes); err != nil {
				c.silentMode.Store(true)
				select {
				case c.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
			}
		}
	}
}

func (c *pipeContext) Resume() error {
	c.paused.Store(false)
	return nil
}

func (c *pipeContext) Suspend() error {
	c.paused.Store(true)
	return nil
}

// Close terminates the writer loop and the backend process
func (c *pipeContext) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}

	close(c.stopChan)

	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.ossFile != nil {
		c.ossFile.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}

	c.wg.Wait()
	close(c.errChan)
	return nil
}

func (c *pipeContext) Name() string {
	if c.backend == nil {
		return "pipe"
	}
	return c.backend.Name
}

// Errors returns the channel reporting the first pipe failure
// The channel is closed once the context is closed
func (c *pipeContext) Errors() <-chan error {
	return c.errChan
}

// floatToBytes converts limited stereo float frames to interleaved int16 LE bytes
func floatToBytes(in [][2]float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(int16(v*32767)))
		}
	}
}
