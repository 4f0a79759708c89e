package music

import (
	"errors"
	"io"
	"log"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
	"github.com/lixenwraith/ambient/status"
)

// voiceCall is one trigger received by fakeOutput
type voiceCall struct {
	at        time.Duration
	voice     string
	freq      float64
	chord     []float64
	d         time.Duration
	intensity float64
}

// fakeOutput records every trigger with its clock offset
type fakeOutput struct {
	clock *ManualClock

	mu       sync.Mutex
	calls    []voiceCall
	inits    int
	initErr  error
	playing  bool
	muted    bool
	stopAlls int
	closed   bool
}

func (f *fakeOutput) record(c voiceCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.at = f.clock.Now().Sub(epoch)
	f.calls = append(f.calls, c)
}

func (f *fakeOutput) Kick(i float64)  { f.record(voiceCall{voice: "kick", intensity: i}) }
func (f *fakeOutput) Snare(i float64) { f.record(voiceCall{voice: "snare", intensity: i}) }
func (f *fakeOutput) HiHat(open bool, i float64) {
	v := "hat"
	if open {
		v = "openhat"
	}
	f.record(voiceCall{voice: v, intensity: i})
}
func (f *fakeOutput) Bass(freq float64, d time.Duration, i float64) {
	f.record(voiceCall{voice: "bass", freq: freq, d: d, intensity: i})
}
func (f *fakeOutput) Lead(freq float64, d, _ time.Duration, i float64) {
	f.record(voiceCall{voice: "lead", freq: freq, d: d, intensity: i})
}
func (f *fakeOutput) Pad(chord []float64, d time.Duration, i float64) {
	f.record(voiceCall{voice: "pad", chord: append([]float64(nil), chord...), d: d, intensity: i})
}

func (f *fakeOutput) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return f.initErr
}
func (f *fakeOutput) SetPlaying(p bool) { f.mu.Lock(); f.playing = p; f.mu.Unlock() }
func (f *fakeOutput) SetMuted(m bool)   { f.mu.Lock(); f.muted = m; f.mu.Unlock() }
func (f *fakeOutput) StopAll() int      { f.mu.Lock(); f.stopAlls++; f.mu.Unlock(); return 0 }
func (f *fakeOutput) Close() error      { f.mu.Lock(); f.closed = true; f.mu.Unlock(); return nil }

func (f *fakeOutput) snapshot() []voiceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]voiceCall(nil), f.calls...)
}

// between returns calls with from <= at < to
func (f *fakeOutput) between(from, to time.Duration) []voiceCall {
	var out []voiceCall
	for _, c := range f.snapshot() {
		if c.at >= from && c.at < to {
			out = append(out, c)
		}
	}
	return out
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestEngine(t *testing.T) (*Engine, *fakeOutput, *ManualClock) {
	t.Helper()
	clock := NewManualClock(epoch)
	out := &fakeOutput{clock: clock}
	e, err := NewEngine(out, WithClock(clock), WithLogger(quietLogger()), WithSeed(1))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e, out, clock
}

func bars(n int) time.Duration {
	return time.Duration(n) * constant.BarDuration
}

// TestEngineSectionCycling verifies SectionIndex after whole sections of bars
func TestEngineSectionCycling(t *testing.T) {
	e, _, clock := newTestEngine(t)
	a := e.Arrangement()

	e.Start()
	played := 1
	for n := 1; n <= 2*len(a); n++ {
		target := a.StartBar(len(a))*((n-1)/len(a)) + a.StartBar((n-1)%len(a)+1)
		clock.Advance(bars(target - played))
		played = target

		st := e.State()
		if st.SectionIndex != n%len(a) || st.BarInSection != 0 {
			t.Errorf("After %d bars (%d sections): section %d bar %d, want section %d bar 0",
				target, n, st.SectionIndex, st.BarInSection, n%len(a))
		}
		if st.GlobalBar != target {
			t.Errorf("Expected global bar %d, got %d", target, st.GlobalBar)
		}
	}
}

// TestEngineStartPlusFourBars verifies the intro rolls into the verse
func TestEngineStartPlusFourBars(t *testing.T) {
	e, _, clock := newTestEngine(t)

	e.Start()
	clock.Advance(bars(3)) // Bars 2-4; Start played bar 1

	st := e.State()
	if st.SectionIndex != 1 || st.BarInSection != 0 {
		t.Errorf("Expected section 1 bar 0, got section %d bar %d", st.SectionIndex, st.BarInSection)
	}
	if st.CurrentSectionName != "Intro" {
		t.Errorf("Expected indicator on the last played section Intro, got %q", st.CurrentSectionName)
	}

	clock.Advance(bars(1))
	if st := e.State(); st.CurrentSectionName != "Verse" {
		t.Errorf("Expected indicator Verse after first verse bar, got %q", st.CurrentSectionName)
	}
}

// TestEngineFirstBarSynchronous verifies Start fires the pad and downbeat before returning
func TestEngineFirstBarSynchronous(t *testing.T) {
	e, out, clock := newTestEngine(t)
	e.Start()

	calls := out.snapshot()
	if len(calls) != 2 || calls[0].voice != "pad" || calls[1].voice != "kick" {
		t.Fatalf("Expected pad then kick at start, got %+v", calls)
	}
	if calls[0].d != constant.BarDuration {
		t.Errorf("Expected pad to last one bar, got %v", calls[0].d)
	}
	if !approxEq(calls[0].intensity, 0.6*0.8) {
		t.Errorf("Expected pad intensity 0.48, got %f", calls[0].intensity)
	}
	if out.inits != 1 {
		t.Errorf("Expected one Initialize, got %d", out.inits)
	}
	if clock.Pending() != 2 {
		t.Errorf("Expected one bar timer and one trigger timer, got %d", clock.Pending())
	}
}

// TestEngineChordBassPerBar verifies pads and bass follow their own cycles through a section
func TestEngineChordBassPerBar(t *testing.T) {
	e, out, clock := newTestEngine(t)
	a := e.Arrangement()

	e.Start()
	clock.Advance(bars(a.StartBar(4))) // Through the drop

	drop := a[3]
	for k := 0; k < drop.Bars; k++ {
		start := bars(a.StartBar(3) + k)
		var pad, bass *voiceCall
		for _, c := range out.between(start, start+constant.BarDuration) {
			c := c
			switch {
			case c.voice == "pad":
				pad = &c
			case c.voice == "bass" && c.at == start:
				bass = &c
			}
		}
		if pad == nil || bass == nil {
			t.Fatalf("Drop bar %d: missing pad or downbeat bass", k)
		}
		want := drop.Chord(k)
		for j := range want {
			if pad.chord[j] != want[j] {
				t.Errorf("Drop bar %d: chord %v, want %v", k, pad.chord, want)
				break
			}
		}
		if bass.freq != drop.BassNote(k) {
			t.Errorf("Drop bar %d: bass %f, want %f", k, bass.freq, drop.BassNote(k))
		}
	}
}

// TestEngineVerseBarPlan verifies trigger offsets and levels of an odd verse bar
func TestEngineVerseBarPlan(t *testing.T) {
	e, out, clock := newTestEngine(t)
	a := e.Arrangement()

	e.Start()
	clock.Advance(bars(a.StartBar(1) + 2)) // Verse bar 1 fully played

	start := bars(a.StartBar(1) + 1)
	beat := func(b float64) time.Duration { return time.Duration(b * float64(constant.BeatDuration)) }
	const i = 0.8

	want := []voiceCall{
		{at: 0, voice: "pad", intensity: i * 0.8},
		{at: 0, voice: "kick", intensity: i},
		{at: beat(0.5), voice: "hat", intensity: i * 0.6},
		{at: beat(1), voice: "snare", intensity: i * 0.8},
		{at: beat(1), voice: "lead", intensity: i * 0.7},
		{at: beat(1.5), voice: "hat", intensity: i * 0.4},
		{at: beat(2), voice: "kick", intensity: i * 0.8},
		{at: beat(2.5), voice: "hat", intensity: i * 0.5},
		{at: beat(3.5), voice: "hat", intensity: i * 0.3},
	}

	got := out.between(start, start+constant.BarDuration)
	if len(got) != len(want) {
		t.Fatalf("Expected %d triggers, got %d: %+v", len(want), len(got), got)
	}
	for k, w := range want {
		g := got[k]
		if g.at-start != w.at || g.voice != w.voice || !approxEq(g.intensity, w.intensity) {
			t.Errorf("Trigger %d: got %s@%v %.3f, want %s@%v %.3f", k, g.voice, g.at-start, g.intensity, w.voice, w.at, w.intensity)
		}
	}

	lead := got[4]
	chord := a[1].Chord(1)
	if lead.freq != chord[0]*2 && lead.freq != chord[1]*2 && lead.freq != chord[2]*2 {
		t.Errorf("Expected lead an octave above a chord tone, got %f", lead.freq)
	}
	if lead.d != 300*time.Millisecond {
		t.Errorf("Expected 300ms lead, got %v", lead.d)
	}
}

// TestEngineIntroBarPlan verifies intro bars omit off-beat hat and snare
func TestEngineIntroBarPlan(t *testing.T) {
	e, out, clock := newTestEngine(t)
	e.Start()
	clock.Advance(bars(1))

	var voices []string
	for _, c := range out.between(0, constant.BarDuration) {
		voices = append(voices, c.voice)
	}
	want := []string{"pad", "kick", "hat", "hat"}
	if len(voices) != len(want) {
		t.Fatalf("Expected %v, got %v", want, voices)
	}
	for k := range want {
		if voices[k] != want[k] {
			t.Errorf("Trigger %d: got %s, want %s", k, voices[k], want[k])
		}
	}
}

// TestEngineBuildupFill verifies the final buildup bar replaces the open hat with a snare fill
func TestEngineBuildupFill(t *testing.T) {
	e, out, clock := newTestEngine(t)
	a := e.Arrangement()
	buildup := a[2]

	e.Start()
	clock.Advance(bars(a.StartBar(3))) // Through the last buildup bar

	start := bars(a.StartBar(2) + buildup.Bars - 1)
	fill := time.Duration(3 * float64(constant.BeatDuration))

	var snares []voiceCall
	for _, c := range out.between(start, start+constant.BarDuration) {
		if c.voice == "openhat" {
			t.Errorf("Unexpected open hat in fill bar at %v", c.at-start)
		}
		if c.voice == "snare" && c.at-start >= fill {
			snares = append(snares, c)
		}
	}

	want := []struct {
		offset    time.Duration
		intensity float64
	}{
		{fill, 1.0},
		{fill + 100*time.Millisecond, 0.8},
		{fill + 200*time.Millisecond, 0.6},
	}
	if len(snares) != len(want) {
		t.Fatalf("Expected %d fill snares, got %d", len(want), len(snares))
	}
	for k, w := range want {
		if snares[k].at-start != w.offset || !approxEq(snares[k].intensity, w.intensity) {
			t.Errorf("Fill %d: got %v %.2f, want %v %.2f", k, snares[k].at-start, snares[k].intensity, w.offset, w.intensity)
		}
	}

	// Earlier buildup bars have no fill and no open hat
	early := bars(a.StartBar(2))
	for _, c := range out.between(early, early+constant.BarDuration) {
		if (c.voice == "snare" && c.at-early >= fill) || c.voice == "openhat" {
			t.Errorf("Unexpected %s at %v in first buildup bar", c.voice, c.at-early)
		}
	}
}

// TestEngineDropOpenHat verifies drop bars end with an open hat
func TestEngineDropOpenHat(t *testing.T) {
	e, out, clock := newTestEngine(t)
	a := e.Arrangement()

	e.Start()
	clock.Advance(bars(a.StartBar(3) + 1))

	start := bars(a.StartBar(3))
	found := false
	for _, c := range out.between(start, start+constant.BarDuration) {
		if c.voice == "openhat" {
			found = true
			if c.at-start != time.Duration(3*float64(constant.BeatDuration)) || !approxEq(c.intensity, 1.2*0.6) {
				t.Errorf("Open hat at %v intensity %.2f", c.at-start, c.intensity)
			}
		}
	}
	if !found {
		t.Error("Expected open hat on drop bar")
	}
}

// TestEngineStopCancelsTriggers verifies nothing fires after Stop
func TestEngineStopCancelsTriggers(t *testing.T) {
	e, out, clock := newTestEngine(t)

	e.Start()
	clock.Advance(constant.BeatDuration) // Mid-bar, plan still pending
	e.Stop()

	n := len(out.snapshot())
	clock.Advance(bars(8))

	if got := len(out.snapshot()); got != n {
		t.Errorf("Expected no triggers after Stop, got %d more", got-n)
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected no armed timers after Stop, got %d", clock.Pending())
	}
	if out.playing {
		t.Error("Expected output gate closed")
	}
	if out.stopAlls != 1 {
		t.Errorf("Expected one StopAll, got %d", out.stopAlls)
	}

	st := e.State()
	if st.IsPlaying || st.SectionIndex != 0 || st.BarInSection != 0 || st.GlobalBar != 0 {
		t.Errorf("Expected reset stopped transport, got %+v", st)
	}
}

// TestEngineRestartResets verifies a restart begins again at intro bar 0
func TestEngineRestartResets(t *testing.T) {
	e, out, clock := newTestEngine(t)

	e.Start()
	clock.Advance(bars(10))
	e.TogglePlayPause()
	if e.State().IsPlaying {
		t.Fatal("Expected toggle to stop")
	}

	// Calls at this instant include the bar played before the stop
	before := len(out.snapshot())
	e.TogglePlayPause()

	st := e.State()
	if !st.IsPlaying || st.CurrentSectionName != "Intro" || st.SectionIndex != 0 || st.BarInSection != 1 || st.GlobalBar != 1 {
		t.Errorf("Expected intro bar 0 played after restart, got %+v", st)
	}

	calls := out.snapshot()[before:]
	if len(calls) == 0 || calls[0].voice != "pad" {
		t.Fatalf("Expected pad at restart, got %+v", calls)
	}
	intro := e.Arrangement()[0].Chord(0)
	if calls[0].chord[0] != intro[0] {
		t.Errorf("Expected intro chord at restart, got %v", calls[0].chord)
	}
	if clock.Pending() != 2 {
		t.Errorf("Expected exactly one bar and one trigger timer, got %d", clock.Pending())
	}
}

// TestEngineMuteKeepsTransport verifies mute leaves the transport advancing
func TestEngineMuteKeepsTransport(t *testing.T) {
	e, out, clock := newTestEngine(t)

	e.Start()
	e.SetMuted(true)
	if !out.muted || !e.State().IsMuted {
		t.Fatal("Expected mute passed to output")
	}

	before := len(out.snapshot())
	clock.Advance(bars(4))

	st := e.State()
	if !st.IsPlaying || st.GlobalBar != 5 {
		t.Errorf("Expected transport running while muted, got %+v", st)
	}
	if len(out.snapshot()) <= before {
		t.Error("Expected triggers to continue while muted")
	}

	if muted := e.ToggleMute(); muted || out.muted {
		t.Error("Expected toggle to unmute")
	}
}

// TestEngineToggleMuteConcurrent verifies concurrent toggles never lose a flip
func TestEngineToggleMuteConcurrent(t *testing.T) {
	e, out, _ := newTestEngine(t)

	const toggles = 200
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.ToggleMute()
		}()
	}
	wg.Wait()

	out.mu.Lock()
	muted := out.muted
	out.mu.Unlock()
	if e.State().IsMuted || muted {
		t.Errorf("Expected unmuted after %d toggles, engine %v output %v", toggles, e.State().IsMuted, muted)
	}
}

// TestEngineInitFailureContinues verifies an unavailable output does not stop the transport
func TestEngineInitFailureContinues(t *testing.T) {
	e, out, clock := newTestEngine(t)
	out.initErr = errors.New("no device")

	e.Start()
	clock.Advance(bars(2))

	if st := e.State(); !st.IsPlaying || st.GlobalBar != 3 {
		t.Errorf("Expected transport running despite init failure, got %+v", st)
	}
}

// TestEngineSubscribe verifies state snapshots are delivered on change
func TestEngineSubscribe(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ch, cancel := e.Subscribe()
	defer cancel()

	e.MarkInteracted()
	st := <-ch
	if !st.HasUserInteracted || st.IsPlaying {
		t.Errorf("Expected interacted and stopped, got %+v", st)
	}

	e.Start()
	clock.Advance(bars(1))

	// Latest snapshot wins
	st = <-ch
	if !st.IsPlaying || st.GlobalBar != 2 {
		t.Errorf("Expected latest state at bar 2, got %+v", st)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("Expected channel closed after cancel")
	}
}

// TestEngineClose verifies Close stops, releases the output and ends subscriptions
func TestEngineClose(t *testing.T) {
	e, out, clock := newTestEngine(t)
	ch, _ := e.Subscribe()

	e.Start()
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !out.closed {
		t.Error("Expected output closed")
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected no armed timers, got %d", clock.Pending())
	}

	for range ch {
	}

	late, _ := e.Subscribe()
	if _, ok := <-late; ok {
		t.Error("Expected closed channel from closed engine")
	}
}

// TestNewEngineInvalidArrangement verifies validation at construction
func TestNewEngineInvalidArrangement(t *testing.T) {
	_, err := NewEngine(&fakeOutput{}, WithArrangement(Arrangement{{Kind: core.SectionIntro, Bars: 0}}))
	if !errors.Is(err, ErrInvalidArrangement) {
		t.Errorf("Expected ErrInvalidArrangement, got %v", err)
	}
}

// TestEngineWithSynth verifies graph reuse and silence against the real synth
func TestEngineWithSynth(t *testing.T) {
	cfg := audio.DefaultAudioConfig()
	cfg.Seed = 1
	synth := audio.NewSynth(cfg,
		audio.WithSynthLogger(quietLogger()),
		audio.WithContextFactory(func(*audio.AudioConfig) (audio.Context, error) {
			return audio.NewNullContext(), nil
		}),
	)

	clock := NewManualClock(epoch)
	e, err := NewEngine(synth, WithClock(clock), WithLogger(quietLogger()), WithSeed(1))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer e.Close()

	e.Start()
	g := synth.Graph()
	if g == nil {
		t.Fatal("Expected graph after Start")
	}
	if g.Voices() == 0 {
		t.Error("Expected first bar voices registered")
	}

	e.Stop()
	if g.Voices() != 0 {
		t.Errorf("Expected registry cleared by Stop, got %d", g.Voices())
	}

	// Triggers while stopped create nothing
	synth.Kick(1)
	synth.Pad([]float64{220, 261.63, 329.63}, 0, 1)
	if g.Voices() != 0 {
		t.Errorf("Expected no voices while stopped, got %d", g.Voices())
	}

	e.Start()
	if synth.Graph() != g {
		t.Error("Expected the same graph after restart")
	}

	e.SetMuted(true)
	if g.MasterGain() != 0 {
		t.Errorf("Expected muted master gain, got %f", g.MasterGain())
	}
}

func approxEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestEngineStatus verifies bar count and section label are published
func TestEngineStatus(t *testing.T) {
	reg := status.NewRegistry()
	clock := NewManualClock(epoch)
	out := &fakeOutput{clock: clock}
	e, err := NewEngine(out, WithClock(clock), WithLogger(quietLogger()), WithStatus(reg))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	e.Start()
	clock.Advance(bars(4))

	if got := reg.Ints.Get(MetricBars).Load(); got != 5 {
		t.Errorf("Expected 5 bars published, got %d", got)
	}
	if got := reg.Strings.Get(MetricSection).Load(); got != "Verse" {
		t.Errorf("Expected section Verse, got %q", got)
	}
	if got := reg.Ints.Get(MetricResyncs).Load(); got != 0 {
		t.Errorf("Expected no resyncs on a manual clock, got %d", got)
	}
}
