package music

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
	"github.com/lixenwraith/ambient/parameter"
	"github.com/lixenwraith/ambient/status"
)

// State is an observable snapshot of the engine
type State struct {
	IsPlaying          bool
	IsMuted            bool
	CurrentSection     core.SectionKind
	CurrentSectionName string
	HasUserInteracted  bool
	SectionIndex       int
	BarInSection       int
	GlobalBar          int
}

// trigger is one sub-bar voice event, offset from the bar start
type trigger struct {
	offset time.Duration
	fire   func()
}

// Engine schedules the arrangement on a bar clock and drives an Output
// All timer callbacks and transport operations are serialized by mu
// A generation counter turns callbacks from a previous session into no-ops
type Engine struct {
	out         Output
	clock       Clock
	logger      *log.Logger
	rng         *rand.Rand
	arrangement Arrangement

	mu         sync.Mutex
	transport  TransportState
	muted      bool
	interacted bool
	indicator  int // Section index shown to the host
	generation uint64

	barTimer Timer
	nextBar  time.Time

	plan      []trigger
	planStart time.Time
	planTimer Timer
	planToken uint64

	stats   *status.Registry
	bars    *atomic.Int64
	resyncs *atomic.Int64
	section *status.AtomicString

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
	closed  bool
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the real clock
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSeed seeds lead note selection
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithArrangement replaces the default arrangement
func WithArrangement(a Arrangement) Option {
	return func(e *Engine) { e.arrangement = a }
}

// WithStatus publishes transport counters to reg
func WithStatus(reg *status.Registry) Option {
	return func(e *Engine) { e.stats = reg }
}

// Metric keys published by the engine
const (
	MetricBars    = "music.bars"
	MetricResyncs = "music.resyncs"
	MetricSection = "music.section"
)

// NewEngine creates a stopped engine driving out
func NewEngine(out Output, opts ...Option) (*Engine, error) {
	e := &Engine{
		out:         out,
		clock:       RealClock(),
		logger:      log.Default(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		arrangement: DefaultArrangement(),
		subs:        make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.arrangement.Validate(); err != nil {
		return nil, err
	}

	if e.stats == nil {
		e.stats = status.NewRegistry()
	}
	e.bars = e.stats.Ints.Get(MetricBars)
	e.resyncs = e.stats.Ints.Get(MetricResyncs)
	e.section = e.stats.Strings.Get(MetricSection)
	return e, nil
}

// Arrangement returns the sections the engine cycles through
func (e *Engine) Arrangement() Arrangement {
	return e.arrangement
}

// Start initializes the output, resets to intro bar 0, plays the first bar
// synchronously and arms the bar timer
// An output initialization failure is logged; triggers then no-op
func (e *Engine) Start() {
	e.mu.Lock()
	e.startLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.publish(st)
}

func (e *Engine) startLocked() {
	if err := e.out.Initialize(); err != nil {
		e.logger.Printf("music: audio unavailable: %v", err)
	}

	e.cancelLocked()
	e.transport.Reset()
	e.transport.Playing = true
	e.out.SetPlaying(true)

	now := e.clock.Now()
	e.nextBar = now.Add(constant.BarDuration)
	e.playBarLocked(now)
	e.armBarLocked()

	e.logger.Printf("music: started, %d sections, %d bars per cycle", len(e.arrangement), e.arrangement.TotalBars())
}

// Stop halts the transport, cancels pending triggers and silences every voice
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.publish(st)
}

func (e *Engine) stopLocked() {
	wasPlaying := e.transport.Playing

	e.cancelLocked()
	e.transport.Reset()
	e.out.SetPlaying(false)
	stopped := e.out.StopAll()

	if wasPlaying {
		e.logger.Printf("music: stopped, %d voices cut", stopped)
	}
}

// cancelLocked invalidates the session and disarms both timers
func (e *Engine) cancelLocked() {
	e.generation++
	if e.barTimer != nil {
		e.barTimer.Stop()
		e.barTimer = nil
	}
	if e.planTimer != nil {
		e.planTimer.Stop()
		e.planTimer = nil
	}
	e.planToken++
	e.plan = nil
}

// TogglePlayPause stops when playing, otherwise starts from intro
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()
	if e.transport.Playing {
		e.stopLocked()
	} else {
		e.startLocked()
	}
	st := e.stateLocked()
	e.mu.Unlock()

	e.publish(st)
}

// SetMuted silences or restores the master output; the transport keeps running
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	changed := e.setMutedLocked(muted)
	st := e.stateLocked()
	e.mu.Unlock()

	if changed {
		e.publish(st)
	}
}

// ToggleMute flips mute, returns the new state
func (e *Engine) ToggleMute() bool {
	e.mu.Lock()
	muted := !e.muted
	e.setMutedLocked(muted)
	st := e.stateLocked()
	e.mu.Unlock()

	e.publish(st)
	return muted
}

// setMutedLocked applies mute to the output, reports whether it changed
func (e *Engine) setMutedLocked(muted bool) bool {
	changed := e.muted != muted
	e.muted = muted
	e.out.SetMuted(muted)
	return changed
}

// MarkInteracted records the first user interaction reported by the host
func (e *Engine) MarkInteracted() {
	e.mu.Lock()
	changed := !e.interacted
	e.interacted = true
	st := e.stateLocked()
	e.mu.Unlock()

	if changed {
		e.publish(st)
	}
}

// Close stops playback, releases the output and ends subscriptions
func (e *Engine) Close() error {
	e.mu.Lock()
	e.stopLocked()
	err := e.out.Close()
	e.mu.Unlock()

	e.subMu.Lock()
	e.closed = true
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subMu.Unlock()

	if err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// State returns the current snapshot
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	sec := e.arrangement[e.indicator]
	return State{
		IsPlaying:          e.transport.Playing,
		IsMuted:            e.muted,
		CurrentSection:     sec.Kind,
		CurrentSectionName: sec.DisplayName(),
		HasUserInteracted:  e.interacted,
		SectionIndex:       e.transport.SectionIndex,
		BarInSection:       e.transport.BarInSection,
		GlobalBar:          e.transport.GlobalBar,
	}
}

// Subscribe returns a channel receiving the latest state after every change
// Slow readers only see the newest snapshot; cancel releases the channel
func (e *Engine) Subscribe() (<-chan State, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	ch := make(chan State, 1)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			if _, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (e *Engine) publish(st State) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

// armBarLocked schedules the next bar at the drift-corrected deadline
func (e *Engine) armBarLocked() {
	gen := e.generation
	delay := e.nextBar.Sub(e.clock.Now())
	if delay < 0 {
		delay = 0
	}
	e.barTimer = e.clock.AfterFunc(delay, func() { e.onBar(gen) })
}

func (e *Engine) onBar(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || !e.transport.Playing {
		e.mu.Unlock()
		return
	}

	barStart := e.nextBar
	e.playBarLocked(barStart)

	now := e.clock.Now()
	e.nextBar = e.nextBar.Add(constant.BarDuration)
	maxBehind := constant.BarDuration * 2
	if now.Sub(e.nextBar) > maxBehind {
		e.logger.Printf("music: bar clock %v behind, resyncing", now.Sub(e.nextBar))
		e.resyncs.Add(1)
		e.nextBar = now.Add(constant.BarDuration)
	}
	e.armBarLocked()

	st := e.stateLocked()
	e.mu.Unlock()

	e.publish(st)
}

// playBarLocked triggers one bar starting at barStart and advances the transport
func (e *Engine) playBarLocked(barStart time.Time) {
	if !e.transport.Playing {
		return
	}

	// Triggers the previous bar did not reach fire now rather than overlap
	e.flushPlanLocked()

	e.indicator = e.transport.SectionIndex
	sec := e.arrangement[e.transport.SectionIndex]
	bar := e.transport.BarInSection
	chord := sec.Chord(bar)
	e.bars.Add(1)
	e.section.Store(sec.DisplayName())

	e.out.Pad(chord[:], constant.BarDuration, sec.Intensity*parameter.PadLevel)

	plan := e.barPlan(sec, bar)
	k := 0
	for k < len(plan) && plan[k].offset <= 0 {
		plan[k].fire()
		k++
	}
	e.plan = plan[k:]
	e.planStart = barStart
	e.armPlanLocked()

	e.transport.Advance(e.arrangement)
}

// barPlan builds the ordered sub-bar triggers for bar k of sec
func (e *Engine) barPlan(sec Section, k int) []trigger {
	i := sec.Intensity
	kind := sec.Kind
	chord := sec.Chord(k)
	bass := sec.BassNote(k)
	out := e.out

	var plan []trigger
	at := func(beats float64, f func()) {
		plan = append(plan, trigger{offset: time.Duration(beats * float64(constant.BeatDuration)), fire: f})
	}

	at(0, func() { out.Kick(i) })
	if kind == core.SectionDrop || kind == core.SectionBuildup {
		at(0, func() { out.Bass(bass, parameter.DownbeatBassDuration, i) })
	}

	if kind != core.SectionIntro {
		at(0.5, func() { out.HiHat(false, i*parameter.OffbeatHatLevel) })
		at(1, func() { out.Snare(i * parameter.BackbeatSnare) })
	}
	if kind == core.SectionVerse || kind == core.SectionDrop {
		at(1, func() {
			tone := chord[e.rng.Intn(len(chord))] * parameter.LeadOctave
			out.Lead(tone, parameter.LeadNoteDuration, 0, i*parameter.LeadLevel)
		})
	}

	at(1.5, func() { out.HiHat(false, i*parameter.SecondHatLevel) })

	if kind == core.SectionDrop || (kind == core.SectionVerse && k%2 == 1) {
		at(2, func() { out.Kick(i * parameter.SecondKickLevel) })
	}
	if kind == core.SectionDrop {
		at(2, func() { out.Bass(bass*parameter.SecondBassFactor, parameter.SecondBassDuration, i*parameter.SecondBassLevel) })
	}

	at(2.5, func() { out.HiHat(false, i*parameter.ThirdHatLevel) })

	if kind == core.SectionBuildup && k == sec.Bars-1 {
		fill := time.Duration(3 * float64(constant.BeatDuration))
		plan = append(plan,
			trigger{offset: fill, fire: func() { out.Snare(i) }},
			trigger{offset: fill + constant.FillSpacing, fire: func() { out.Snare(i * parameter.FillSecondLevel) }},
			trigger{offset: fill + 2*constant.FillSpacing, fire: func() { out.Snare(i * parameter.FillThirdLevel) }},
		)
	} else if kind == core.SectionDrop {
		at(3, func() { out.HiHat(true, i*parameter.OpenHatLevel) })
	}

	if kind == core.SectionDrop || kind == core.SectionVerse {
		at(3.5, func() { out.HiHat(false, i*parameter.LastHatLevel) })
	}

	sort.SliceStable(plan, func(a, b int) bool { return plan[a].offset < plan[b].offset })
	return plan
}

// armPlanLocked keeps exactly one timer pending for the next due trigger
func (e *Engine) armPlanLocked() {
	e.planToken++
	if len(e.plan) == 0 {
		e.planTimer = nil
		return
	}

	token := e.planToken
	delay := e.planStart.Add(e.plan[0].offset).Sub(e.clock.Now())
	if delay < 0 {
		delay = 0
	}
	e.planTimer = e.clock.AfterFunc(delay, func() { e.onPlan(token) })
}

func (e *Engine) onPlan(token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if token != e.planToken || !e.transport.Playing {
		return
	}

	now := e.clock.Now()
	for len(e.plan) > 0 && !e.planStart.Add(e.plan[0].offset).After(now) {
		t := e.plan[0]
		e.plan = e.plan[1:]
		t.fire()
	}
	e.armPlanLocked()
}

// flushPlanLocked fires whatever remains of the previous bar's plan
func (e *Engine) flushPlanLocked() {
	if e.planTimer != nil {
		e.planTimer.Stop()
		e.planTimer = nil
	}
	e.planToken++
	for _, t := range e.plan {
		t.fire()
	}
	e.plan = nil
}
