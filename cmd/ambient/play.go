package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/core"
	"github.com/lixenwraith/ambient/music"
	"github.com/lixenwraith/ambient/status"
)

const (
	frameInterval = 33 * time.Millisecond
	meterWidth    = 40
	meterDecay    = 0.85 // Per-frame falloff of the displayed peak
)

var (
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	styleText    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleActive  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorTeal)
	stylePrompt  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleMuted   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleMeterLo = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleMeterMd = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleMeterHi = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// player is the terminal host: it owns the screen and forwards keys to the engine
type player struct {
	screen        tcell.Screen
	width, height int

	engine *music.Engine
	synth  *audio.Synth
	stats  *status.Registry
	sects  music.Arrangement
	state  music.State

	autoplay <-chan time.Time // Armed after the first interaction
	meter    float64
}

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var af audioFlags
	af.register(fs)
	autoplay := fs.Bool("autoplay", true, "start playback one second after the first key press")
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

	stats := status.NewRegistry()
	synth := audio.NewSynth(cfg, audio.WithSynthLogger(log.Default()), audio.WithStatus(stats))
	opts := []music.Option{music.WithLogger(log.Default()), music.WithStatus(stats)}
	if cfg.Seed != 0 {
		opts = append(opts, music.WithSeed(cfg.Seed))
	}
	engine, err := music.NewEngine(synth, opts...)
	if err != nil {
		return fault.Wrap(err, fmsg.With("create engine"))
	}
	defer engine.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("create screen", "No usable terminal."), ftag.With(kindTerminal))
	}
	if err := screen.Init(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("init screen", "Could not initialize the terminal."), ftag.With(kindTerminal))
	}
	core.SetCrashTerminal(screen)
	defer func() {
		core.SetCrashTerminal(nil)
		screen.Fini()
	}()

	p := &player{
		screen: screen,
		engine: engine,
		synth:  synth,
		stats:  stats,
		sects:  engine.Arrangement(),
		state:  engine.State(),
	}
	p.width, p.height = screen.Size()

	p.run(*autoplay)
	return nil
}

func (p *player) run(autoplay bool) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	states, cancel := p.engine.Subscribe()
	defer cancel()

	eventChan := make(chan tcell.Event, 100)
	core.Go(func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	})

	for {
		select {
		case ev := <-eventChan:
			if !p.handleInput(ev, autoplay) {
				return
			}

		case st, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			p.state = st

		case <-p.autoplay:
			p.autoplay = nil
			if !p.state.IsPlaying {
				p.engine.Start()
			}

		case <-ticker.C:
			p.updateMeter()
			p.draw()
		}
	}
}

// handleInput returns false when the player should exit
func (p *player) handleInput(ev tcell.Event, autoplay bool) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}

		first := !p.state.HasUserInteracted
		if first {
			p.engine.MarkInteracted()
		}

		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case ' ':
				p.autoplay = nil
				p.engine.TogglePlayPause()
				return true
			case 'm', 'M':
				p.engine.ToggleMute()
			}
		}

		if first && autoplay {
			p.autoplay = time.After(constant.AutoPlayDelay)
		}

	case *tcell.EventResize:
		p.width, p.height = p.screen.Size()
		p.screen.Sync()
	}

	return true
}

func (p *player) updateMeter() {
	var peak float64
	if g := p.synth.Graph(); g != nil && p.state.IsPlaying {
		peak = g.Peak()
	}
	if peak > p.meter {
		p.meter = peak
	} else {
		p.meter *= meterDecay
	}
}

func (p *player) draw() {
	p.screen.Clear()
	st := p.state

	y := 1
	p.drawText(2, y, "ambient", styleTitle)
	y += 2

	// Section strip with the playing section highlighted
	x := 2
	for i, sec := range p.sects {
		label := " " + sec.DisplayName() + " "
		style := styleDim
		if st.IsPlaying && i == sectionShown(st, p.sects) {
			style = styleActive
		}
		p.drawText(x, y, label, style)
		x += len(label) + 1
	}
	y += 2

	label := "Stopped"
	if st.IsPlaying {
		label = "Playing"
	}
	p.drawText(2, y, fmt.Sprintf("%-8s %s", label, st.CurrentSectionName), styleText)
	if st.IsMuted {
		p.drawText(2+9+len(st.CurrentSectionName)+2, y, "MUTED", styleMuted)
	}
	y++

	if st.IsPlaying {
		cur := p.sects[st.SectionIndex]
		p.drawText(2, y, fmt.Sprintf("Next bar %d/%d  Section %d/%d  Bar %d",
			st.BarInSection+1, cur.Bars, st.SectionIndex+1, len(p.sects), st.GlobalBar), styleDim)
	}
	y += 2

	p.drawMeter(2, y)
	y += 2

	if !st.HasUserInteracted {
		p.drawText(2, y, "Press any key to enable audio", stylePrompt)
	}
	y += 2

	for _, line := range p.stats.Lines() {
		if y >= p.height-3 {
			break
		}
		p.drawText(2, y, line, styleDim)
		y++
	}

	p.drawText(2, p.height-2, "space play/stop   m mute   q quit", styleDim)
	p.screen.Show()
}

// sectionShown maps the state indicator back to an arrangement index
func sectionShown(st music.State, a music.Arrangement) int {
	if st.BarInSection == 0 && st.GlobalBar > 0 {
		return (st.SectionIndex + len(a) - 1) % len(a)
	}
	return st.SectionIndex
}

func (p *player) drawMeter(x, y int) {
	filled := int(p.meter * meterWidth)
	if filled > meterWidth {
		filled = meterWidth
	}
	p.drawText(x, y, "[", styleDim)
	for i := 0; i < meterWidth; i++ {
		r, style := '·', styleDim
		if i < filled {
			r = '█'
			switch {
			case i >= meterWidth*9/10:
				style = styleMeterHi
			case i >= meterWidth*7/10:
				style = styleMeterMd
			default:
				style = styleMeterLo
			}
		}
		p.screen.SetContent(x+1+i, y, r, nil, style)
	}
	p.drawText(x+1+meterWidth, y, "]", styleDim)
}

func (p *player) drawText(x, y int, s string, style tcell.Style) {
	if y < 0 || y >= p.height {
		return
	}
	for i, r := range []rune(strings.TrimRight(s, "\n")) {
		if x+i >= p.width {
			return
		}
		p.screen.SetContent(x+i, y, r, nil, style)
	}
}
