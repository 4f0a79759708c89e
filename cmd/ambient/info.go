package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lixenwraith/ambient/audio"
	"github.com/lixenwraith/ambient/constant"
	"github.com/lixenwraith/ambient/music"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var (
	infoTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AFAF"))
	infoHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
	infoCell   = lipgloss.NewStyle().PaddingRight(2)
	infoDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// noteName formats a MIDI note as name plus octave, e.g. A4
func noteName(n int) string {
	if n < 0 {
		return "-"
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}

// chordName labels a triad by its root, with m for a minor third
func chordName(chord [3]float64) string {
	root, third := audio.FreqNote(chord[0]), audio.FreqNote(chord[1])
	if root < 0 || third < 0 {
		return "?"
	}
	name := noteNames[root%12]
	if third-root == 3 {
		name += "m"
	}
	return fmt.Sprintf("%s%d", name, root/12-1)
}

// arrangementTable renders the sections as aligned columns
func arrangementTable(a music.Arrangement) string {
	headers := []string{"#", "Section", "Bars", "Start", "Intensity", "Chords", "Bass"}
	rows := make([][]string, len(a))
	for i, sec := range a {
		chords := make([]string, len(sec.Chords))
		for k, c := range sec.Chords {
			chords[k] = chordName(c)
		}
		bass := make([]string, len(sec.Bass))
		for k, f := range sec.Bass {
			bass[k] = noteName(audio.FreqNote(f))
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			sec.DisplayName(),
			fmt.Sprint(sec.Bars),
			fmt.Sprint(a.StartBar(i) + 1),
			fmt.Sprintf("%.1f", sec.Intensity),
			strings.Join(chords, " "),
			strings.Join(bass, " "),
		}
	}

	// Column widths from content
	widths := make([]int, len(headers))
	for c, h := range headers {
		widths[c] = lipgloss.Width(h)
		for _, row := range rows {
			widths[c] = max(widths[c], lipgloss.Width(row[c]))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for c, cell := range cells {
			parts[c] = infoCell.Width(widths[c] + 2).Render(style.Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{line(headers, infoHeader)}
	for _, row := range rows {
		lines = append(lines, line(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := parse(fs, args); err != nil {
		return err
	}

	a := music.DefaultArrangement()
	cycle := time.Duration(a.TotalBars()) * constant.BarDuration

	fmt.Println(infoTitle.Render("ambient arrangement"))
	fmt.Println(infoDim.Render(fmt.Sprintf("%.2f BPM, %d beats per bar, %v per bar, %d bars per cycle (%v)",
		music.Tempo(), constant.BeatsPerBar, constant.BarDuration, a.TotalBars(), cycle)))
	fmt.Println()
	fmt.Println(arrangementTable(a))
	return nil
}
