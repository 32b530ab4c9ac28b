// Package progress renders the per-case progress lines shown during a
// suite run. Progress is a human-facing side channel; the structured
// report never depends on it.
package progress

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// labelWidth is the column where results line up; case names are padded
// to it with dots.
const labelWidth = 40

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Printer receives per-case progress during a suite run. Start is called
// before a case executes; exactly one of Result (unscored) or Score
// (scored) follows.
type Printer interface {
	Start(name string)
	Result(passed bool)
	Score(awarded, possible float64)
}

// Console writes one line per case, dot-padded so results align.
type Console struct {
	Out io.Writer
}

func (c *Console) Start(name string) {
	pad := labelWidth - runewidth.StringWidth(name) + 1
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(c.Out, "%s %s ", name, strings.Repeat(".", pad))
}

func (c *Console) Result(passed bool) {
	if passed {
		fmt.Fprintln(c.Out, passStyle.Render("PASSED"))
	} else {
		fmt.Fprintln(c.Out, failStyle.Render("FAILED"))
	}
}

func (c *Console) Score(awarded, possible float64) {
	line := formatPoints(awarded) + " / " + formatPoints(possible)
	if awarded == possible {
		fmt.Fprintln(c.Out, passStyle.Render(line))
	} else {
		fmt.Fprintln(c.Out, failStyle.Render(line))
	}
}

// formatPoints renders whole values without a decimal part.
func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Discard is a Printer that drops everything.
type Discard struct{}

func (Discard) Start(string)          {}
func (Discard) Result(bool)           {}
func (Discard) Score(float64, float64) {}
