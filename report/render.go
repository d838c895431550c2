package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultWidth = 80
	minBarWidth  = 10
)

var ansi = map[string]string{
	"skyblue": "\033[38;5;117m",
	"orange":  "\033[38;5;208m",
	"green":   "\033[32m",
	"red":     "\033[31m",
}

const ansiReset = "\033[0m"

// Renderer draws charts as text.
type Renderer struct {
	w     io.Writer
	width int
	color bool
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithWidth fixes the line width instead of asking the terminal.
func WithWidth(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.width = n
		}
	}
}

// WithColor turns ANSI colours on or off.
func WithColor(on bool) RendererOption {
	return func(r *Renderer) { r.color = on }
}

// NewRenderer writes charts to w, sized to the terminal when w is one.
func NewRenderer(w io.Writer, opts ...RendererOption) *Renderer {
	r := &Renderer{w: w, width: TerminalWidth(w)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TerminalWidth returns the column count of w if it is a terminal, else 80.
func TerminalWidth(w io.Writer) int {
	if IsTerminal(w) {
		if cols, _, err := term.GetSize(int(w.(*os.File).Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultWidth
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RenderAll draws the genre, borrowing and availability charts of src.
func (r *Renderer) RenderAll(src Source) error {
	charts, err := Charts(src)
	if err != nil {
		return err
	}
	for i, c := range charts {
		if i > 0 {
			if _, err := io.WriteString(r.w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(c); err != nil {
			return err
		}
	}
	return nil
}

// Render draws one chart: a pie when it has slices, bars otherwise.
func (r *Renderer) Render(c Chart) error {
	var sb strings.Builder
	sb.WriteString(c.Title + "\n")
	sb.WriteString(strings.Repeat("═", max(utf8.RuneCountInString(c.Title), 1)) + "\n")
	if c.Slices != nil {
		r.pie(&sb, c)
	} else {
		r.bars(&sb, c)
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

func (r *Renderer) bars(sb *strings.Builder, c Chart) {
	if len(c.Bars) == 0 {
		sb.WriteString("(no data)\n")
		return
	}

	labelWidth := utf8.RuneCountInString(c.XLabel)
	maxValue := 0
	for _, b := range c.Bars {
		labelWidth = max(labelWidth, utf8.RuneCountInString(b.Label))
		maxValue = max(maxValue, b.Value)
	}
	countWidth := len(fmt.Sprint(maxValue))
	barWidth := max(r.width-labelWidth-countWidth-4, minBarWidth)

	fmt.Fprintf(sb, "%-*s │ %s\n", labelWidth, c.XLabel, c.YLabel)
	color := r.paint(c, 0)
	for _, b := range c.Bars {
		n := 0
		if maxValue > 0 {
			n = b.Value * barWidth / maxValue
		}
		fmt.Fprintf(sb, "%-*s │ %s %d\n", labelWidth, b.Label, color(strings.Repeat("█", n)), b.Value)
	}
}

var pieFill = []string{"█", "░"}

func (r *Renderer) pie(sb *strings.Builder, c Chart) {
	if len(c.Slices) == 0 {
		sb.WriteString("(no data)\n")
		return
	}

	stripWidth := max(r.width-2, minBarWidth)
	total := 0
	for _, s := range c.Slices {
		total += s.Value
	}

	sb.WriteString("[")
	used := 0
	for i, s := range c.Slices {
		n := 0
		if total > 0 {
			n = s.Value * stripWidth / total
		}
		if i == len(c.Slices)-1 {
			n = stripWidth - used
		}
		used += n
		sb.WriteString(r.paint(c, i)(strings.Repeat(pieFill[i%len(pieFill)], n)))
	}
	sb.WriteString("]\n")

	labelWidth := 0
	for _, s := range c.Slices {
		labelWidth = max(labelWidth, utf8.RuneCountInString(s.Label))
	}
	for i, s := range c.Slices {
		marker := r.paint(c, i)(pieFill[i%len(pieFill)])
		fmt.Fprintf(sb, "%s %-*s %5.1f%% (%d)\n", marker, labelWidth, s.Label, s.Percent, s.Value)
	}
}

// paint returns a func that wraps text in the chart's i-th colour.
func (r *Renderer) paint(c Chart, i int) func(string) string {
	if !r.color || len(c.Colors) == 0 {
		return func(s string) string { return s }
	}
	code, ok := ansi[c.Colors[i%len(c.Colors)]]
	if !ok {
		return func(s string) string { return s }
	}
	return func(s string) string {
		if s == "" {
			return s
		}
		return code + s + ansiReset
	}
}
