package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/pable/go-pong-stats/internal/carousel"
)

var (
	cBadge = color.New(color.FgBlack, color.BgYellow, color.Bold)
	cError = color.New(color.FgRed, color.Bold)
	cDot   = color.New(color.FgCyan, color.Bold)
)

const progressWidth = 40

// PrintFrame writes the whole carousel screen: header, slide, progress
// bar, dots and, when open, the player picker.
func PrintFrame(w io.Writer, f carousel.Frame) {
	if f.Err != nil {
		printError(w, f.Err)
		return
	}
	if f.Payload == nil {
		fmt.Fprintln(w, cMuted.Sprint("Loading dashboard…"))
		return
	}

	st := f.State
	fmt.Fprintf(w, "%s  %s  %s", cTitle.Sprint(f.Payload.TournamentName), f.Kind.Title(), cMuted.Sprintf("%d/%d", st.Slide+1, st.Slides))
	if st.Paused {
		fmt.Fprintf(w, "  %s", cBadge.Sprint(" PAUSED "))
	}
	fmt.Fprint(w, "\n\n")

	PrintSlide(w, f.View())

	fmt.Fprintln(w)
	fmt.Fprintln(w, bar(st.Progress, progressWidth, '━', '─'))
	fmt.Fprintln(w, dots(st.Slide, st.Slides))

	if st.PickerOpen {
		fmt.Fprintln(w)
		printPicker(w, f.Picker)
		return
	}
	fmt.Fprintln(w, cMuted.Sprint("←/→ navigate  space pause  p players  q quit"))
}

func dots(current, n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i == current {
			parts = append(parts, cDot.Sprint("●"))
		} else {
			parts = append(parts, cMuted.Sprint("○"))
		}
	}
	return strings.Join(parts, " ")
}

const pickerColumns = 4

func printPicker(w io.Writer, entries []carousel.PickerEntry) {
	fmt.Fprintln(w, cTitle.Sprint("Pick a player"))
	if len(entries) == 0 {
		fmt.Fprintln(w, cMuted.Sprint("No players yet."))
	}
	cellWidth := 0
	for _, e := range entries {
		cellWidth = max(cellWidth, runewidth.StringWidth(e.Name)+6)
	}
	for i, e := range entries {
		mark := " "
		if e.Featured {
			mark = "*"
		}
		cell := fmt.Sprintf("[%c]%s%s", e.Label, mark, e.Name)
		fmt.Fprint(w, runewidth.FillRight(cell, cellWidth))
		if (i+1)%pickerColumns == 0 || i == len(entries)-1 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w, cMuted.Sprint("Press P or Esc to close"))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, cError.Sprint("Could not load the dashboard"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, err.Error())
	fmt.Fprintln(w)
	fmt.Fprintln(w, cMuted.Sprint("press q to quit"))
}

// sideBySide joins two blocks of lines into columns separated by gap spaces.
func sideBySide(left, right string, gap int) string {
	l := strings.Split(strings.TrimRight(left, "\n"), "\n")
	r := strings.Split(strings.TrimRight(right, "\n"), "\n")
	if right == "" {
		r = nil
	}
	width := 0
	for _, line := range l {
		width = max(width, runewidth.StringWidth(line))
	}
	var b strings.Builder
	for i := 0; i < max(len(l), len(r)); i++ {
		var a, c string
		if i < len(l) {
			a = l[i]
		}
		if i < len(r) {
			c = r[i]
		}
		if c == "" {
			b.WriteString(a)
		} else {
			b.WriteString(runewidth.FillRight(a, width))
			b.WriteString(strings.Repeat(" ", gap))
			b.WriteString(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// TerminalRenderer redraws the screen for every changed frame.
type TerminalRenderer struct {
	w    io.Writer
	raw  bool
	last string
}

// NewTerminalRenderer writes frames to w. In raw mode newlines are sent
// as CRLF because the terminal no longer translates them.
func NewTerminalRenderer(w io.Writer, raw bool) *TerminalRenderer {
	return &TerminalRenderer{w: w, raw: raw}
}

func (r *TerminalRenderer) Render(f carousel.Frame) error {
	var buf bytes.Buffer
	PrintFrame(&buf, f)
	out := buf.String()
	if out == r.last {
		return nil
	}
	r.last = out
	if r.raw {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	_, err := io.WriteString(r.w, "\x1b[H\x1b[2J"+out)
	return err
}
