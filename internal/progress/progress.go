package progress

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/bpetrain/internal/trainer"
)

const defaultTermWidth = 80

// Line renders training progress. On a terminal it redraws a single status line,
// otherwise it logs each observation at info.
type Line struct {
	w       io.Writer
	fd      int
	tty     bool
	drawn   bool
	started time.Time
}

// NewLine writes to w, which is a terminal when fd refers to one.
func NewLine(w io.Writer, fd int) *Line {
	return &Line{w: w, fd: fd, tty: term.IsTerminal(fd), started: time.Now()}
}

// Observe satisfies trainer.Observer.
func (l *Line) Observe(p trainer.Progress) {
	elapsed := time.Since(l.started)
	if !l.tty {
		slog.Info("progress", "merges", p.Merges, "budget", p.Budget, "last", p.Last.String(), "freq", p.Freq, "elapsed", elapsed.Round(time.Millisecond))
		return
	}

	width, _, err := term.GetSize(l.fd)
	if err != nil || width <= 0 {
		width = defaultTermWidth
	}

	fmt.Fprint(l.w, "\033[1G", fit(render(p, elapsed), width), "\033[K")
	l.drawn = true
}

// Stop ends the status line so later output starts on a fresh line.
func (l *Line) Stop() {
	if l.drawn {
		fmt.Fprintln(l.w)
		l.drawn = false
	}
}

// fit keeps line narrower than width columns, leaving the cursor on the same row.
func fit(line string, width int) string {
	if runewidth.StringWidth(line) < width {
		return line
	}
	return runewidth.Truncate(line, max(width-1, 0), "")
}

func render(p trainer.Progress, elapsed time.Duration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "training %3.0f%% ", math.Floor(percent(p.Merges, p.Budget)))
	fmt.Fprintf(&sb, "(%d/%d merges", p.Merges, p.Budget)
	if p.Merges > 0 {
		fmt.Fprintf(&sb, ", last %q x%d", p.Last.String(), p.Freq)
	}
	fmt.Fprintf(&sb, ") [%s]", formatDuration(elapsed))
	return sb.String()
}

func percent(value, limit int) float64 {
	if limit > 0 {
		return math.Min(float64(value)/float64(limit)*100, 100)
	}
	return 0
}

// formatDuration limits the rendering of a time.Duration to 2 units
func formatDuration(d time.Duration) string {
	if d >= 100*time.Hour {
		return "99h+"
	}

	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}

	return d.Round(time.Second).String()
}
