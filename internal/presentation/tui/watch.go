package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// SnapshotSource returns the latest session snapshot.
type SnapshotSource func(ctx context.Context) (domain.Snapshot, error)

// Watcher prints the session status line every time it changes. On a
// terminal the line is redrawn in place; otherwise each change gets a line.
type Watcher struct {
	out      *termenv.Output
	w        io.Writer
	isTTY    bool
	interval time.Duration
}

// NewWatcher creates a Watcher writing to w, polling every interval.
func NewWatcher(w io.Writer, interval time.Duration) *Watcher {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	opts := []termenv.OutputOption{}
	if !isTTY {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &Watcher{
		out:      termenv.NewOutput(w, opts...),
		w:        w,
		isTTY:    isTTY,
		interval: interval,
	}
}

// Watch polls source until the session reaches a terminal phase or ctx is
// done, and returns the last snapshot seen.
func (wt *Watcher) Watch(ctx context.Context, source SnapshotSource) (domain.Snapshot, error) {
	ticker := time.NewTicker(wt.interval)
	defer ticker.Stop()

	var last domain.Snapshot
	var lastLine string
	for {
		snap, err := source(ctx)
		if err != nil {
			return last, err
		}
		last = snap

		if line := wt.line(snap); line != lastLine {
			wt.print(snap.Phase, line)
			lastLine = line
		}
		if snap.Terminal() {
			if wt.isTTY {
				fmt.Fprintln(wt.w)
			}
			return snap, nil
		}

		select {
		case <-ctx.Done():
			if wt.isTTY {
				fmt.Fprintln(wt.w)
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (wt *Watcher) line(snap domain.Snapshot) string {
	if snap.Request == nil {
		return snap.Phase.Status()
	}
	return fmt.Sprintf("%s  %s", Headline(*snap.Request), snap.Phase.Status())
}

func (wt *Watcher) print(phase domain.Phase, line string) {
	if !wt.isTTY {
		fmt.Fprintln(wt.w, line)
		return
	}

	color := "#818cf8"
	switch phase {
	case domain.PhaseSuccess:
		color = "#34d399"
	case domain.PhaseFailed:
		color = "#f87171"
	case domain.PhaseConfirm:
		color = "#fbbf24"
	}
	wt.out.ClearLine()
	fmt.Fprint(wt.w, "\r", wt.out.String(line).Foreground(wt.out.Color(color)))
}
