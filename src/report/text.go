// Package report renders run reports for humans (text) and machines (JSON).
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cancelbot/src/orchestrator"
)

// DefaultErrorWidth bounds the error column of the text report.
const DefaultErrorWidth = 100

// Options configures the text report.
type Options struct {
	Color      bool
	Styles     *StyleConfig // DefaultStyles when nil
	ErrorWidth int
}

type cell struct {
	text  string
	style render
}

type table struct {
	header []string
	rows   [][]cell
}

func (t *table) add(cells ...cell) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(b *strings.Builder, p palette) {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = VisualWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if w := VisualWidth(c.text); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []cell) {
		var l strings.Builder
		for i, c := range cells {
			text := c.text
			if i < len(cells)-1 {
				text = Pad(text, widths[i]+2)
			}
			style := c.style
			if style == nil {
				style = plain
			}
			l.WriteString(style(text))
		}
		b.WriteString(strings.TrimRight(l.String(), " "))
		b.WriteString("\n")
	}

	head := make([]cell, len(t.header))
	for i, h := range t.header {
		head[i] = cell{text: h, style: p.header}
	}
	line(head)
	for _, row := range t.rows {
		line(row)
	}
}

// WriteText writes the human readable report.
func WriteText(w io.Writer, r *orchestrator.Report, opts Options) error {
	p := plainPalette()
	if opts.Color {
		styles := opts.Styles
		if styles == nil {
			styles = DefaultStyles()
		}
		p = styles.palette()
	}
	errWidth := opts.ErrorWidth
	if errWidth <= 0 {
		errWidth = DefaultErrorWidth
	}

	var b strings.Builder

	title := fmt.Sprintf("cancelbot run %s on branch %s", r.RunID, r.Branch)
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString(p.title(title) + "\n")
	b.WriteString(p.muted(fmt.Sprintf("started %s, took %s",
		r.StartedAt.UTC().Format(time.RFC3339), r.Duration.Round(time.Millisecond))) + "\n\n")

	backends := table{header: []string{"BACKEND", "STATE", "CANCELLED", "ERRORS", "TIME"}}
	for _, be := range r.Backends {
		state := cell{text: be.State.String(), style: p.success}
		if be.State != orchestrator.StateDone {
			state.style = p.warning
		}
		timing := cell{text: "-", style: p.muted}
		switch {
		case !be.Enabled:
			timing.text = "disabled"
		case be.State == orchestrator.StateDone:
			timing = cell{text: be.Duration.Round(time.Millisecond).String()}
		}
		errs := cell{text: strconv.Itoa(len(be.Errors))}
		if len(be.Errors) > 0 {
			errs.style = p.failure
		}
		backends.add(cell{text: be.Name}, state, cell{text: strconv.Itoa(len(be.Cancellations))}, errs, timing)
	}
	backends.write(&b, p)

	cancellations := r.Cancellations()
	b.WriteString("\n")
	if len(cancellations) == 0 {
		b.WriteString(p.muted("no builds cancelled") + "\n")
	} else {
		t := table{header: []string{"BACKEND", "REPO", "BUILD", "REASON", "OUTCOME"}}
		for _, c := range cancellations {
			outcome := cell{text: "cancelled", style: p.success}
			switch {
			case c.Err != nil:
				outcome = cell{text: Truncate("error: "+OneLine(c.Err.Error()), errWidth), style: p.failure}
			case c.DryRun:
				outcome = cell{text: "planned", style: p.muted}
			}
			reason := c.Reason
			if c.Job != "" {
				reason += " (" + c.Job + ")"
			}
			t.add(cell{text: c.Backend}, cell{text: c.Repo.String()},
				cell{text: "#" + strconv.FormatInt(c.Build.Number, 10)}, cell{text: reason}, outcome)
		}
		t.write(&b, p)
	}

	errTable := table{header: []string{"BACKEND", "REPO", "OP", "ERROR"}}
	for _, be := range r.Backends {
		for _, e := range be.Errors {
			repo := e.Repo.String()
			if e.Repo.Owner == "" {
				repo = "-"
			}
			errTable.add(cell{text: be.Name}, cell{text: repo}, cell{text: e.Op},
				cell{text: Truncate(OneLine(e.Err.Error()), errWidth), style: p.failure})
		}
	}
	if len(errTable.rows) > 0 {
		b.WriteString("\n")
		errTable.write(&b, p)
	}

	if r.TimedOut {
		b.WriteString("\n" + p.warning("timed out: backends not done were abandoned") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Write renders r in format, "text" or "json".
func Write(w io.Writer, r *orchestrator.Report, format string, opts Options) error {
	switch format {
	case "", "text":
		return WriteText(w, r, opts)
	case "json":
		return WriteJSON(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}
