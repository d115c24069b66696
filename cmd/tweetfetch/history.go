package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/journal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
)

const (
	targetWidth = 48
	errorWidth  = 40
)

func renderHistory(w io.Writer, runs []journal.Run) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Started", "Kind", "Target", "Status", "Excluded", "Duration", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			clip(r.Target, targetWidth),
			r.Status,
			r.Excluded,
			formatDuration(r.Duration()),
			clip(r.Error, errorWidth),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("%d runs", len(runs))})
	t.Render()
}

// clip cuts s to width terminal columns, keeping it on one line.
func clip(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}
