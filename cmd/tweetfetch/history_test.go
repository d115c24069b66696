package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/journal"

	"github.com/mattn/go-runewidth"
)

func TestClip(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 40, "line one line two"},
		{"https://twitter.com/a_rather_long_handle/verified_followers", 20, ""},
		{"東京から大阪までの旅行", 9, ""},
	}
	for _, tc := range cases {
		got := clip(tc.in, tc.width)
		if runewidth.StringWidth(got) > tc.width {
			t.Fatalf("clip(%q, %d) = %q is %d columns wide", tc.in, tc.width, got, runewidth.StringWidth(got))
		}
		if tc.want != "" && got != tc.want {
			t.Fatalf("clip(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if tc.want == "" && !strings.HasSuffix(got, "…") {
			t.Fatalf("clip(%q) = %q, want an ellipsis", tc.in, got)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	start := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	runs := []journal.Run{
		{Kind: "tweets", Target: "https://twitter.com/jack", Status: journal.StatusSucceeded, StartedAt: start, FinishedAt: start.Add(2340 * time.Millisecond)},
		{Kind: "followers", Target: "https://twitter.com/jack/verified_followers", Status: journal.StatusFailed, Error: "transient error from hyperbrowser", StartedAt: start},
	}
	var buf bytes.Buffer
	renderHistory(&buf, runs)
	out := buf.String()
	for _, want := range []string{"KIND", "tweets", "followers", "2.3s", "transient error", "2 RUNS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(0); got != "-" {
		t.Fatalf("formatDuration(0) = %q", got)
	}
	if got := formatDuration(1549 * time.Millisecond); got != "1.5s" {
		t.Fatalf("formatDuration = %q", got)
	}
}
