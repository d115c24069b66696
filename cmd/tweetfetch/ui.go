package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string

	out io.Writer
	tty bool
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
		out:   os.Stdout,
		tty:   term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// wait runs fn behind a spinner, or a plain status line when stdout is piped.
func (u *ui) wait(msg string, fn func() error) error {
	if !u.tty {
		fmt.Fprintln(u.out, u.dim(msg))
		return fn()
	}
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " " + msg
	spin.Start()
	err := fn()
	spin.Stop()
	return err
}

func (u *ui) okf(format string, a ...any) {
	fmt.Fprintf(u.out, "%s %s\n", u.ok("[OK]"), fmt.Sprintf(format, a...))
}

func (u *ui) infof(format string, a ...any) {
	fmt.Fprintf(u.out, "%s %s\n", u.info("[INFO]"), fmt.Sprintf(format, a...))
}

func (u *ui) warnf(format string, a ...any) {
	fmt.Fprintf(u.out, "%s %s\n", u.warn("[WARN]"), fmt.Sprintf(format, a...))
}

func helpTemplate(ui *ui) string {
	title := ui.title("tweetfetch")
	return fmt.Sprintf(`%s - fetch tweets and verified followers through a hosted browser

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Environment:
  HYPERBROWSER_API_KEY, PROXY_SERVER_URL, PROXY_SERVER_USERNAME, PROXY_SERVER_PASSWORD, PROFILE_ID
  (read from the environment, .env and .profile)

Examples:
  tweetfetch session
  tweetfetch all jack
  tweetfetch stop
  tweetfetch history --limit 20

`, title)
}
