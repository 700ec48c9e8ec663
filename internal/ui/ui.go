// Package ui holds the terminal presentation helpers: colors, the spinner,
// and the confirmation prompt.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	accentColor  = color.New(color.FgCyan)
	mutedColor   = color.New(color.Faint)
	boldColor    = color.New(color.Bold)
)

// Success renders s in the success style.
func Success(s string) string { return successColor.Sprint(s) }

// Warn renders s in the warning style.
func Warn(s string) string { return warnColor.Sprint(s) }

// Accent renders s in the accent style.
func Accent(s string) string { return accentColor.Sprint(s) }

// Muted renders s dimmed.
func Muted(s string) string { return mutedColor.Sprint(s) }

// Emphasis renders s bold.
func Emphasis(s string) string { return boldColor.Sprint(s) }

// ColorHeadings boldens the section headings of a cobra usage template.
func ColorHeadings(template string) string {
	for _, heading := range []string{
		"Usage:", "Aliases:", "Examples:", "Available Commands:",
		"Flags:", "Global Flags:", "Additional help topics:",
	} {
		template = strings.ReplaceAll(template, heading, Emphasis(heading))
	}
	return template
}

// StartSpinner prints a lightweight ASCII spinner until the returned stop
// function is called. The stop function replaces the spinner line with a
// done or fail marker; calling it more than once is harmless.
func StartSpinner(w io.Writer, message string) func(success bool) {
	frames := []rune{'|', '/', '-', '\\'}
	done := make(chan struct{})
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		idx := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %c", message, frames[idx])
				idx = (idx + 1) % len(frames)
			}
		}
	}()
	var once sync.Once
	return func(success bool) {
		once.Do(func() {
			close(done)
			<-idle
			status := Success("done")
			if !success {
				status = Warn("failed")
			}
			fmt.Fprintf(w, "\r%s %s\n", message, status)
		})
	}
}

// Confirm prompts on w and reads a y/n answer from r. Empty input selects def.
func Confirm(r io.Reader, w io.Writer, prompt string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	fmt.Fprintf(w, "%s %s ", prompt, hint)

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, err
		}
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
