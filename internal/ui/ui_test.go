package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"yes spelled out", "yes\n", false, true},
		{"uppercase yes", "Y\n", false, true},
		{"no", "n\n", true, false},
		{"anything else is no", "maybe\n", true, false},
		{"empty picks default true", "\n", true, true},
		{"empty picks default false", "\n", false, false},
		{"eof picks default", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := Confirm(strings.NewReader(tt.input), &out, "Proceed?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirm_HintFollowsDefault(t *testing.T) {
	var out bytes.Buffer
	_, err := Confirm(strings.NewReader("\n"), &out, "Proceed?", true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Y/n]")

	out.Reset()
	_, err = Confirm(strings.NewReader("\n"), &out, "Proceed?", false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[y/N]")
}

func TestColorHeadings_OnlyTouchesKnownHeadings(t *testing.T) {
	// Pin color output on so the replacements are observable even when the
	// test runs without a TTY.
	old := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = old })

	template := "Usage:\n  {{.UseLine}}\n\nFlags:\n{{.LocalFlags}}\nsomething else:"
	colored := ColorHeadings(template)

	assert.Contains(t, colored, Emphasis("Usage:"))
	assert.Contains(t, colored, Emphasis("Flags:"))
	assert.Contains(t, colored, "something else:")
	assert.NotContains(t, colored, Emphasis("something else:"))
}

func TestStartSpinner_StopWritesFinalStatus(t *testing.T) {
	var out bytes.Buffer
	stop := StartSpinner(&out, "Fetching...")
	stop(true)

	assert.Contains(t, out.String(), "Fetching...")
	assert.Contains(t, out.String(), "done")
}

func TestStartSpinner_FailureMarker(t *testing.T) {
	var out bytes.Buffer
	stop := StartSpinner(&out, "Fetching...")
	stop(false)

	assert.Contains(t, out.String(), "failed")
}

func TestStartSpinner_DoubleStopIsSafe(t *testing.T) {
	var out bytes.Buffer
	stop := StartSpinner(&out, "Working...")
	stop(true)
	before := out.Len()
	stop(true)
	assert.Equal(t, before, out.Len(), "second stop must not write again")
}
