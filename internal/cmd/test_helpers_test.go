package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

// resetRootCmd resets the command state for test isolation.
// Package-level flag variables survive between executions, so every test
// that touches them must call this first.
func resetRootCmd(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	// Reset args to empty slice (not nil, which would use os.Args)
	rootCmd.SetArgs([]string{})
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	// Parsed --help and --version stick to the command and would hide
	// later runs.
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				f.Value.Set("false")
			}
		}
	}

	flagConfig, flagTemplates, flagOutput, flagValues, flagLogLevel = "", "", "", "", ""
	renderAll, renderStrict, renderNoRedact = false, false, false
	t.Cleanup(func() {
		flagConfig, flagTemplates, flagOutput, flagValues, flagLogLevel = "", "", "", "", ""
		renderAll, renderStrict, renderNoRedact = false, false, false
	})
	return buf
}

// executeCmd executes the root command with the given args and returns the output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := resetRootCmd(t)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

type exitCode int

// runExpectingExit runs fn with exit stubbed and color output captured. It
// returns the output and the exit status, or -1 if fn returned normally.
func runExpectingExit(t *testing.T, fn func()) (string, int) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	oldExit, oldOutput, oldNoColor := exit, color.Output, color.NoColor
	exit = func(code int) { panic(exitCode(code)) }
	color.Output = w
	color.NoColor = true
	defer func() {
		exit, color.Output, color.NoColor = oldExit, oldOutput, oldNoColor
	}()

	code := -1
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				c, ok := rec.(exitCode)
				if !ok {
					panic(rec)
				}
				code = int(c)
			}
		}()
		fn()
	}()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	r.Close()
	return buf.String(), code
}
