// Package ui formats terminal output for the delivery CLI
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

var styles = map[Level]struct {
	symbol string
	color  *color.Color
}{
	LevelError:   {"✗", color.New(color.FgRed, color.Bold)},
	LevelWarning: {"!", color.New(color.FgYellow, color.Bold)},
	LevelInfo:    {"→", color.New(color.FgCyan)},
	LevelSuccess: {"✓", color.New(color.FgGreen, color.Bold)},
}

// Message writes a single status line
func Message(w io.Writer, level Level, format string, args ...interface{}) {
	style := styles[level]
	style.color.Fprintf(w, "%s %s\n", style.symbol, fmt.Sprintf(format, args...))
}

// Success reports a completed step
func Success(w io.Writer, format string, args ...interface{}) {
	Message(w, LevelSuccess, format, args...)
}

// Info reports progress
func Info(w io.Writer, format string, args ...interface{}) {
	Message(w, LevelInfo, format, args...)
}

// Warn reports a problem that did not stop the command
func Warn(w io.Writer, format string, args ...interface{}) {
	Message(w, LevelWarning, format, args...)
}

// ErrorOptions describes a failure with optional hints
type ErrorOptions struct {
	Context string
	Problem string
	Hints   []string
}

// FormatError renders a failure block:
//
//	✗ DATABASE: failed to ping database: connection refused
//	  → Check database.dsn in delivery.yaml
func FormatError(opts ErrorOptions) string {
	var b strings.Builder
	style := styles[LevelError]

	if opts.Context != "" {
		style.color.Fprintf(&b, "%s %s: %s\n", style.symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		style.color.Fprintf(&b, "%s %s\n", style.symbol, opts.Problem)
	}

	hint := color.New(color.FgCyan)
	for _, h := range opts.Hints {
		hint.Fprintf(&b, "  → %s\n", h)
	}
	return b.String()
}

// Error writes a formatted failure
func Error(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}
