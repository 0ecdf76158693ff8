package config

import (
	"fmt"
	"os"
)

// Exit codes shared by the command entry points.
const (
	ExitFailure       = 1
	ExitUnrecoverable = 3
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	ExitWithCode(ExitFailure, format, args...)
}

// ExitWithCode writes a formatted error message to stderr and exits with code.
// Battles that end in an unrecoverable state use ExitUnrecoverable so hosts can
// tell a broken save apart from an ordinary failure.
func ExitWithCode(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
