package logger

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether the file is attached to an interactive
// terminal. Used to pick the pretty handler for interactive runs and the
// plain one for pipes and service logs.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
