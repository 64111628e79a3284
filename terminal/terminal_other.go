//go:build !windows

package terminal

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
)

// getColorableWriter will return a writer that is capable
// of interpreting ANSI escape codes for terminal colors.
func getColorableWriter() io.Writer {
	return colorable.NewColorableStdout()
}

// supportsEscapeCodes returns true if console handles escape codes.
func supportsEscapeCodes() bool {
	return strings.ToLower(os.Getenv("TERM")) != "dumb"
}
