// package shared defines shared helpers
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer],
// with timestamps enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true}
	return log.NewWithOptions(w, opts)
}

// ComponentLogger creates a child [log.Logger] tagged with a component name.
// Every layer of the client (socket, auth, sync, playlist) logs through one.
func ComponentLogger(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}

// ParseLogLevel maps a config string to a [log.Level], defaulting to info.
func ParseLogLevel(s string) log.Level {
	ll, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return ll
}

// GenerateID generates a new v4 [uuid.UUID] as a string.
// Used to correlate request log lines with their eventual responses.
func GenerateID() string {
	return uuid.New().String()
}
