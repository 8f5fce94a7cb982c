package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session and authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoStoredSession  = fmt.Errorf("no stored session")
	ErrLoginFailed      = fmt.Errorf("login failed")
	ErrSessionTimeout   = fmt.Errorf("session timed out")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Channel errors
	ErrChannelClosed = fmt.Errorf("channel closed")
	ErrDialFailed    = fmt.Errorf("failed to reach server")

	// Cache and state errors
	ErrUnknownTable  = fmt.Errorf("unknown table")
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrNoSuchKey     = fmt.Errorf("no such state key")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
