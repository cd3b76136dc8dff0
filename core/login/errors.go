package login

import "errors"

var (
	// ErrInvalidState is returned when a step is submitted for a session
	// already in a terminal status. The session is left untouched.
	ErrInvalidState = errors.New("session is in a terminal state")
	// ErrBusy is returned when another step for the same session is
	// already in flight. Steps for one session are strictly serialized.
	ErrBusy = errors.New("another step is in flight for this session")
	// ErrClosed is returned by every engine operation after Shutdown.
	ErrClosed = errors.New("login engine closed")

	// ErrNilStore and ErrNilProvider reject a half-configured engine at
	// construction.
	ErrNilStore    = errors.New("session store is required")
	ErrNilProvider = errors.New("provider is required")
)
