package session

import "errors"

var (
	// ErrClosed is returned by Start on a closed store.
	ErrClosed = errors.New("session: store closed")

	// ErrStarted is returned by Start when the store already runs.
	ErrStarted = errors.New("session: store already started")
)
