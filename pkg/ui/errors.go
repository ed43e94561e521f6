package ui

import "errors"

var (
	// ErrNoAnchor is returned by Mount when no anchor is given.
	ErrNoAnchor = errors.New("ui: mount anchor missing")

	// ErrNoComponent is returned by Mount when the root has no tree.
	ErrNoComponent = errors.New("ui: root component missing")
)
