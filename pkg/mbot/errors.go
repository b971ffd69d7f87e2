package mbot

import "errors"

var (
	// ErrLinkUnavailable indicates the link is not open.
	ErrLinkUnavailable = errors.New("link unavailable")
)
