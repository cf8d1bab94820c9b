package commonerrors

import "errors"

var (
	ErrSessionInactive  = errors.New("session is not active")
	ErrBackpressure     = errors.New("outbound buffer full")
	ErrHubStopped       = errors.New("hub stopped")
	ErrUnsupportedFrame = errors.New("unsupported frame")
)
