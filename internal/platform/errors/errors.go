package apperrors

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyRunning     = errors.New("tracker already running")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrMalformedHistory   = errors.New("malformed history document")
	ErrUnknownConfigKey   = errors.New("unknown config key")
	ErrProbeUnavailable   = errors.New("window probe unavailable")
	ErrProjectionDisabled = errors.New("session index is disabled")
)
