package generator

import "errors"

var (
	// ErrNoCharsetEnabled is returned when a change would leave every charset disabled.
	ErrNoCharsetEnabled = errors.New("at least one charset must be enabled")

	// ErrUnknownCharset is returned when a charset name or value is not recognized.
	ErrUnknownCharset = errors.New("unknown charset")
)
