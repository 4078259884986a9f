package core

import "errors"

// Error taxonomy. The dispatcher resolves every one of these to a
// passthrough; they exist for reports, logs and tests.
var (
	ErrFormatMismatch    = errors.New("format mismatch")
	ErrTruncatedInput    = errors.New("truncated input")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMalformedInput    = errors.New("malformed input")
	ErrInputTooLarge     = errors.New("input too large")
)
