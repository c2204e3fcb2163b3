package domain

import "errors"

var (
	ErrEmailRequired       = errors.New("email required")
	ErrAttendeeNotFound    = errors.New("attendee not found")
	ErrRegistryUnavailable = errors.New("no endpoints returned usable data")
	ErrGreetingUnavailable = errors.New("greeting unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrRenderFailed        = errors.New("render failed")
	ErrSheetRequired       = errors.New("sheet name required")
	ErrNoRows              = errors.New("no rows to import")
)
