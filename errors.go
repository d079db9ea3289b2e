package kanjidrill

import "errors"

var (
	// ErrIllustrationNotFound is returned when no stroke-order illustration
	// could be resolved for a character. Network failures and missing data
	// are reported the same way.
	ErrIllustrationNotFound = errors.New("illustration not found")

	// ErrStrokeCountUnavailable is returned when the stroke count of a
	// character could not be derived.
	ErrStrokeCountUnavailable = errors.New("stroke count unavailable")

	// ErrUnsupportedFormat is returned for output names with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrInvalidSortOrder is returned when parsing an unknown sort order name.
	ErrInvalidSortOrder = errors.New("invalid sort order")
)
