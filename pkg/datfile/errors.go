package datfile

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed reports a container that violates the framing rules:
	// bad header magic, negative sizes, negative string lengths, missing
	// segments.
	ErrMalformed = errors.New("invalid DAT format")
	// ErrUnsupportedVersion reports a segment version outside the set the
	// active dialect permits. See VersionError.
	ErrUnsupportedVersion = errors.New("unsupported segment version")
	// ErrDialectMismatch reports a dialect-exclusive schema used with the
	// other dialect.
	ErrDialectMismatch = errors.New("segment not supported by dialect")
	// ErrTruncated reports fewer bytes than a primitive read requires.
	ErrTruncated = errors.New("truncated data")
	// ErrBoundsOverrun reports a strict close with the cursor past the
	// segment end.
	ErrBoundsOverrun = errors.New("segment bounds overrun")
	// ErrOverflow reports a length or count that does not fit its wire width.
	ErrOverflow = errors.New("value overflows wire width")

	ErrFrameOrder      = errors.New("segment closed out of order")
	ErrFrameClosed     = errors.New("segment already closed")
	ErrUnclosedSegment = errors.New("container closed with open segments")
	ErrClosed          = errors.New("container already closed")
)

// VersionError carries the offending version number.
type VersionError struct {
	Tag     Tag
	Dialect Dialect
	Version int16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s: %s version %d (%s dialect)", ErrUnsupportedVersion, e.Tag, e.Version, e.Dialect)
}

func (e *VersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// DialectError reports which schema was refused.
type DialectError struct {
	Tag     Tag
	Dialect Dialect
}

func (e *DialectError) Error() string {
	return fmt.Sprintf("%s: %s in %s dialect", ErrDialectMismatch, e.Tag, e.Dialect)
}

func (e *DialectError) Unwrap() error {
	return ErrDialectMismatch
}
