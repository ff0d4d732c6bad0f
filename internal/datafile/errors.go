package datafile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for caller errors such as an
	// unrecognised file name or already-compressed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedData is matched by every MalformedDataError.
	ErrMalformedData = errors.New("malformed data")

	// ErrUnsupportedVersion is matched by every UnsupportedVersionError.
	ErrUnsupportedVersion = errors.New("unsupported version")
)

// MalformedDataError reports XML that is not well formed, lacks the expected
// root element, or carries a missing or unparseable required attribute.
type MalformedDataError struct {
	Kind      Kind
	Attribute string
	Err       error
}

func (e *MalformedDataError) Error() string {
	msg := "malformed " + e.Kind.String()
	if e.Kind == KindUnknown {
		msg = "malformed data"
	}
	if e.Attribute != "" {
		msg += fmt.Sprintf(": attribute %q", e.Attribute)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

func (e *MalformedDataError) Is(target error) bool { return target == ErrMalformedData }

// UnsupportedVersionError reports a file whose battleScribeVersion is absent
// or older than the minimum the upgrader accepts.
type UnsupportedVersionError struct {
	Version string
	Minimum string
}

func (e *UnsupportedVersionError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("unsupported version: no battleScribeVersion found (minimum %s)", e.Minimum)
	}
	return fmt.Sprintf("unsupported version %s (minimum %s)", e.Version, e.Minimum)
}

func (e *UnsupportedVersionError) Is(target error) bool { return target == ErrUnsupportedVersion }
