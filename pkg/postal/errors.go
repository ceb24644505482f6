package postal

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad matches every *LoadError.
	ErrLoad = errors.New("address model failed to load")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("address cannot be segmented")
	// ErrEngineDisabled is returned when the engine is turned off and the fallback is not allowed.
	ErrEngineDisabled = errors.New("address engine disabled and fallback not allowed")
	// ErrClosed is returned by operations on a closed Postal.
	ErrClosed = errors.New("postal instance closed")
)

// LoadError reports a failed engine load together with the configuration it was attempted with.
type LoadError struct {
	GlobalDir  string
	CountryDir string
	Languages  []string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load address model (global=%q country=%q languages=%v): %v",
		e.GlobalDir, e.CountryDir, e.Languages, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) true for any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ParseError reports input that not even the primitive parser can segment.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
