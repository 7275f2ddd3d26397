package noise

import (
	"errors"
	"strconv"
)

// ErrConfig is wrapped by every ConfigError.
var ErrConfig = errors.New("invalid noise configuration")

// ConfigError reports malformed or inverted noise bounds.
type ConfigError struct {
	// Option names the noise option being configured, e.g. "result-noise".
	Option string
	// Input is the raw bounds text, when the error came from parsing.
	Input  string
	Reason string
}

func (e *ConfigError) Error() string {
	s := e.Option
	if s == "" {
		s = "noise"
	}
	if e.Input != "" {
		s += " " + strconv.Quote(e.Input)
	}
	return s + ": " + e.Reason
}

func (e *ConfigError) Unwrap() error { return ErrConfig }
