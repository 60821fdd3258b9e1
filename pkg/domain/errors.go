package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownParam is returned when a context operation targets an untracked field.
var ErrUnknownParam = errors.New("unknown parameter")

// ErrMissingConfig is returned when a required configuration entry is absent.
var ErrMissingConfig = errors.New("missing configuration")

// ErrUnsupportedSource is returned for ontology or database sources of an unknown kind.
var ErrUnsupportedSource = errors.New("unsupported source")

// ErrPatternNotFound is returned when a system utterance matches no known pattern.
var ErrPatternNotFound = errors.New("pattern not found")

// ErrUnknownIntent is returned when asked to render an intent without templates.
var ErrUnknownIntent = errors.New("unknown intent")

// ErrNoNLU is returned when a text turn arrives and no NLU is configured.
var ErrNoNLU = errors.New("no NLU defined for text-based interaction")

// ErrAgendaSampling is returned when no acceptable agenda could be sampled.
var ErrAgendaSampling = errors.New("agenda sampling exhausted")

// ErrNoPolicy is returned when the configured policy type is not supported.
var ErrNoPolicy = errors.New("unsupported policy")

// ConfigError reports a missing configuration key.
type ConfigError struct {
	Section string
	Key     string
}

func (e *ConfigError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("missing configuration: please provide %s", e.Key)
	}
	return fmt.Sprintf("missing configuration: please provide %s in %s", e.Key, e.Section)
}

func (e *ConfigError) Unwrap() error {
	return ErrMissingConfig
}
