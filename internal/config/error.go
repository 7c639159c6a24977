package config

import "errors"

var ErrMissingSetting = errors.New("required setting missing")

// ConfigurationError names the setting that failed validation.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return "[" + e.Setting + "] " + e.Reason
	}
	return "[" + e.Setting + "] must be defined in the application configuration"
}

func (e *ConfigurationError) Unwrap() error {
	return ErrMissingSetting
}
