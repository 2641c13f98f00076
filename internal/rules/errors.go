package rules

import "fmt"

// ConfigurationError reports a rule source that could not be read or parsed.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rules: %v", e.Err)
	}
	return fmt.Sprintf("rules: load %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
