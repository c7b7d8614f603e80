package inference

import (
	"errors"
	"fmt"
)

// ErrStaleArtifact means the artifact was trained with a different configuration
var ErrStaleArtifact = errors.New("artifact was trained with a different configuration")

// ConfigError reports that the serving files cannot be used.
// The serving process must refuse predictions until it is fixed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("inference: configuration problem with %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InputError reports a caller-supplied field that cannot be used
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q value %q: %s", e.Field, e.Value, e.Reason)
}

// IsInputError reports whether err is (or wraps) an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
