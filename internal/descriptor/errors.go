package descriptor

import (
	"errors"
	"fmt"
)

// Error kinds returned by Load. Match them with errors.Is.
var (
	// ErrNotFound indicates the descriptor path does not exist.
	ErrNotFound = errors.New("descriptor not found")

	// ErrUnreadable indicates the descriptor exists but could not be read.
	ErrUnreadable = errors.New("descriptor unreadable")

	// ErrParseFailure indicates the descriptor is not valid YAML or TOML.
	ErrParseFailure = errors.New("descriptor parse failure")

	// ErrEmpty indicates the descriptor parsed to nothing.
	ErrEmpty = errors.New("descriptor is empty")

	// ErrMissingSection indicates versions or components is absent or empty.
	ErrMissingSection = errors.New("missing section")

	// ErrMissingVersionKey indicates a required versions entry is absent.
	ErrMissingVersionKey = errors.New("missing version key")

	// ErrMissingComponentField indicates a required component field is absent.
	ErrMissingComponentField = errors.New("missing component field")

	// ErrMissingFlag indicates a required s3a flag is absent.
	ErrMissingFlag = errors.New("missing flag")

	// ErrInvalidValue indicates a field is present but its value is unusable.
	ErrInvalidValue = errors.New("invalid value")
)

// ConfigError describes a descriptor that could not be loaded.
type ConfigError struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Path is the file the failure relates to.
	Path string

	// Field is the dotted field name, empty for file-level failures.
	Field string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ConfigError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path, field string, cause error) *ConfigError {
	return &ConfigError{Kind: kind, Path: path, Field: field, Err: cause}
}
