// Package util provides shared error types for the dispatcher.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrAmbiguousMatch.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., AmbiguousMatchError, ConfigError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors.
var (
	ErrAmbiguousMatch   = errors.New("ambiguous match")
	ErrProviderContract = errors.New("constraint provider contract violation")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// ambiguousMatchHeader prefixes the list of tied endpoints.
const ambiguousMatchHeader = "multiple endpoints matched. " +
	"The following endpoints matched route data and had all constraints satisfied:"

// AmbiguousMatchError reports that more than one endpoint survived every
// selection stage. Names are in registration order.
type AmbiguousMatchError struct {
	Names []string
}

// Error implements the error interface.
func (e *AmbiguousMatchError) Error() string {
	return ambiguousMatchHeader + "\n\n" + strings.Join(e.Names, "\n")
}

// Is checks if the error matches the target.
func (e *AmbiguousMatchError) Is(target error) bool {
	if target == ErrAmbiguousMatch {
		return true
	}
	_, ok := target.(*AmbiguousMatchError)
	return ok
}

// NewAmbiguousMatchError creates a new AmbiguousMatchError.
func NewAmbiguousMatchError(names []string) *AmbiguousMatchError {
	out := make([]string, len(names))
	copy(out, names)
	return &AmbiguousMatchError{Names: out}
}

// ProviderContractError reports a constraint provider writing a slot that
// another provider already populated.
type ProviderContractError struct {
	Provider string
	Endpoint string
	Slot     int
	Message  string
}

// Error implements the error interface.
func (e *ProviderContractError) Error() string {
	return fmt.Sprintf("constraint provider %s on endpoint %s, slot %d: %s",
		e.Provider, e.Endpoint, e.Slot, e.Message)
}

// Is checks if the error matches the target.
func (e *ProviderContractError) Is(target error) bool {
	if target == ErrProviderContract {
		return true
	}
	_, ok := target.(*ProviderContractError)
	return ok
}

// NewProviderContractError creates a new ProviderContractError.
func NewProviderContractError(provider, endpoint string, slot int, message string) *ProviderContractError {
	return &ProviderContractError{Provider: provider, Endpoint: endpoint, Slot: slot, Message: message}
}

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s (fields: %v)", e.Message, e.Fields)
}

// Is checks if the error matches the target.
func (e *ValidationError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string]string)}
}

// AddField adds a field error.
func (e *ValidationError) AddField(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
