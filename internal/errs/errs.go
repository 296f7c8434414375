// Package errs defines the error classes the pipeline surfaces to callers.
// Every error aborts the current operation and propagates unmodified; nothing
// in the pipeline logs-and-suppresses.
package errs

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates invalid or inconsistent inputs: mismatched
// spatial references, a non-finite elevation, a missing required setting.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// Configurationf builds a ConfigurationError from a format string.
func Configurationf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a referenced workspace, layer, or field does not
// exist.
type NotFoundError struct {
	Kind string // "workspace", "layer", "field", "raster"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// AlreadyExistsError indicates an output name collision while the overwrite
// policy is disabled.
type AlreadyExistsError struct {
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("output %q already exists and overwrite is disabled", e.Name)
}

// ResourceExhaustionError indicates a raster or vector operation exceeded the
// configured memory budget. Callers are expected to recommend a coarser
// raster or fewer zones; the pipeline never degrades resolution on its own.
type ResourceExhaustionError struct {
	Op   string
	Need int64
	Cap  int64
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("%s needs %d bytes, budget is %d", e.Op, e.Need, e.Cap)
}

// IsConfiguration reports whether any error in the chain is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsNotFound reports whether any error in the chain is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsAlreadyExists reports whether any error in the chain is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}

// IsResourceExhaustion reports whether any error in the chain is a
// ResourceExhaustionError.
func IsResourceExhaustion(err error) bool {
	var re *ResourceExhaustionError
	return errors.As(err, &re)
}
