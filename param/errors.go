// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrConfiguration    = errors.New("param: invalid configuration")
	ErrValidation       = errors.New("param: validation failed")
	ErrConflict         = errors.New("param: incompatible parameters")
	ErrUnknownParameter = errors.New("param: unknown parameter")
	ErrResolving        = errors.New("param: fetcher accessed while resolving")
)

// ConfigurationError reports a malformed [Definition]. It is returned when
// building a [Registry] and signals a programming error rather than bad
// request data.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("param: invalid definition %q: %s", e.Param, e.Reason)
}

// Is reports whether target is [ErrConfiguration].
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Reason classifies why a value did not satisfy its definition.
type Reason string

const (
	ReasonMismatch  Reason = "requirement_mismatch"
	ReasonNotScalar Reason = "not_scalar"
	ReasonNotFile   Reason = "not_file"
	ReasonNotImage  Reason = "not_image"
)

// Violation describes one parameter which failed validation.
type Violation struct {
	Param   string
	Kind    Kind
	Reason  Reason
	Message string
}

// ValidationError reports every parameter which failed validation.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "param: validation failed: " + strings.Join(msgs, "; ")
}

// Is reports whether target is [ErrValidation].
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Params returns the names of the violating parameters in declaration order.
func (e *ValidationError) Params() []string {
	names := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		names[i] = v.Param
	}
	return names
}

// ConflictError reports two incompatible parameters which were both
// present in a request. It matches both [ErrConflict] and [ErrValidation].
type ConflictError struct {
	Param string
	Other string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("param: %q is incompatible with %q", e.Param, e.Other)
}

// Is reports whether target is [ErrConflict] or [ErrValidation].
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict || target == ErrValidation
}

func (e *ConflictError) involves(name string) bool {
	return e.Param == name || e.Other == name
}

// UnknownParameterError is returned when reading a parameter that was
// never declared.
type UnknownParameterError struct {
	Param string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("param: no parameter named %q is declared", e.Param)
}

// Is reports whether target is [ErrUnknownParameter].
func (e *UnknownParameterError) Is(target error) bool {
	return target == ErrUnknownParameter
}
