package resource

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnimplemented is returned when a provider does not support a token
var ErrUnimplemented = errors.New("not implemented by the CAST AI provider")

// FieldError describes one failed field rule
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (f FieldError) String() string {
	if f.Param != "" {
		return fmt.Sprintf("%s (%s=%s)", f.Field, f.Tag, f.Param)
	}
	return fmt.Sprintf("%s (%s)", f.Field, f.Tag)
}

// ValidationError is returned when resource arguments fail local validation
type ValidationError struct {
	Token  string
	Name   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("invalid arguments for %s %q: %s", e.Token, e.Name, strings.Join(parts, ", "))
}

// HasField reports whether the named field failed validation
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// UnimplementedError wraps a provider failure for a token the backend does not serve
type UnimplementedError struct {
	Token string
	Err   error
}

func (e *UnimplementedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Token, ErrUnimplemented.Error(), e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Token, ErrUnimplemented.Error())
}

func (e *UnimplementedError) Unwrap() error {
	return e.Err
}

func (e *UnimplementedError) Is(target error) bool {
	return target == ErrUnimplemented
}

// Unimplemented builds an *UnimplementedError for token
func Unimplemented(token string, err error) error {
	return &UnimplementedError{Token: token, Err: err}
}

// IsUnimplemented reports whether err means the provider cannot serve the call
func IsUnimplemented(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnimplemented) {
		return true
	}
	var notImplemented interface{ IsNotImplemented() bool }
	return errors.As(err, &notImplemented) && notImplemented.IsNotImplemented()
}
