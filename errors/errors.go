/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a table or row is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when a row with the same primary key already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownType is returned when a model type is not part of the schema of this build
	ErrUnknownType = errors.New("unknown model type")

	// ErrNullArgument is returned when a required argument is missing
	ErrNullArgument = errors.New("required argument missing")

	// ErrSchemaMismatch is returned when a stored table does not match the declared model
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrSchemaMapping is returned when a JSON value cannot be mapped to a model field
	ErrSchemaMapping = errors.New("schema mapping failed")

	// ErrStreamRead is returned when a JSON token stream is malformed or truncated
	ErrStreamRead = errors.New("stream read failed")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UnknownTypeError is returned by every mediator entry point for a model type
// that is not part of the build.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s is not part of the schema for this store", e.Type)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// NullArgumentError represents a missing required argument
type NullArgumentError struct {
	Argument string
}

func (e *NullArgumentError) Error() string {
	return fmt.Sprintf("argument %q must be provided", e.Argument)
}

func (e *NullArgumentError) Is(target error) bool {
	return target == ErrNullArgument
}

// SchemaMismatchError describes a divergence between a stored table and the
// schema declared by its model.
type SchemaMismatchError struct {
	Table  string
	Field  string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema mismatch in table %q, field %q: %s", e.Table, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in table %q: %s", e.Table, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// SchemaMappingError is returned when a JSON value is incompatible with the
// declared type of a model field.
type SchemaMappingError struct {
	Model    string
	Field    string
	Expected string
	Actual   string
}

func (e *SchemaMappingError) Error() string {
	return fmt.Sprintf("cannot map %s to field %s.%s of type %s", e.Actual, e.Model, e.Field, e.Expected)
}

func (e *SchemaMappingError) Is(target error) bool {
	return target == ErrSchemaMapping
}

// StreamReadError wraps a failure of the underlying token stream. Path is the
// JSON path of the value being read, when known.
type StreamReadError struct {
	Path string
	Err  error
}

func (e *StreamReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("json stream read failed at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("json stream read failed: %v", e.Err)
}

func (e *StreamReadError) Is(target error) bool {
	return target == ErrStreamRead
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewUnknownTypeError creates a new UnknownTypeError
func NewUnknownTypeError(modelType string) error {
	return &UnknownTypeError{Type: modelType}
}

// NewNullArgumentError creates a new NullArgumentError
func NewNullArgumentError(argument string) error {
	return &NullArgumentError{Argument: argument}
}

// NewSchemaMismatchError creates a new SchemaMismatchError
func NewSchemaMismatchError(table, field, reason string) error {
	return &SchemaMismatchError{Table: table, Field: field, Reason: reason}
}

// NewSchemaMappingError creates a new SchemaMappingError
func NewSchemaMappingError(model, field, expected, actual string) error {
	return &SchemaMappingError{Model: model, Field: field, Expected: expected, Actual: actual}
}

// NewStreamReadError wraps err as a StreamReadError. It returns err unchanged
// if it already is one.
func NewStreamReadError(path string, err error) error {
	var sre *StreamReadError
	if errors.As(err, &sre) {
		return err
	}
	return &StreamReadError{Path: path, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnknownType checks if an error is an unknown model type error
func IsUnknownType(err error) bool {
	return errors.Is(err, ErrUnknownType)
}

// IsNullArgument checks if an error is a missing argument error
func IsNullArgument(err error) bool {
	return errors.Is(err, ErrNullArgument)
}

// IsSchemaMismatch checks if an error is a schema mismatch error
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsSchemaMapping checks if an error is a JSON schema mapping error
func IsSchemaMapping(err error) bool {
	return errors.Is(err, ErrSchemaMapping)
}

// IsStreamRead checks if an error is a token stream error
func IsStreamRead(err error) bool {
	return errors.Is(err, ErrStreamRead)
}
