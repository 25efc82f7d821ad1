// Package domain defines core types, interfaces, and errors for the metadata catalog.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnknownDatasetError indicates a lineage edge referenced an unregistered FQN.
type UnknownDatasetError struct {
	Message string
}

func (e *UnknownDatasetError) Error() string { return e.Message }

// SelfLineageError indicates an edge from a dataset to itself.
type SelfLineageError struct {
	Message string
}

func (e *SelfLineageError) Error() string { return e.Message }

// CycleDetectedError indicates an edge that would close a cycle in the graph.
type CycleDetectedError struct {
	Message string
}

func (e *CycleDetectedError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnknownDataset creates an UnknownDatasetError with a formatted message.
func ErrUnknownDataset(format string, args ...interface{}) *UnknownDatasetError {
	return &UnknownDatasetError{Message: fmt.Sprintf(format, args...)}
}

// ErrSelfLineage creates a SelfLineageError with a formatted message.
func ErrSelfLineage(format string, args ...interface{}) *SelfLineageError {
	return &SelfLineageError{Message: fmt.Sprintf(format, args...)}
}

// ErrCycleDetected creates a CycleDetectedError with a formatted message.
func ErrCycleDetected(format string, args ...interface{}) *CycleDetectedError {
	return &CycleDetectedError{Message: fmt.Sprintf(format, args...)}
}
