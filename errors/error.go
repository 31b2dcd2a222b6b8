package errors

import (
	"fmt"
)

// SchemaInferenceError occurs when a value in the full dataset cannot be
// coerced to the type chosen for its column, typically because the type was
// inferred from an unrepresentative sample. It surfaces during computation,
// not at inference time.
type SchemaInferenceError struct {
	Col   string
	Row   int
	Value string
}

// Error returns a textual representation of this SchemaInferenceError
func (e SchemaInferenceError) Error() string {
	return fmt.Sprintf("value %q at row %d does not match the declared or inferred type of column %s", e.Value, e.Row, e.Col)
}

// UnsupportedOperationError occurs when an operation has no well-defined
// meaning under partitioning, such as positional row slicing across
// Partitions (global row order is not tracked once data is distributed).
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

// Error returns a textual representation of this UnsupportedOperationError
func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %s is not supported on a partitioned dataframe: %s", e.Op, e.Reason)
}

// WorkerFailureError occurs when a task could not be completed within its
// retry budget after one or more worker losses.
type WorkerFailureError struct {
	Task     string
	Attempts int
	Cause    error
}

// Error returns a textual representation of this WorkerFailureError
func (e WorkerFailureError) Error() string {
	return fmt.Sprintf("task %s failed after %d attempts: %v", e.Task, e.Attempts, e.Cause)
}

// Unwrap returns the underlying cause of this WorkerFailureError
func (e WorkerFailureError) Unwrap() error {
	return e.Cause
}

// GraphConstructionError occurs when an operation references a dataframe
// handle from an incompatible or expired Graph, e.g. after the Session was
// restarted.
type GraphConstructionError struct {
	Reason string
}

// Error returns a textual representation of this GraphConstructionError
func (e GraphConstructionError) Error() string {
	return fmt.Sprintf("cannot extend computation graph: %s", e.Reason)
}

// NoSuchColumnError occurs when a referenced column does not exist in a Schema
type NoSuchColumnError struct {
	Name string
}

// Error returns a textual representation of this NoSuchColumnError
func (e NoSuchColumnError) Error() string {
	return fmt.Sprintf("schema does not contain column with name %s", e.Name)
}

// IncompatibleSchemaError occurs when a row or value does not match an
// expected Schema
type IncompatibleSchemaError struct {
	Col string
}

// Error returns a textual representation of this IncompatibleSchemaError
func (e IncompatibleSchemaError) Error() string {
	return fmt.Sprintf("value is not compatible with the declared type of column %s", e.Col)
}

// NilValueError occurs when a typed getter is used on a nil column value
type NilValueError struct {
	Name string
}

// Error returns a textual representation of this NilValueError
func (e NilValueError) Error() string {
	return fmt.Sprintf("value for column %s is nil", e.Name)
}

// NoMorePartitionsError occurs when there are no more partitions to iterate
type NoMorePartitionsError struct{}

// Error returns a textual representation of this NoMorePartitionsError
func (e NoMorePartitionsError) Error() string {
	return "no more partitions"
}
