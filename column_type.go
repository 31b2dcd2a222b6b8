package loom

import (
	"fmt"
	"strconv"
	"time"
)

// ColumnType describes the declared type of a column within a Schema.
// Column values are stored as interface{} within Partitions, so a
// ColumnType is responsible for validating and parsing values of its type.
type ColumnType interface {
	Name() string                              // Name returns a canonical name for this ColumnType
	ZeroValue() interface{}                    // ZeroValue returns the zero value for this ColumnType
	Accepts(v interface{}) bool                // Accepts returns true iff v is a valid value for this ColumnType
	Parse(raw string) (interface{}, error)     // Parse converts a textual value to a value of this ColumnType
}

// BoolColumnType is the ColumnType for boolean values
type BoolColumnType struct{}

// Name returns a canonical name for this ColumnType
func (t *BoolColumnType) Name() string { return "bool" }

// ZeroValue returns the zero value for this ColumnType
func (t *BoolColumnType) ZeroValue() interface{} { return false }

// Accepts returns true iff v is a valid value for this ColumnType
func (t *BoolColumnType) Accepts(v interface{}) bool { _, ok := v.(bool); return ok }

// Parse converts a textual value to a value of this ColumnType
func (t *BoolColumnType) Parse(raw string) (interface{}, error) {
	return strconv.ParseBool(raw)
}

// Int64ColumnType is the ColumnType for integral values
type Int64ColumnType struct{}

// Name returns a canonical name for this ColumnType
func (t *Int64ColumnType) Name() string { return "int64" }

// ZeroValue returns the zero value for this ColumnType
func (t *Int64ColumnType) ZeroValue() interface{} { return int64(0) }

// Accepts returns true iff v is a valid value for this ColumnType
func (t *Int64ColumnType) Accepts(v interface{}) bool { _, ok := v.(int64); return ok }

// Parse converts a textual value to a value of this ColumnType
func (t *Int64ColumnType) Parse(raw string) (interface{}, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// Float64ColumnType is the ColumnType for floating-point values
type Float64ColumnType struct{}

// Name returns a canonical name for this ColumnType
func (t *Float64ColumnType) Name() string { return "float64" }

// ZeroValue returns the zero value for this ColumnType
func (t *Float64ColumnType) ZeroValue() interface{} { return float64(0) }

// Accepts returns true iff v is a valid value for this ColumnType
func (t *Float64ColumnType) Accepts(v interface{}) bool { _, ok := v.(float64); return ok }

// Parse converts a textual value to a value of this ColumnType
func (t *Float64ColumnType) Parse(raw string) (interface{}, error) {
	return strconv.ParseFloat(raw, 64)
}

// StringColumnType is the ColumnType for string values
type StringColumnType struct{}

// Name returns a canonical name for this ColumnType
func (t *StringColumnType) Name() string { return "string" }

// ZeroValue returns the zero value for this ColumnType
func (t *StringColumnType) ZeroValue() interface{} { return "" }

// Accepts returns true iff v is a valid value for this ColumnType
func (t *StringColumnType) Accepts(v interface{}) bool { _, ok := v.(string); return ok }

// Parse converts a textual value to a value of this ColumnType
func (t *StringColumnType) Parse(raw string) (interface{}, error) {
	return raw, nil
}

// BytesColumnType is the ColumnType for raw byte array values
type BytesColumnType struct{}

// Name returns a canonical name for this ColumnType
func (t *BytesColumnType) Name() string { return "bytes" }

// ZeroValue returns the zero value for this ColumnType
func (t *BytesColumnType) ZeroValue() interface{} { return []byte(nil) }

// Accepts returns true iff v is a valid value for this ColumnType
func (t *BytesColumnType) Accepts(v interface{}) bool { _, ok := v.([]byte); return ok }

// Parse converts a textual value to a value of this ColumnType
func (t *BytesColumnType) Parse(raw string) (interface{}, error) {
	return []byte(raw), nil
}

// TimeColumnType is the ColumnType for timestamp values. Format is a Go
// time layout string used when parsing from text, defaulting to RFC3339.
type TimeColumnType struct {
	Format string
}

// Name returns a canonical name for this ColumnType
func (t *TimeColumnType) Name() string { return "time" }

// ZeroValue returns the zero value for this ColumnType
func (t *TimeColumnType) ZeroValue() interface{} { return time.Time{} }

// Accepts returns true iff v is a valid value for this ColumnType
func (t *TimeColumnType) Accepts(v interface{}) bool { _, ok := v.(time.Time); return ok }

// Parse converts a textual value to a value of this ColumnType
func (t *TimeColumnType) Parse(raw string) (interface{}, error) {
	format := t.Format
	if format == "" {
		format = time.RFC3339
	}
	return time.Parse(format, raw)
}

// ColumnTypeForName returns the ColumnType matching a canonical name, as
// produced by ColumnType.Name(). Used when deserializing Schemas.
func ColumnTypeForName(name string) (ColumnType, error) {
	switch name {
	case "bool":
		return &BoolColumnType{}, nil
	case "int64":
		return &Int64ColumnType{}, nil
	case "float64":
		return &Float64ColumnType{}, nil
	case "string":
		return &StringColumnType{}, nil
	case "bytes":
		return &BytesColumnType{}, nil
	case "time":
		return &TimeColumnType{}, nil
	default:
		return nil, fmt.Errorf("unknown column type %s", name)
	}
}
