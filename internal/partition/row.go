package partition

import (
	"fmt"
	"strings"
	"time"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
)

// rowImpl is a view onto a single row of a partitionImpl
type rowImpl struct {
	part *partitionImpl
	idx  int
}

// Schema returns the schema for this row
func (r *rowImpl) Schema() loom.Schema {
	return r.part.schema
}

// ToString returns a string representation of this row
func (r *rowImpl) ToString() string {
	values := r.part.rows[r.idx]
	strs := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			strs[i] = "<nil>"
		} else {
			strs[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(strs, "\t")
}

// IsNil returns true iff the given column value is nil in this row
func (r *rowImpl) IsNil(colName string) bool {
	col, err := r.part.schema.GetColumn(colName)
	if err != nil {
		return false
	}
	return r.part.rows[r.idx][col.Index()] == nil
}

// SetNil sets the given column value to nil within this row
func (r *rowImpl) SetNil(colName string) error {
	col, err := r.part.schema.GetColumn(colName)
	if err != nil {
		return err
	}
	r.part.rows[r.idx][col.Index()] = nil
	return nil
}

// Get returns the value of any column, if it exists
func (r *rowImpl) Get(colName string) (interface{}, error) {
	col, err := r.part.schema.GetColumn(colName)
	if err != nil {
		return nil, err
	}
	return r.part.rows[r.idx][col.Index()], nil
}

func (r *rowImpl) getNonNil(colName string) (interface{}, error) {
	v, err := r.Get(colName)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.NilValueError{Name: colName}
	}
	return v, nil
}

// GetBool retrieves a single bool from the column with the given name
func (r *rowImpl) GetBool(colName string) (bool, error) {
	v, err := r.getNonNil(colName)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.IncompatibleSchemaError{Col: colName}
	}
	return b, nil
}

// GetInt64 retrieves a single int64 from the column with the given name
func (r *rowImpl) GetInt64(colName string) (int64, error) {
	v, err := r.getNonNil(colName)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, errors.IncompatibleSchemaError{Col: colName}
	}
	return i, nil
}

// GetFloat64 retrieves a single float64 from the column with the given
// name. Integral columns are widened for convenience, since reductions
// operate in float64.
func (r *rowImpl) GetFloat64(colName string) (float64, error) {
	v, err := r.getNonNil(colName)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, errors.IncompatibleSchemaError{Col: colName}
	}
}

// GetString retrieves a single string from the column with the given name
func (r *rowImpl) GetString(colName string) (string, error) {
	v, err := r.getNonNil(colName)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.IncompatibleSchemaError{Col: colName}
	}
	return s, nil
}

// GetBytes retrieves a byte array from the column with the given name
func (r *rowImpl) GetBytes(colName string) ([]byte, error) {
	v, err := r.getNonNil(colName)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, errors.IncompatibleSchemaError{Col: colName}
	}
	return b, nil
}

// GetTime retrieves a single Time from the column with the given name
func (r *rowImpl) GetTime(colName string) (time.Time, error) {
	v, err := r.getNonNil(colName)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, errors.IncompatibleSchemaError{Col: colName}
	}
	return t, nil
}

// Set modifies the value of any column, checking it against the column's
// declared type
func (r *rowImpl) Set(colName string, value interface{}) error {
	col, err := r.part.schema.GetColumn(colName)
	if err != nil {
		return err
	}
	if value != nil && !col.Type().Accepts(value) {
		return errors.IncompatibleSchemaError{Col: colName}
	}
	r.part.rows[r.idx][col.Index()] = value
	return nil
}
