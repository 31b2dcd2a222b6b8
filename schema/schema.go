package schema

import (
	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
)

// column is a single named, typed column within a schema
type column struct {
	idx     int
	colType loom.ColumnType
}

// Clone returns a copy of this Column
func (c *column) Clone() loom.Column {
	return &column{c.idx, c.colType}
}

// Index returns the index of this Column within a Schema
func (c *column) Index() int {
	return c.idx
}

// SetIndex modifies the index of this Column within a Schema
func (c *column) SetIndex(newIndex int) {
	c.idx = newIndex
}

// Type returns the ColumnType of this Column
func (c *column) Type() loom.ColumnType {
	return c.colType
}

// schema is an ordered mapping from column names to ColumnTypes
type schema struct {
	schema map[string]loom.Column
}

// CreateSchema is a factory for Schemas
func CreateSchema() loom.Schema {
	return &schema{
		schema: make(map[string]loom.Column),
	}
}

// Equals returns true iff this and another Schema are equivalent
func (s *schema) Equals(other loom.Schema) bool {
	if s.NumColumns() != other.NumColumns() {
		return false
	}
	err := s.ForEachColumn(func(name string, col loom.Column) error {
		otherCol, err := other.GetColumn(name)
		if err != nil {
			return err
		}
		if col.Index() != otherCol.Index() {
			return errors.IncompatibleSchemaError{Col: name}
		}
		if col.Type().Name() != otherCol.Type().Name() {
			return errors.IncompatibleSchemaError{Col: name}
		}
		return nil
	})
	return err == nil
}

// Clone returns a copy of this Schema
func (s *schema) Clone() loom.Schema {
	newSchema := make(map[string]loom.Column)
	for k, v := range s.schema {
		newSchema[k] = v.Clone()
	}
	return &schema{schema: newSchema}
}

// NumColumns returns the number of columns in this Schema
func (s *schema) NumColumns() int {
	return len(s.schema)
}

// GetColumn returns the named Column, or a NoSuchColumnError
func (s *schema) GetColumn(colName string) (loom.Column, error) {
	col, ok := s.schema[colName]
	if !ok {
		return nil, errors.NoSuchColumnError{Name: colName}
	}
	return col, nil
}

// HasColumn returns true iff this schema contains a column with the given name
func (s *schema) HasColumn(colName string) bool {
	_, err := s.GetColumn(colName)
	return err == nil
}

// CreateColumn defines a new column within the Schema
func (s *schema) CreateColumn(colName string, colType loom.ColumnType) (loom.Schema, error) {
	_, exists := s.schema[colName]
	if exists {
		return nil, errors.IncompatibleSchemaError{Col: colName}
	}
	s.schema[colName] = &column{len(s.schema), colType}
	return s, nil
}

// RenameColumn renames a column within the Schema
func (s *schema) RenameColumn(oldName string, newName string) (loom.Schema, error) {
	col, err := s.GetColumn(oldName)
	if err != nil {
		return nil, err
	}
	if _, exists := s.schema[newName]; exists {
		return nil, errors.IncompatibleSchemaError{Col: newName}
	}
	s.schema[newName] = col
	delete(s.schema, oldName)
	return s, nil
}

// RemoveColumn removes a column from the Schema, compacting the indices of
// the remaining columns
func (s *schema) RemoveColumn(colName string) (loom.Schema, bool) {
	removed, ok := s.schema[colName]
	if !ok {
		return s, false
	}
	delete(s.schema, colName)
	for _, col := range s.schema {
		if col.Index() > removed.Index() {
			col.SetIndex(col.Index() - 1)
		}
	}
	return s, true
}

// ColumnNames returns the names in the schema, in index order
func (s *schema) ColumnNames() []string {
	names := make([]string, len(s.schema))
	for k, v := range s.schema {
		names[v.Index()] = k
	}
	return names
}

// ColumnTypes returns the types in the schema, in index order
func (s *schema) ColumnTypes() []loom.ColumnType {
	types := make([]loom.ColumnType, len(s.schema))
	for _, v := range s.schema {
		types[v.Index()] = v.Type()
	}
	return types
}

// ForEachColumn iterates over the columns in this Schema. Does not
// necessarily iterate in order of column index.
func (s *schema) ForEachColumn(fn func(name string, col loom.Column) error) error {
	for k, v := range s.schema {
		err := fn(k, v)
		if err != nil {
			return err
		}
	}
	return nil
}
