package schema

import (
	"encoding/json"

	"github.com/loomdata/loom"
)

// wireColumn is the serialized form of a single schema column
type wireColumn struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// Encode serializes a Schema as canonical JSON, columns in index order.
// The encoding is stable for a given Schema, so it is safe to include in
// task fingerprints.
func Encode(s loom.Schema) ([]byte, error) {
	names := s.ColumnNames()
	cols := make([]wireColumn, len(names))
	for i, name := range names {
		col, err := s.GetColumn(name)
		if err != nil {
			return nil, err
		}
		cols[i] = wireColumn{Name: name, Type: col.Type().Name()}
		if tt, ok := col.Type().(*loom.TimeColumnType); ok {
			cols[i].Format = tt.Format
		}
	}
	return json.Marshal(cols)
}

// Decode deserializes a Schema from its canonical JSON form
func Decode(buf []byte) (loom.Schema, error) {
	var cols []wireColumn
	if err := json.Unmarshal(buf, &cols); err != nil {
		return nil, err
	}
	s := CreateSchema()
	for _, wc := range cols {
		colType, err := loom.ColumnTypeForName(wc.Type)
		if err != nil {
			return nil, err
		}
		if tt, ok := colType.(*loom.TimeColumnType); ok && wc.Format != "" {
			tt.Format = wc.Format
		}
		if _, err := s.CreateColumn(wc.Name, colType); err != nil {
			return nil, err
		}
	}
	return s, nil
}
