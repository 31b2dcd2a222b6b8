package schema

import (
	"testing"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/stretchr/testify/require"
)

func TestSchemaColumnOrder(t *testing.T) {
	s := CreateSchema()
	_, err := s.CreateColumn("a", &loom.Int64ColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("b", &loom.StringColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("c", &loom.Float64ColumnType{})
	require.Nil(t, err)

	require.Equal(t, 3, s.NumColumns())
	require.Equal(t, []string{"a", "b", "c"}, s.ColumnNames())
	col, err := s.GetColumn("b")
	require.Nil(t, err)
	require.Equal(t, 1, col.Index())
	require.Equal(t, "string", col.Type().Name())
}

func TestSchemaDuplicateColumn(t *testing.T) {
	s := CreateSchema()
	_, err := s.CreateColumn("a", &loom.Int64ColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("a", &loom.StringColumnType{})
	require.IsType(t, errors.IncompatibleSchemaError{}, err)
}

func TestSchemaMissingColumn(t *testing.T) {
	s := CreateSchema()
	_, err := s.GetColumn("nope")
	require.IsType(t, errors.NoSuchColumnError{}, err)
	require.False(t, s.HasColumn("nope"))
}

func TestSchemaRemoveCompactsIndices(t *testing.T) {
	s := CreateSchema()
	s.CreateColumn("a", &loom.Int64ColumnType{})
	s.CreateColumn("b", &loom.Int64ColumnType{})
	s.CreateColumn("c", &loom.Int64ColumnType{})

	_, removed := s.RemoveColumn("b")
	require.True(t, removed)
	require.Equal(t, []string{"a", "c"}, s.ColumnNames())
	col, err := s.GetColumn("c")
	require.Nil(t, err)
	require.Equal(t, 1, col.Index())

	_, removed = s.RemoveColumn("nope")
	require.False(t, removed)
}

func TestSchemaRename(t *testing.T) {
	s := CreateSchema()
	s.CreateColumn("a", &loom.Int64ColumnType{})
	s.CreateColumn("b", &loom.Int64ColumnType{})

	_, err := s.RenameColumn("a", "b")
	require.IsType(t, errors.IncompatibleSchemaError{}, err)
	_, err = s.RenameColumn("a", "z")
	require.Nil(t, err)
	require.True(t, s.HasColumn("z"))
	require.False(t, s.HasColumn("a"))
}

func TestSchemaCloneAndEquals(t *testing.T) {
	s := CreateSchema()
	s.CreateColumn("a", &loom.Int64ColumnType{})
	s.CreateColumn("b", &loom.StringColumnType{})

	clone := s.Clone()
	require.True(t, s.Equals(clone))

	clone.RemoveColumn("b")
	require.False(t, s.Equals(clone))
}

func TestCodecRoundTrip(t *testing.T) {
	s := CreateSchema()
	s.CreateColumn("id", &loom.Int64ColumnType{})
	s.CreateColumn("when", &loom.TimeColumnType{Format: "2006-01-02"})
	s.CreateColumn("name", &loom.StringColumnType{})

	buf, err := Encode(s)
	require.Nil(t, err)
	decoded, err := Decode(buf)
	require.Nil(t, err)
	require.True(t, s.Equals(decoded))

	col, err := decoded.GetColumn("when")
	require.Nil(t, err)
	require.Equal(t, "2006-01-02", col.Type().(*loom.TimeColumnType).Format)
}

func TestCodecStableEncoding(t *testing.T) {
	s := CreateSchema()
	s.CreateColumn("a", &loom.Int64ColumnType{})
	s.CreateColumn("b", &loom.Float64ColumnType{})

	first, err := Encode(s)
	require.Nil(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(s)
		require.Nil(t, err)
		require.Equal(t, first, again)
	}
}

func TestInferConservative(t *testing.T) {
	sample := [][]string{
		{"1", "1.5", "true", "x", "2"},
		{"2", "2", "false", "y", "oops"},
		{"3", "-0.5", "1", "z", "3"},
	}
	s, err := Infer([]string{"i", "f", "b", "s", "mixed"}, sample, nil)
	require.Nil(t, err)
	require.Equal(t, "int64", typeName(t, s, "i"))
	require.Equal(t, "float64", typeName(t, s, "f"))
	require.Equal(t, "bool", typeName(t, s, "b"))
	require.Equal(t, "string", typeName(t, s, "s"))
	require.Equal(t, "string", typeName(t, s, "mixed"))
}

func TestInferEmptySampleFallsBackToString(t *testing.T) {
	s, err := Infer([]string{"a"}, nil, nil)
	require.Nil(t, err)
	require.Equal(t, "string", typeName(t, s, "a"))
}

func TestInferNilValuesIgnored(t *testing.T) {
	sample := [][]string{{"1"}, {"NA"}, {"3"}}
	s, err := Infer([]string{"a"}, sample, &InferConf{NilValue: "NA"})
	require.Nil(t, err)
	require.Equal(t, "int64", typeName(t, s, "a"))
}

func typeName(t *testing.T, s loom.Schema, col string) string {
	c, err := s.GetColumn(col)
	require.Nil(t, err)
	return c.Type().Name()
}
