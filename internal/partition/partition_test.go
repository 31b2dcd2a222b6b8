package partition

import (
	"testing"
	"time"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/schema"
	"github.com/stretchr/testify/require"
)

func rowSchema(t *testing.T) loom.Schema {
	s := schema.CreateSchema()
	s.CreateColumn("i", &loom.Int64ColumnType{})
	s.CreateColumn("f", &loom.Float64ColumnType{})
	s.CreateColumn("s", &loom.StringColumnType{})
	s.CreateColumn("when", &loom.TimeColumnType{})
	return s
}

func TestPartitionAppendAndGet(t *testing.T) {
	p := CreatePartition(rowSchema(t))
	now := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	require.Nil(t, p.AppendRowValues(int64(7), 2.5, "hello", now))
	require.Equal(t, 1, p.GetNumRows())

	row := p.GetRow(0)
	i, err := row.GetInt64("i")
	require.Nil(t, err)
	require.Equal(t, int64(7), i)
	s, err := row.GetString("s")
	require.Nil(t, err)
	require.Equal(t, "hello", s)
	when, err := row.GetTime("when")
	require.Nil(t, err)
	require.True(t, now.Equal(when))
}

func TestPartitionRejectsMismatchedValues(t *testing.T) {
	p := CreatePartition(rowSchema(t))
	err := p.AppendRowValues("not an int", 2.5, "x", time.Now())
	require.IsType(t, errors.IncompatibleSchemaError{}, err)
	err = p.AppendRowValues(int64(1), 2.5, "x")
	require.IsType(t, errors.IncompatibleSchemaError{}, err)
}

func TestRowNilHandling(t *testing.T) {
	p := CreatePartition(rowSchema(t))
	require.Nil(t, p.AppendRowValues(nil, 2.5, "x", time.Now()))
	row := p.GetRow(0)
	require.True(t, row.IsNil("i"))
	_, err := row.GetInt64("i")
	require.IsType(t, errors.NilValueError{}, err)
}

func TestRowFloat64WidensInt64(t *testing.T) {
	p := CreatePartition(rowSchema(t))
	require.Nil(t, p.AppendRowValues(int64(42), 0.0, "x", time.Now()))
	v, err := p.GetRow(0).GetFloat64("i")
	require.Nil(t, err)
	require.Equal(t, 42.0, v)
}

func TestCodecRoundTrip(t *testing.T) {
	p := CreatePartition(rowSchema(t))
	now := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	require.Nil(t, p.AppendRowValues(int64(1), 1.5, "a", now))
	require.Nil(t, p.AppendRowValues(nil, nil, "b", now))

	buf, err := ToBytes(p)
	require.Nil(t, err)
	decoded, err := FromBytes(buf)
	require.Nil(t, err)
	require.Equal(t, 2, decoded.GetNumRows())
	require.True(t, p.GetSchema().Equals(decoded.GetSchema()))

	s, err := decoded.GetRow(1).GetString("s")
	require.Nil(t, err)
	require.Equal(t, "b", s)
	require.True(t, decoded.GetRow(1).IsNil("i"))
	require.Equal(t, p.ID(), decoded.ID())
}
