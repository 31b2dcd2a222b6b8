package csv

import (
	"strings"
	"testing"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/schema"
	"github.com/stretchr/testify/require"
)

func parserSchema(t *testing.T) loom.Schema {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("id", &loom.Int64ColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("name", &loom.StringColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("score", &loom.Float64ColumnType{})
	require.Nil(t, err)
	return s
}

func TestParseBasic(t *testing.T) {
	data := "1,alice,9.5\n2,bob,7.25\n"
	part, err := CreateParser(&ParserConf{}).Parse(strings.NewReader(data), parserSchema(t))
	require.Nil(t, err)
	require.Equal(t, 2, part.GetNumRows())

	row := part.GetRow(1)
	id, err := row.GetInt64("id")
	require.Nil(t, err)
	require.EqualValues(t, 2, id)
	name, err := row.GetString("name")
	require.Nil(t, err)
	require.Equal(t, "bob", name)
	score, err := row.GetFloat64("score")
	require.Nil(t, err)
	require.Equal(t, 7.25, score)
}

func TestParseSkipsHeaderLines(t *testing.T) {
	data := "id,name,score\n1,alice,9.5\n"
	part, err := CreateParser(&ParserConf{HeaderLines: 1}).Parse(strings.NewReader(data), parserSchema(t))
	require.Nil(t, err)
	require.Equal(t, 1, part.GetNumRows())
}

func TestParseCustomDelimiterAndComment(t *testing.T) {
	data := "# generated\n1|alice|9.5\n"
	part, err := CreateParser(&ParserConf{Delimiter: '|', Comment: '#'}).Parse(strings.NewReader(data), parserSchema(t))
	require.Nil(t, err)
	require.Equal(t, 1, part.GetNumRows())
}

func TestParseNilValues(t *testing.T) {
	data := "1,NULL,9.5\n"
	part, err := CreateParser(&ParserConf{NilValue: "NULL"}).Parse(strings.NewReader(data), parserSchema(t))
	require.Nil(t, err)
	require.True(t, part.GetRow(0).IsNil("name"))
}

func TestParseUncoercibleValue(t *testing.T) {
	data := "1,alice,9.5\nnope,bob,7.0\n"
	_, err := CreateParser(&ParserConf{}).Parse(strings.NewReader(data), parserSchema(t))
	require.NotNil(t, err)
	sie, ok := err.(errors.SchemaInferenceError)
	require.True(t, ok)
	require.Equal(t, "id", sie.Col)
	require.Equal(t, 1, sie.Row)
	require.Equal(t, "nope", sie.Value)
}

func TestParseRejectsRaggedRows(t *testing.T) {
	data := "1,alice,9.5\n2,bob\n"
	_, err := CreateParser(&ParserConf{}).Parse(strings.NewReader(data), parserSchema(t))
	require.NotNil(t, err)
}

func TestInferSchemaWithHeader(t *testing.T) {
	data := "id,name,score\n1,alice,9.5\n2,bob,7.0\n"
	s, err := InferSchema(strings.NewReader(data), &ParserConf{HeaderLines: 1}, 100)
	require.Nil(t, err)
	require.Equal(t, []string{"id", "name", "score"}, s.ColumnNames())

	col, err := s.GetColumn("id")
	require.Nil(t, err)
	require.IsType(t, &loom.Int64ColumnType{}, col.Type())
	col, err = s.GetColumn("name")
	require.Nil(t, err)
	require.IsType(t, &loom.StringColumnType{}, col.Type())
	col, err = s.GetColumn("score")
	require.Nil(t, err)
	require.IsType(t, &loom.Float64ColumnType{}, col.Type())
}

func TestInferSchemaWithoutHeader(t *testing.T) {
	data := "1,alice\n2,bob\n"
	s, err := InferSchema(strings.NewReader(data), &ParserConf{}, 100)
	require.Nil(t, err)
	require.Equal(t, []string{"c0", "c1"}, s.ColumnNames())
}

func TestInferSchemaEmptyWithoutHeader(t *testing.T) {
	_, err := InferSchema(strings.NewReader(""), &ParserConf{}, 100)
	require.NotNil(t, err)
}

func TestInferSchemaMixedColumnFallsBackToString(t *testing.T) {
	data := "1\nnot a number\n"
	s, err := InferSchema(strings.NewReader(data), &ParserConf{}, 100)
	require.Nil(t, err)
	col, err := s.GetColumn("c0")
	require.Nil(t, err)
	require.IsType(t, &loom.StringColumnType{}, col.Type())
}
