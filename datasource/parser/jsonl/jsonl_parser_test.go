package jsonl

import (
	"strings"
	"testing"
	"time"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/schema"
	"github.com/stretchr/testify/require"
)

func TestParseNestedPaths(t *testing.T) {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("id", &loom.Int64ColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("meta.source", &loom.StringColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("meta.created", &loom.TimeColumnType{})
	require.Nil(t, err)

	data := `{"id": 1, "meta": {"source": "sensor-a", "created": "2021-03-14T15:09:26Z"}}
{"id": 2, "meta": {"source": "sensor-b", "created": "2021-03-15T00:00:00Z"}}
`
	part, err := CreateParser(&ParserConf{}).Parse(strings.NewReader(data), s)
	require.Nil(t, err)
	require.Equal(t, 2, part.GetNumRows())

	row := part.GetRow(0)
	id, err := row.GetInt64("id")
	require.Nil(t, err)
	require.EqualValues(t, 1, id)
	source, err := row.GetString("meta.source")
	require.Nil(t, err)
	require.Equal(t, "sensor-a", source)
	created, err := row.GetTime("meta.created")
	require.Nil(t, err)
	require.True(t, created.Equal(time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)))
}

func TestParseMissingAndNullPathsYieldNil(t *testing.T) {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("id", &loom.Int64ColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("tag", &loom.StringColumnType{})
	require.Nil(t, err)

	data := `{"id": 1}
{"id": 2, "tag": null}

{"id": 3, "tag": "x"}
`
	part, err := CreateParser(&ParserConf{}).Parse(strings.NewReader(data), s)
	require.Nil(t, err)
	require.Equal(t, 3, part.GetNumRows()) // blank lines are skipped
	require.True(t, part.GetRow(0).IsNil("tag"))
	require.True(t, part.GetRow(1).IsNil("tag"))
	tag, err := part.GetRow(2).GetString("tag")
	require.Nil(t, err)
	require.Equal(t, "x", tag)
}

func TestParseCoercions(t *testing.T) {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("ok", &loom.BoolColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("n", &loom.Float64ColumnType{})
	require.Nil(t, err)

	part, err := CreateParser(&ParserConf{}).Parse(strings.NewReader(`{"ok": true, "n": 2.5}`+"\n"), s)
	require.Nil(t, err)
	row := part.GetRow(0)
	ok, err := row.GetBool("ok")
	require.Nil(t, err)
	require.True(t, ok)
	n, err := row.GetFloat64("n")
	require.Nil(t, err)
	require.Equal(t, 2.5, n)
}

func TestParseUncoercibleValue(t *testing.T) {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("n", &loom.Int64ColumnType{})
	require.Nil(t, err)

	data := `{"n": 1}
{"n": "two"}
`
	_, err = CreateParser(&ParserConf{}).Parse(strings.NewReader(data), s)
	require.NotNil(t, err)
	sie, ok := err.(errors.SchemaInferenceError)
	require.True(t, ok)
	require.Equal(t, "n", sie.Col)
	require.Equal(t, 1, sie.Row)
	require.Equal(t, `"two"`, sie.Value)
}

func TestParseLineTooLong(t *testing.T) {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("v", &loom.StringColumnType{})
	require.Nil(t, err)

	line := `{"v": "` + strings.Repeat("x", 256) + `"}`
	_, err = CreateParser(&ParserConf{MaxLineBytes: 64}).Parse(strings.NewReader(line), s)
	require.NotNil(t, err)
}
