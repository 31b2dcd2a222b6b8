// Package jsonl implements a DataSourceParser for line-delimited JSON.
// Column names are interpreted as paths into each JSON document, with
// dots descending into sub-objects (e.g. "meta.created"); missing paths
// yield nil values rather than errors.
package jsonl

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/partition"
	"github.com/tidwall/gjson"
)

func init() {
	exec.RegisterParser("jsonl", func(conf []byte) (loom.DataSourceParser, error) {
		var pc ParserConf
		if err := json.Unmarshal(conf, &pc); err != nil {
			return nil, err
		}
		return CreateParser(&pc), nil
	})
}

// ParserConf configures a JSONL Parser
type ParserConf struct {
	MaxLineBytes int `json:"max_line_bytes"` // The maximum length of a single document line. Defaults to 1MiB.
}

// Parser produces Partitions from line-delimited JSON data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new JSONL Parser
func CreateParser(conf *ParserConf) *Parser {
	if conf.MaxLineBytes == 0 {
		conf.MaxLineBytes = 1024 * 1024
	}
	return &Parser{conf: conf}
}

// Kind returns the registered name of this parser type
func (p *Parser) Kind() string {
	return "jsonl"
}

// EncodeConf serializes this parser's configuration
func (p *Parser) EncodeConf() ([]byte, error) {
	return json.Marshal(p.conf)
}

// Parse parses JSONL data to produce a single Partition respecting schema
func (p *Parser) Parse(r io.Reader, s loom.Schema) (loom.Partition, error) {
	names := s.ColumnNames()
	types := s.ColumnTypes()
	part := partition.CreatePartition(s.Clone())
	scanner := bufio.NewScanner(r)
	// the scanner's limit is the larger of the max and the initial
	// capacity, so the initial buffer must not exceed MaxLineBytes
	initial := 64 * 1024
	if p.conf.MaxLineBytes < initial {
		initial = p.conf.MaxLineBytes
	}
	scanner.Buffer(make([]byte, 0, initial), p.conf.MaxLineBytes)
	rowNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		values := make([]interface{}, len(names))
		for i, name := range names {
			result := gjson.Get(line, name)
			if !result.Exists() || result.Type == gjson.Null {
				continue
			}
			v, err := coerce(result, types[i])
			if err != nil {
				return nil, errors.SchemaInferenceError{Col: name, Row: rowNum, Value: result.Raw}
			}
			values[i] = v
		}
		partition.AppendRawRow(part, values)
		rowNum++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return part, nil
}

// coerce converts a located JSON value to the declared column type
func coerce(result gjson.Result, colType loom.ColumnType) (interface{}, error) {
	switch t := colType.(type) {
	case *loom.BoolColumnType:
		if result.Type != gjson.True && result.Type != gjson.False {
			return nil, errors.IncompatibleSchemaError{}
		}
		return result.Bool(), nil
	case *loom.Int64ColumnType:
		if result.Type != gjson.Number {
			return nil, errors.IncompatibleSchemaError{}
		}
		return result.Int(), nil
	case *loom.Float64ColumnType:
		if result.Type != gjson.Number {
			return nil, errors.IncompatibleSchemaError{}
		}
		return result.Float(), nil
	case *loom.StringColumnType:
		return result.String(), nil
	case *loom.BytesColumnType:
		return []byte(result.String()), nil
	case *loom.TimeColumnType:
		format := t.Format
		if format == "" {
			format = time.RFC3339
		}
		return time.Parse(format, result.String())
	default:
		return nil, errors.IncompatibleSchemaError{}
	}
}
