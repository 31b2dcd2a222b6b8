// Package csv implements a DataSourceParser for delimiter-separated
// text. Values are coerced to the declared schema; a value which fails to
// coerce surfaces as a SchemaInferenceError naming the column, row and
// offending value, since declared types usually come from sampling-based
// inference.
package csv

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/partition"
)

func init() {
	exec.RegisterParser("csv", func(conf []byte) (loom.DataSourceParser, error) {
		var pc ParserConf
		if err := json.Unmarshal(conf, &pc); err != nil {
			return nil, err
		}
		return CreateParser(&pc), nil
	})
}

// ParserConf configures a CSV Parser
type ParserConf struct {
	HeaderLines int    `json:"header_lines"` // The number of lines to ignore from the beginning of each file. Defaults to 0.
	Delimiter   rune   `json:"delimiter"`    // The delimiter separating columns in the file. Defaults to ,
	Comment     rune   `json:"comment"`      // Lines beginning with the comment character are ignored. Cannot be equal to the Delimiter. Defaults to no comment character.
	NilValue    string `json:"nil_value"`    // A special string which represents nil values in the dataset. Defaults to "" (the empty string).
}

// Parser produces Partitions from CSV data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new CSV Parser
func CreateParser(conf *ParserConf) *Parser {
	if conf.Delimiter == 0 {
		conf.Delimiter = ','
	}
	return &Parser{conf: conf}
}

// Kind returns the registered name of this parser type
func (p *Parser) Kind() string {
	return "csv"
}

// EncodeConf serializes this parser's configuration
func (p *Parser) EncodeConf() ([]byte, error) {
	return json.Marshal(p.conf)
}

// Parse parses CSV data to produce a single Partition respecting schema
func (p *Parser) Parse(r io.Reader, s loom.Schema) (loom.Partition, error) {
	reader := p.reader(r, s.NumColumns())
	for i := 0; i < p.conf.HeaderLines; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}
	names := s.ColumnNames()
	types := s.ColumnTypes()
	part := partition.CreatePartition(s.Clone())
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(names))
		for i, raw := range record {
			if raw == p.conf.NilValue {
				continue
			}
			v, err := types[i].Parse(raw)
			if err != nil {
				return nil, errors.SchemaInferenceError{Col: names[i], Row: rowNum, Value: raw}
			}
			values[i] = v
		}
		partition.AppendRawRow(part, values)
		rowNum++
	}
	return part, nil
}

func (p *Parser) reader(r io.Reader, numColumns int) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = p.conf.Delimiter
	reader.Comment = p.conf.Comment
	reader.FieldsPerRecord = numColumns
	return reader
}
