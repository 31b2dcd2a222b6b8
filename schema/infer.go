package schema

import (
	"strconv"

	"github.com/loomdata/loom"
)

// InferConf configures sampling-based type inference
type InferConf struct {
	NilValue string // A special string which represents nil values. Defaults to "" (the empty string).
}

// Infer derives a Schema from a sample of textual rows. Inference is
// deliberately conservative: a column is only given a narrow type (bool,
// int64, float64) when every sampled value parses as that type, and any
// disagreement or empty sample falls back to string. Callers who know
// their types should declare them instead - a sample is only a sample, and
// values outside it which do not match the chosen type will surface as
// SchemaInferenceErrors during computation rather than being corrected.
func Infer(colNames []string, sample [][]string, conf *InferConf) (loom.Schema, error) {
	if conf == nil {
		conf = &InferConf{}
	}
	s := CreateSchema()
	for idx, name := range colNames {
		colType := inferColumn(idx, sample, conf.NilValue)
		if _, err := s.CreateColumn(name, colType); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func inferColumn(idx int, sample [][]string, nilValue string) loom.ColumnType {
	isBool, isInt, isFloat := true, true, true
	seen := 0
	for _, row := range sample {
		if idx >= len(row) || row[idx] == nilValue {
			continue
		}
		raw := row[idx]
		seen++
		if _, err := strconv.ParseBool(raw); err != nil {
			isBool = false
		}
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			isFloat = false
		}
	}
	// an empty sample tells us nothing, so keep the widest type
	if seen == 0 {
		return &loom.StringColumnType{}
	}
	switch {
	case isInt:
		return &loom.Int64ColumnType{}
	case isFloat:
		return &loom.Float64ColumnType{}
	case isBool:
		return &loom.BoolColumnType{}
	default:
		return &loom.StringColumnType{}
	}
}
