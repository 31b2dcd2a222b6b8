package exec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/loomdata/loom"
)

// DecodeLiteral converts a JSON-encoded literal into a value of the given
// column type. Numbers arrive as float64 from encoding/json and are
// narrowed for integral columns; times are RFC3339 strings.
func DecodeLiteral(colType loom.ColumnType, raw json.RawMessage) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	switch colType.(type) {
	case *loom.Int64ColumnType:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("literal %s is not numeric", raw)
		}
		return int64(f), nil
	case *loom.Float64ColumnType:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("literal %s is not numeric", raw)
		}
		return f, nil
	case *loom.TimeColumnType:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("literal %s is not a timestamp", raw)
		}
		return time.Parse(time.RFC3339, s)
	default:
		return v, nil
	}
}

// CompareValues orders two column values of the same type. Integral and
// floating values compare numerically; strings and byte arrays
// lexically; times chronologically; false sorts before true. Nil sorts
// before everything.
func CompareValues(a, b interface{}) (int, error) {
	if a == nil || b == nil {
		if a == b {
			return 0, nil
		}
		if a == nil {
			return -1, nil
		}
		return 1, nil
	}
	switch av := a.(type) {
	case int64:
		if bv, ok := numeric(b); ok {
			return compareFloat(float64(av), bv), nil
		}
	case float64:
		if bv, ok := numeric(b); ok {
			return compareFloat(av, bv), nil
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case []byte:
		if bv, ok := b.([]byte); ok {
			return strings.Compare(string(av), string(bv)), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !av:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Equal(bv):
				return 0, nil
			case av.Before(bv):
				return -1, nil
			default:
				return 1, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot compare values of types %T and %T", a, b)
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// buildKey produces a canonical key string for a row over the given key
// columns, for hashing and group identity
func buildKey(row loom.Row, keyCols []string) (string, error) {
	var sb strings.Builder
	for i, col := range keyCols {
		if i > 0 {
			sb.WriteByte(0)
		}
		v, err := row.Get(col)
		if err != nil {
			return "", err
		}
		if v == nil {
			sb.WriteString("\x01nil")
			continue
		}
		if t, ok := v.(time.Time); ok {
			sb.WriteString(t.UTC().Format(time.RFC3339Nano))
			continue
		}
		fmt.Fprintf(&sb, "%v", v)
	}
	return sb.String(), nil
}
