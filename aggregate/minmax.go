package aggregate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/loomdata/loom"
)

// Minimizer returns a factory for Min Aggregators over the named column
func Minimizer(colName string) func() loom.Aggregator {
	return func() loom.Aggregator {
		return &extremum{colName: colName, max: false}
	}
}

// Maximizer returns a factory for Max Aggregators over the named column
func Maximizer(colName string) func() loom.Aggregator {
	return func() loom.Aggregator {
		return &extremum{colName: colName, max: true}
	}
}

// extremum tracks the minimum or maximum of a numeric column. Min and max
// are exact under any merge order, so no compensation is needed.
type extremum struct {
	colName string
	max     bool
	value   float64
	seen    bool
}

// Kind returns the registered name of this Aggregator type
func (a *extremum) Kind() string {
	if a.max {
		return "max"
	}
	return "min"
}

// Accumulate folds a row into this Aggregator
func (a *extremum) Accumulate(row loom.Row) error {
	v, err := row.GetFloat64(a.colName)
	if err != nil {
		return err
	}
	a.observe(v)
	return nil
}

func (a *extremum) observe(v float64) {
	if !a.seen {
		a.value = v
		a.seen = true
		return
	}
	if a.max && v > a.value || !a.max && v < a.value {
		a.value = v
	}
}

// Merge merges another Aggregator into this one
func (a *extremum) Merge(o loom.Aggregator) error {
	ca, ok := o.(*extremum)
	if !ok || ca.max != a.max {
		return fmt.Errorf("incoming aggregator is not a %s", a.Kind())
	}
	if ca.seen {
		a.observe(ca.value)
	}
	return nil
}

// Value returns the current extremum, or NaN over zero rows
func (a *extremum) Value() interface{} {
	if !a.seen {
		return math.NaN()
	}
	return a.value
}

// ToBytes serializes this Aggregator
func (a *extremum) ToBytes() ([]byte, error) {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(a.value))
	if a.seen {
		buf[8] = 1
	}
	return buf, nil
}

// FromBytes produces a new Aggregator from serialized state
func (a *extremum) FromBytes(buf []byte) (loom.Aggregator, error) {
	if len(buf) != 9 {
		return nil, fmt.Errorf("malformed %s state: %d bytes", a.Kind(), len(buf))
	}
	return &extremum{
		colName: a.colName,
		max:     a.max,
		value:   math.Float64frombits(binary.LittleEndian.Uint64(buf)),
		seen:    buf[8] == 1,
	}, nil
}
