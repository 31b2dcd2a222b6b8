package aggregate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/loomdata/loom"
)

// Adder returns a factory for Sum Aggregators over the named column
func Adder(colName string) func() loom.Aggregator {
	return func() loom.Aggregator {
		return &Sum{colName: colName}
	}
}

// Sum sums a numeric column. Accumulation uses Kahan compensated
// summation, so the error of a partition-local sum does not grow with the
// number of rows, and merged partials keep their compensation terms.
type Sum struct {
	colName string
	sum     float64
	comp    float64 // Kahan compensation term
}

// Kind returns the registered name of this Aggregator type
func (a *Sum) Kind() string { return "sum" }

// Accumulate folds a row into this Aggregator
func (a *Sum) Accumulate(row loom.Row) error {
	v, err := row.GetFloat64(a.colName)
	if err != nil {
		return err
	}
	a.add(v)
	return nil
}

func (a *Sum) add(v float64) {
	y := v - a.comp
	t := a.sum + y
	a.comp = (t - a.sum) - y
	a.sum = t
}

// Merge merges another Aggregator into this one
func (a *Sum) Merge(o loom.Aggregator) error {
	ca, ok := o.(*Sum)
	if !ok {
		return fmt.Errorf("incoming aggregator is not a Sum")
	}
	a.add(ca.sum)
	a.add(-ca.comp)
	return nil
}

// Value returns the current sum
func (a *Sum) Value() interface{} {
	return a.sum - a.comp
}

// ToBytes serializes this Aggregator
func (a *Sum) ToBytes() ([]byte, error) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(a.sum))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(a.comp))
	return buf, nil
}

// FromBytes produces a new Aggregator from serialized state
func (a *Sum) FromBytes(buf []byte) (loom.Aggregator, error) {
	if len(buf) != 16 {
		return nil, fmt.Errorf("malformed Sum state: %d bytes", len(buf))
	}
	return &Sum{
		colName: a.colName,
		sum:     math.Float64frombits(binary.LittleEndian.Uint64(buf)),
		comp:    math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
	}, nil
}
