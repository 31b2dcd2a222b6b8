package aggregate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/loomdata/loom"
)

// Meaner returns a factory for Mean Aggregators over the named column
func Meaner(colName string) func() loom.Aggregator {
	return func() loom.Aggregator {
		return &Mean{sum: Sum{colName: colName}}
	}
}

// Mean computes the mean of a numeric column as a compensated sum plus a
// count, combined only at Value time (mean = sum/count).
type Mean struct {
	sum   Sum
	count uint64
}

// Kind returns the registered name of this Aggregator type
func (a *Mean) Kind() string { return "mean" }

// Accumulate folds a row into this Aggregator
func (a *Mean) Accumulate(row loom.Row) error {
	if err := a.sum.Accumulate(row); err != nil {
		return err
	}
	a.count++
	return nil
}

// Merge merges another Aggregator into this one
func (a *Mean) Merge(o loom.Aggregator) error {
	ca, ok := o.(*Mean)
	if !ok {
		return fmt.Errorf("incoming aggregator is not a Mean")
	}
	if err := a.sum.Merge(&ca.sum); err != nil {
		return err
	}
	a.count += ca.count
	return nil
}

// Value returns the current mean, or NaN over zero rows
func (a *Mean) Value() interface{} {
	if a.count == 0 {
		return math.NaN()
	}
	return a.sum.Value().(float64) / float64(a.count)
}

// ToBytes serializes this Aggregator
func (a *Mean) ToBytes() ([]byte, error) {
	sumState, err := a.sum.ToBytes()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 24)
	copy(buf, sumState)
	binary.LittleEndian.PutUint64(buf[16:], a.count)
	return buf, nil
}

// FromBytes produces a new Aggregator from serialized state
func (a *Mean) FromBytes(buf []byte) (loom.Aggregator, error) {
	if len(buf) != 24 {
		return nil, fmt.Errorf("malformed Mean state: %d bytes", len(buf))
	}
	sum, err := a.sum.FromBytes(buf[:16])
	if err != nil {
		return nil, err
	}
	return &Mean{
		sum:   *sum.(*Sum),
		count: binary.LittleEndian.Uint64(buf[16:]),
	}, nil
}
