package aggregate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/loomdata/loom"
)

// Deviator returns a factory for Std Aggregators over the named column
func Deviator(colName string) func() loom.Aggregator {
	return func() loom.Aggregator {
		return &Std{colName: colName}
	}
}

// Std computes the population standard deviation of a numeric column via
// Welford's online update, carrying (count, mean, M2). Partial states are
// merged with the parallel-variance update of Chan et al., which is exact
// under merging.
type Std struct {
	colName string
	count   uint64
	mean    float64
	m2      float64
}

// Kind returns the registered name of this Aggregator type
func (a *Std) Kind() string { return "std" }

// Accumulate folds a row into this Aggregator
func (a *Std) Accumulate(row loom.Row) error {
	v, err := row.GetFloat64(a.colName)
	if err != nil {
		return err
	}
	a.count++
	delta := v - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (v - a.mean)
	return nil
}

// Merge merges another Aggregator into this one
func (a *Std) Merge(o loom.Aggregator) error {
	ca, ok := o.(*Std)
	if !ok {
		return fmt.Errorf("incoming aggregator is not a Std")
	}
	if ca.count == 0 {
		return nil
	}
	if a.count == 0 {
		a.count, a.mean, a.m2 = ca.count, ca.mean, ca.m2
		return nil
	}
	na, nb := float64(a.count), float64(ca.count)
	delta := ca.mean - a.mean
	total := na + nb
	a.m2 += ca.m2 + delta*delta*na*nb/total
	a.mean += delta * nb / total
	a.count += ca.count
	return nil
}

// Value returns the current standard deviation, or NaN over zero rows
func (a *Std) Value() interface{} {
	if a.count == 0 {
		return math.NaN()
	}
	return math.Sqrt(a.m2 / float64(a.count))
}

// ToBytes serializes this Aggregator
func (a *Std) ToBytes() ([]byte, error) {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf, a.count)
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(a.mean))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(a.m2))
	return buf, nil
}

// FromBytes produces a new Aggregator from serialized state
func (a *Std) FromBytes(buf []byte) (loom.Aggregator, error) {
	if len(buf) != 24 {
		return nil, fmt.Errorf("malformed Std state: %d bytes", len(buf))
	}
	return &Std{
		colName: a.colName,
		count:   binary.LittleEndian.Uint64(buf),
		mean:    math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
		m2:      math.Float64frombits(binary.LittleEndian.Uint64(buf[16:])),
	}, nil
}
