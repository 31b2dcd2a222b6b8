package aggregate

import (
	"encoding/binary"
	"fmt"

	"github.com/loomdata/loom"
)

// Counter returns a factory for Count Aggregators
func Counter() func() loom.Aggregator {
	return func() loom.Aggregator {
		return &Count{}
	}
}

// Count counts rows
type Count struct {
	count uint64
}

// Kind returns the registered name of this Aggregator type
func (a *Count) Kind() string { return "count" }

// Accumulate folds a row into this Aggregator
func (a *Count) Accumulate(row loom.Row) error {
	a.count++
	return nil
}

// Merge merges another Aggregator into this one
func (a *Count) Merge(o loom.Aggregator) error {
	ca, ok := o.(*Count)
	if !ok {
		return fmt.Errorf("incoming aggregator is not a Count")
	}
	a.count += ca.count
	return nil
}

// Value returns the current row count
func (a *Count) Value() interface{} {
	return int64(a.count)
}

// ToBytes serializes this Aggregator
func (a *Count) ToBytes() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, a.count)
	return buf, nil
}

// FromBytes produces a new Aggregator from serialized state
func (a *Count) FromBytes(buf []byte) (loom.Aggregator, error) {
	if len(buf) != 8 {
		return nil, fmt.Errorf("malformed Count state: %d bytes", len(buf))
	}
	return &Count{count: binary.LittleEndian.Uint64(buf)}, nil
}
