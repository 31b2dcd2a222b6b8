// Package exec interprets operation descriptors on workers. Operations
// carry no closures: every operation a dataframe can record is encoded as
// a kind plus attributes, and executed here by switching on the kind, so
// tasks can be dispatched to worker processes across a network boundary.
package exec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/internal/partition"
)

// AggState is the serialized state of an Aggregator partial result
type AggState struct {
	Kind  string
	Col   string
	State []byte
}

// Result is the materialized output of a single task: either one or more
// Partitions (shuffle scatters produce one per bucket), or an aggregation
// state. Exactly one of Parts/Agg is set.
type Result struct {
	Parts []loom.Partition
	Agg   *AggState
}

// NumRows returns the total number of rows across this Result's Partitions
func (r *Result) NumRows() int {
	total := 0
	for _, p := range r.Parts {
		total += p.GetNumRows()
	}
	return total
}

// wireResult is the serialized form of a Result
type wireResult struct {
	Parts [][]byte
	Agg   *AggState
}

// ToBytes serializes a Result for transfer between nodes
func (r *Result) ToBytes() ([]byte, error) {
	wire := &wireResult{Agg: r.Agg}
	for _, p := range r.Parts {
		buf, err := partition.ToBytes(p)
		if err != nil {
			return nil, err
		}
		wire.Parts = append(wire.Parts, buf)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ResultFromBytes deserializes a Result produced by ToBytes
func ResultFromBytes(buf []byte) (*Result, error) {
	var wire wireResult
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&wire); err != nil {
		return nil, err
	}
	res := &Result{Agg: wire.Agg}
	for _, pbuf := range wire.Parts {
		p, err := partition.FromBytes(pbuf)
		if err != nil {
			return nil, err
		}
		res.Parts = append(res.Parts, p)
	}
	return res, nil
}

// singlePart returns the lone Partition of a table-shaped Result
func singlePart(r *Result) (loom.Partition, error) {
	if r == nil || len(r.Parts) != 1 {
		return nil, fmt.Errorf("expected a single-partition result")
	}
	return r.Parts[0], nil
}
