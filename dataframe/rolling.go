package dataframe

import (
	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/schema"
)

// Rolling is a deferred windowed aggregation. Windows follow the frame's
// partition order: each partition's computation additionally receives the
// tail of the preceding partition, so windows spanning a partition
// boundary see their full history. The first window-1 rows of the frame
// aggregate over however many values exist (min_periods semantics of 1).
type Rolling struct {
	df     *DataFrame
	window int
	err    error
}

// Rolling opens a windowed aggregation of the given window size over this
// frame. For meaningful results the frame should be ordered, e.g. via
// SetIndex.
func (df *DataFrame) Rolling(window int) *Rolling {
	r := &Rolling{df: df, window: window}
	if err := df.requireTable("rolling"); err != nil {
		r.err = err
		return r
	}
	if window < 1 {
		r.err = errors.UnsupportedOperationError{Op: "rolling", Reason: "window must be positive"}
	}
	return r
}

// Sum computes the windowed sum of a column
func (r *Rolling) Sum(col string) (*DataFrame, error) {
	return r.apply("sum", col)
}

// Mean computes the windowed mean of a column
func (r *Rolling) Mean(col string) (*DataFrame, error) {
	return r.apply("mean", col)
}

func (r *Rolling) apply(fn, col string) (*DataFrame, error) {
	if r.err != nil {
		return nil, r.err
	}
	df := r.df
	if !df.schema.HasColumn(col) {
		return nil, errors.NoSuchColumnError{Name: col}
	}
	g := df.sess.Graph()
	out := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		hasCarry := i > 0 && r.window > 1
		op := exec.RollingOp(col, r.window, fn, df.indexCol, hasCarry)
		var t *graph.Task
		var err error
		if hasCarry {
			carry, cerr := g.Apply(exec.TailOp(r.window-1), df.parts[i-1])
			if cerr != nil {
				return nil, cerr
			}
			t, err = g.Apply(op, p, carry)
		} else {
			t, err = g.Apply(op, p)
		}
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	outSchema, err := rollingSchema(df.schema, df.indexCol, col)
	if err != nil {
		return nil, err
	}
	return newFrame(df.sess, outSchema, out, df.indexCol), nil
}

// rollingSchema builds the output schema of a windowed aggregation: the
// index column (when present) followed by the aggregated column as
// float64
func rollingSchema(in loom.Schema, indexCol, col string) (loom.Schema, error) {
	s := schema.CreateSchema()
	if indexCol != "" {
		idx, err := in.GetColumn(indexCol)
		if err != nil {
			return nil, err
		}
		if _, err := s.CreateColumn(indexCol, idx.Type()); err != nil {
			return nil, err
		}
	}
	if _, err := s.CreateColumn(col, &loom.Float64ColumnType{}); err != nil {
		return nil, err
	}
	return s, nil
}
