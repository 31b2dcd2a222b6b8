package dataframe

import (
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
)

// sampleSize is the number of key values sampled per partition when
// estimating range-partition boundaries for SetIndex
const sampleSize = 20

// SetIndex range-partitions the frame by the given column and sorts each
// partition by it, so partition order plus row order yields a globally
// sorted frame. Boundaries are estimated from a per-partition sample of
// the key column; the partition count is preserved but row counts per
// partition depend on the key distribution. Loc and ordered Rolling
// require an indexed frame.
func (df *DataFrame) SetIndex(col string) (*DataFrame, error) {
	if err := df.requireTable("set_index"); err != nil {
		return nil, err
	}
	if !df.schema.HasColumn(col) {
		return nil, errors.NoSuchColumnError{Name: col}
	}
	g := df.sess.Graph()
	nout := len(df.parts)

	samples := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		t, err := g.Apply(exec.SampleOp(col, sampleSize), p)
		if err != nil {
			return nil, err
		}
		samples[i] = t
	}
	divisions, err := g.Apply(exec.DivisionsOp(col, nout), samples...)
	if err != nil {
		return nil, err
	}
	scatters := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		t, err := g.Apply(exec.ScatterRangeOp(col), p, divisions)
		if err != nil {
			return nil, err
		}
		scatters[i] = t
	}
	out := make([]*graph.Task, nout)
	for b := 0; b < nout; b++ {
		gathered, err := g.Apply(exec.GatherOp(b), scatters...)
		if err != nil {
			return nil, err
		}
		out[b], err = g.Apply(exec.SortOp(col), gathered)
		if err != nil {
			return nil, err
		}
	}
	return newFrame(df.sess, df.schema.Clone(), out, col), nil
}
