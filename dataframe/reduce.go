package dataframe

import (
	"context"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/schema"
)

// Count reduces this frame to a scalar frame holding its total row count
func (df *DataFrame) Count() (*DataFrame, error) {
	return df.reduce("count", "", "count")
}

// Sum reduces a column to its total. Partition partials are combined with
// compensated summation, so the result does not drift with partition
// count.
func (df *DataFrame) Sum(col string) (*DataFrame, error) {
	return df.reduce("sum", col, col)
}

// Mean reduces a column to its average
func (df *DataFrame) Mean(col string) (*DataFrame, error) {
	return df.reduce("mean", col, col)
}

// Min reduces a column to its minimum
func (df *DataFrame) Min(col string) (*DataFrame, error) {
	return df.reduce("min", col, col)
}

// Max reduces a column to its maximum
func (df *DataFrame) Max(col string) (*DataFrame, error) {
	return df.reduce("max", col, col)
}

// Std reduces a column to its population standard deviation
func (df *DataFrame) Std(col string) (*DataFrame, error) {
	return df.reduce("std", col, col)
}

// reduce builds a whole-frame reduction: a partial aggregation per
// partition, merged pairwise in a balanced binary tree so floating-point
// partials always combine two at a time regardless of partition count
func (df *DataFrame) reduce(aggKind, col, out string) (*DataFrame, error) {
	if err := df.requireTable(aggKind); err != nil {
		return nil, err
	}
	if col != "" && !df.schema.HasColumn(col) {
		return nil, errors.NoSuchColumnError{Name: col}
	}
	g := df.sess.Graph()
	level := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		t, err := g.Apply(exec.AggPartOp(aggKind, col), p)
		if err != nil {
			return nil, err
		}
		level[i] = t
	}
	root, err := mergeTree(g, level)
	if err != nil {
		return nil, err
	}
	var outType loom.ColumnType = &loom.Float64ColumnType{}
	if aggKind == "count" {
		outType = &loom.Int64ColumnType{}
	}
	s := schema.CreateSchema()
	if _, err := s.CreateColumn(out, outType); err != nil {
		return nil, err
	}
	return newScalarFrame(df.sess, s, root, out), nil
}

// mergeTree folds aggregation tasks pairwise until one remains
func mergeTree(g *graph.Graph, level []*graph.Task) (*graph.Task, error) {
	for len(level) > 1 {
		next := make([]*graph.Task, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			t, err := g.Apply(exec.AggMergeOp(), level[i], level[i+1])
			if err != nil {
				return nil, err
			}
			next = append(next, t)
		}
		level = next
	}
	return level[0], nil
}

// Scalar computes this frame and returns its single value. The frame must
// be scalar-shaped, as produced by a whole-frame reduction.
func (df *DataFrame) Scalar(ctx context.Context) (interface{}, error) {
	if df.aggRoot == nil {
		return nil, errors.UnsupportedOperationError{Op: "scalar", Reason: "frame is table-shaped; reduce it first"}
	}
	tables, err := Compute(ctx, df)
	if err != nil {
		return nil, err
	}
	return tables[0].Scalar()
}
