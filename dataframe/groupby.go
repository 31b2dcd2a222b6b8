package dataframe

import (
	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/schema"
)

// GroupBy is a deferred grouping of a frame by key columns. Terminal
// methods (Count, Sum, ...) record the full grouped-reduction pipeline in
// the graph: per-partition pre-aggregation, a hash shuffle of partial
// states by key, and a per-bucket merge into final values. Each output
// group appears in exactly one output partition.
type GroupBy struct {
	df   *DataFrame
	keys []string
	err  error
}

// GroupBy groups this frame by the given key columns
func (df *DataFrame) GroupBy(keys ...string) *GroupBy {
	gb := &GroupBy{df: df, keys: keys}
	if err := df.requireTable("groupby"); err != nil {
		gb.err = err
		return gb
	}
	if len(keys) == 0 {
		gb.err = errors.UnsupportedOperationError{Op: "groupby", Reason: "at least one key column is required"}
		return gb
	}
	for _, k := range keys {
		if !df.schema.HasColumn(k) {
			gb.err = errors.NoSuchColumnError{Name: k}
			return gb
		}
	}
	return gb
}

type groupConf struct {
	splitOut int
}

// GroupOption configures a grouped reduction
type GroupOption func(*groupConf)

// SplitOut spreads the reduction's output groups over n partitions
// instead of the default single partition
func SplitOut(n int) GroupOption {
	return func(c *groupConf) {
		c.splitOut = n
	}
}

// Count counts the rows of each group. The output column is named count.
func (gb *GroupBy) Count(opts ...GroupOption) (*DataFrame, error) {
	return gb.reduce("count", "", "count", opts)
}

// Sum sums a column within each group
func (gb *GroupBy) Sum(col string, opts ...GroupOption) (*DataFrame, error) {
	return gb.reduce("sum", col, col, opts)
}

// Mean averages a column within each group
func (gb *GroupBy) Mean(col string, opts ...GroupOption) (*DataFrame, error) {
	return gb.reduce("mean", col, col, opts)
}

// Min takes the minimum of a column within each group
func (gb *GroupBy) Min(col string, opts ...GroupOption) (*DataFrame, error) {
	return gb.reduce("min", col, col, opts)
}

// Max takes the maximum of a column within each group
func (gb *GroupBy) Max(col string, opts ...GroupOption) (*DataFrame, error) {
	return gb.reduce("max", col, col, opts)
}

// Std takes the population standard deviation of a column within each group
func (gb *GroupBy) Std(col string, opts ...GroupOption) (*DataFrame, error) {
	return gb.reduce("std", col, col, opts)
}

func (gb *GroupBy) reduce(aggKind, col, out string, opts []GroupOption) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	df := gb.df
	if col != "" && !df.schema.HasColumn(col) {
		return nil, errors.NoSuchColumnError{Name: col}
	}
	conf := groupConf{splitOut: 1}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.splitOut < 1 {
		return nil, errors.UnsupportedOperationError{Op: "groupby", Reason: "split_out must be positive"}
	}
	g := df.sess.Graph()
	// pre-aggregate each partition into (key, state) rows, then shuffle
	// the partials by key hash so every group lands in one bucket
	scatters := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		partial, err := g.Apply(exec.GroupPartOp(gb.keys, aggKind, col), p)
		if err != nil {
			return nil, err
		}
		scatters[i], err = g.Apply(exec.ScatterHashOp(conf.splitOut, gb.keys), partial)
		if err != nil {
			return nil, err
		}
	}
	outParts := make([]*graph.Task, conf.splitOut)
	for b := 0; b < conf.splitOut; b++ {
		gathered, err := g.Apply(exec.GatherOp(b), scatters...)
		if err != nil {
			return nil, err
		}
		outParts[b], err = g.Apply(exec.GroupFinalOp(gb.keys, aggKind, col, out), gathered)
		if err != nil {
			return nil, err
		}
	}
	outSchema, err := groupedSchema(df.schema, gb.keys, aggKind, out)
	if err != nil {
		return nil, err
	}
	return newFrame(df.sess, outSchema, outParts, ""), nil
}

// groupedSchema builds the output schema of a grouped reduction: the key
// columns followed by the aggregate column
func groupedSchema(in loom.Schema, keys []string, aggKind, out string) (loom.Schema, error) {
	s := schema.CreateSchema()
	for _, k := range keys {
		col, err := in.GetColumn(k)
		if err != nil {
			return nil, err
		}
		if _, err := s.CreateColumn(k, col.Type()); err != nil {
			return nil, err
		}
	}
	var outType loom.ColumnType = &loom.Float64ColumnType{}
	if aggKind == "count" {
		outType = &loom.Int64ColumnType{}
	}
	if _, err := s.CreateColumn(out, outType); err != nil {
		return nil, err
	}
	return s, nil
}
