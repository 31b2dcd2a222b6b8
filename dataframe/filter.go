package dataframe

import (
	"encoding/json"

	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
)

// Cond is a single column comparison within a filter predicate. Build
// Conds with the Eq/Ne/Lt/Le/Gt/Ge constructors; a Filter keeps the rows
// satisfying all of its Conds. Rows with a nil value in a compared column
// never satisfy a Cond.
type Cond struct {
	col   string
	op    string
	value json.RawMessage
	err   error
}

func makeCond(col, op string, value interface{}) Cond {
	buf, err := json.Marshal(value)
	return Cond{col: col, op: op, value: buf, err: err}
}

// Eq matches rows whose column equals value
func Eq(col string, value interface{}) Cond { return makeCond(col, "eq", value) }

// Ne matches rows whose column differs from value
func Ne(col string, value interface{}) Cond { return makeCond(col, "ne", value) }

// Lt matches rows whose column is less than value
func Lt(col string, value interface{}) Cond { return makeCond(col, "lt", value) }

// Le matches rows whose column is at most value
func Le(col string, value interface{}) Cond { return makeCond(col, "le", value) }

// Gt matches rows whose column is greater than value
func Gt(col string, value interface{}) Cond { return makeCond(col, "gt", value) }

// Ge matches rows whose column is at least value
func Ge(col string, value interface{}) Cond { return makeCond(col, "ge", value) }

// Filter keeps the rows satisfying the conjunction of conds. Partitioning
// is preserved: each partition is filtered in place, without a shuffle.
func (df *DataFrame) Filter(conds ...Cond) (*DataFrame, error) {
	if err := df.requireTable("filter"); err != nil {
		return nil, err
	}
	wire := make([]exec.Cond, len(conds))
	for i, c := range conds {
		if c.err != nil {
			return nil, c.err
		}
		if !df.schema.HasColumn(c.col) {
			return nil, errors.NoSuchColumnError{Name: c.col}
		}
		wire[i] = exec.Cond{Col: c.col, Op: c.op, Value: c.value}
	}
	return df.mapParts(exec.FilterOp(wire), df.schema.Clone(), df.indexCol)
}

// Head returns the first n rows of the first partition as a single-
// partition frame. Once data is distributed no global row order is
// tracked, so Head is scoped to the first partition rather than the whole
// frame.
func (df *DataFrame) Head(n int) (*DataFrame, error) {
	if err := df.requireTable("head"); err != nil {
		return nil, err
	}
	g := df.sess.Graph()
	t, err := g.Apply(exec.HeadOp(n), df.parts[0])
	if err != nil {
		return nil, err
	}
	return newFrame(df.sess, df.schema.Clone(), []*graph.Task{t}, df.indexCol), nil
}

// Tail returns the last n rows of the last partition as a single-
// partition frame
func (df *DataFrame) Tail(n int) (*DataFrame, error) {
	if err := df.requireTable("tail"); err != nil {
		return nil, err
	}
	g := df.sess.Graph()
	t, err := g.Apply(exec.TailOp(n), df.parts[len(df.parts)-1])
	if err != nil {
		return nil, err
	}
	return newFrame(df.sess, df.schema.Clone(), []*graph.Task{t}, df.indexCol), nil
}

// Loc keeps the rows whose index value lies in [lo, hi], inclusive on
// both ends. The frame must be indexed with SetIndex first.
func (df *DataFrame) Loc(lo, hi interface{}) (*DataFrame, error) {
	if err := df.requireTable("loc"); err != nil {
		return nil, err
	}
	if df.indexCol == "" {
		return nil, errors.UnsupportedOperationError{Op: "loc", Reason: "frame has no index; call SetIndex first"}
	}
	loJSON, err := json.Marshal(lo)
	if err != nil {
		return nil, err
	}
	hiJSON, err := json.Marshal(hi)
	if err != nil {
		return nil, err
	}
	return df.mapParts(exec.LocOp(df.indexCol, loJSON, hiJSON), df.schema.Clone(), df.indexCol)
}

// ILocRows slices rows [lo, hi) by position. Positional slicing is only
// well-defined when the frame occupies a single partition; multi-partition
// frames fail with an UnsupportedOperationError.
func (df *DataFrame) ILocRows(lo, hi int) (*DataFrame, error) {
	if err := df.requireTable("iloc_rows"); err != nil {
		return nil, err
	}
	if len(df.parts) > 1 {
		return nil, errors.UnsupportedOperationError{
			Op:     "iloc_rows",
			Reason: "global row positions are not tracked across partitions; repartition to 1 first",
		}
	}
	if lo < 0 || hi < lo {
		return nil, errors.UnsupportedOperationError{Op: "iloc_rows", Reason: "invalid row range"}
	}
	g := df.sess.Graph()
	first, err := g.Apply(exec.HeadOp(hi), df.parts[0])
	if err != nil {
		return nil, err
	}
	t, err := g.Apply(exec.TailOp(hi-lo), first)
	if err != nil {
		return nil, err
	}
	return newFrame(df.sess, df.schema.Clone(), []*graph.Task{t}, df.indexCol), nil
}
