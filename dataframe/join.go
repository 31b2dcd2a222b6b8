package dataframe

import (
	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/schema"
)

// Join inner-joins this frame with another on the given key columns. Both
// sides are hash-shuffled by key into matching buckets, then each bucket
// pair is joined independently; the output has one partition per bucket.
// The result carries the left frame's columns followed by the right
// frame's non-key columns, with a _right suffix on any name collision.
// Rows without a match on the other side are dropped.
func (df *DataFrame) Join(other *DataFrame, on ...string) (*DataFrame, error) {
	if err := df.requireTable("join"); err != nil {
		return nil, err
	}
	if err := other.requireTable("join"); err != nil {
		return nil, err
	}
	if df.sess != other.sess {
		return nil, errors.GraphConstructionError{Reason: "cannot join frames from different sessions"}
	}
	if len(on) == 0 {
		return nil, errors.UnsupportedOperationError{Op: "join", Reason: "at least one key column is required"}
	}
	for _, k := range on {
		if !df.schema.HasColumn(k) {
			return nil, errors.NoSuchColumnError{Name: k}
		}
		if !other.schema.HasColumn(k) {
			return nil, errors.NoSuchColumnError{Name: k}
		}
	}
	nb := len(df.parts)
	if len(other.parts) > nb {
		nb = len(other.parts)
	}
	g := df.sess.Graph()
	leftBuckets, err := shuffleByKey(g, df.parts, on, nb)
	if err != nil {
		return nil, err
	}
	rightBuckets, err := shuffleByKey(g, other.parts, on, nb)
	if err != nil {
		return nil, err
	}
	out := make([]*graph.Task, nb)
	for b := 0; b < nb; b++ {
		t, err := g.Apply(exec.JoinOp(on), leftBuckets[b], rightBuckets[b])
		if err != nil {
			return nil, err
		}
		out[b] = t
	}
	outSchema, err := joinedSchema(df.schema, other.schema, on)
	if err != nil {
		return nil, err
	}
	return newFrame(df.sess, outSchema, out, ""), nil
}

// shuffleByKey hash-scatters each partition into nb buckets by key and
// gathers matching buckets across partitions
func shuffleByKey(g *graph.Graph, parts []*graph.Task, keys []string, nb int) ([]*graph.Task, error) {
	scatters := make([]*graph.Task, len(parts))
	for i, p := range parts {
		t, err := g.Apply(exec.ScatterHashOp(nb, keys), p)
		if err != nil {
			return nil, err
		}
		scatters[i] = t
	}
	out := make([]*graph.Task, nb)
	for b := 0; b < nb; b++ {
		t, err := g.Apply(exec.GatherOp(b), scatters...)
		if err != nil {
			return nil, err
		}
		out[b] = t
	}
	return out, nil
}

// joinedSchema builds the output schema of an inner join: left columns,
// then right non-key columns, suffixing collisions with _right
func joinedSchema(left, right loom.Schema, on []string) (loom.Schema, error) {
	onSet := make(map[string]bool, len(on))
	for _, k := range on {
		onSet[k] = true
	}
	out := schema.CreateSchema()
	for _, name := range left.ColumnNames() {
		col, err := left.GetColumn(name)
		if err != nil {
			return nil, err
		}
		if _, err := out.CreateColumn(name, col.Type()); err != nil {
			return nil, err
		}
	}
	for _, name := range right.ColumnNames() {
		if onSet[name] {
			continue
		}
		col, err := right.GetColumn(name)
		if err != nil {
			return nil, err
		}
		outName := name
		if out.HasColumn(outName) {
			outName = name + "_right"
		}
		if _, err := out.CreateColumn(outName, col.Type()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
