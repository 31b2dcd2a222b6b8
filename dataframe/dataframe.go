// Package dataframe implements loom's public query surface: an immutable,
// lazily-evaluated, partitioned frame of typed columns. Transformations
// record operations in the owning Session's computation graph and return
// new frames; no data moves until Compute is called. Structurally
// identical frames built against one Session share graph tasks by
// fingerprint, so computing them together executes the shared work once.
package dataframe

import (
	"context"
	"io"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/cluster"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/schema"
)

// DataFrame is an immutable view over a partitioned dataset. A frame is
// either table-shaped (one graph task per partition) or scalar-shaped (a
// single aggregation task produced by a whole-frame reduction).
type DataFrame struct {
	sess     *cluster.Session
	schema   loom.Schema
	parts    []*graph.Task
	aggRoot  *graph.Task // set instead of parts for scalar frames
	aggName  string      // result column name of a scalar frame
	indexCol string      // non-empty once SetIndex has ordered the frame
	handles  []*graph.Handle
}

type readConf struct {
	nPartitions int
}

// ReadOption configures Read
type ReadOption func(*readConf)

// WithNPartitions repartitions the source into n partitions immediately
// after loading, regardless of how many loadable units the source
// analyzes into
func WithNPartitions(n int) ReadOption {
	return func(c *readConf) {
		c.nPartitions = n
	}
}

// Read creates a DataFrame over a DataSource. The source is analyzed into
// independently-loadable partitions, but no data is read until the frame
// is computed. The declared schema binds column names and types; values
// which fail to coerce surface as SchemaInferenceErrors at compute time.
func Read(sess *cluster.Session, src loom.DataSource, parser loom.DataSourceParser, declared loom.Schema, opts ...ReadOption) (*DataFrame, error) {
	var conf readConf
	for _, opt := range opts {
		opt(&conf)
	}
	loaders, err := src.Analyze()
	if err != nil {
		return nil, err
	}
	if len(loaders) == 0 {
		return nil, errors.NoMorePartitionsError{}
	}
	parserConf, err := parser.EncodeConf()
	if err != nil {
		return nil, err
	}
	schemaJSON, err := schema.Encode(declared)
	if err != nil {
		return nil, err
	}
	g := sess.Graph()
	parts := make([]*graph.Task, len(loaders))
	for i, l := range loaders {
		t, err := g.Apply(exec.LoadOp(src.Kind(), l.Locator(), parser.Kind(), parserConf, schemaJSON))
		if err != nil {
			return nil, err
		}
		parts[i] = t
	}
	df := newFrame(sess, declared.Clone(), parts, "")
	if conf.nPartitions > 0 && conf.nPartitions != len(parts) {
		rep, err := df.Repartition(conf.nPartitions)
		df.Release()
		if err != nil {
			return nil, err
		}
		return rep, nil
	}
	return df, nil
}

// newFrame assembles a table-shaped frame, registering a graph handle per
// partition task so the tasks survive garbage collection until Release
func newFrame(sess *cluster.Session, s loom.Schema, parts []*graph.Task, indexCol string) *DataFrame {
	df := &DataFrame{sess: sess, schema: s, parts: parts, indexCol: indexCol}
	g := sess.Graph()
	for _, t := range parts {
		df.handles = append(df.handles, g.NewHandle(t))
	}
	return df
}

// newScalarFrame assembles a scalar-shaped frame around an aggregation
// task
func newScalarFrame(sess *cluster.Session, s loom.Schema, root *graph.Task, aggName string) *DataFrame {
	return &DataFrame{
		sess:    sess,
		schema:  s,
		aggRoot: root,
		aggName: aggName,
		handles: []*graph.Handle{sess.Graph().NewHandle(root)},
	}
}

// Schema returns this frame's Schema
func (df *DataFrame) Schema() loom.Schema {
	return df.schema
}

// NumPartitions returns the number of partitions this frame evaluates to
func (df *DataFrame) NumPartitions() int {
	if df.aggRoot != nil {
		return 1
	}
	return len(df.parts)
}

// IndexColumn returns the column this frame is indexed by, or "" if
// SetIndex has not been applied
func (df *DataFrame) IndexColumn() string {
	return df.indexCol
}

// targets returns the graph tasks which must materialize to compute this
// frame
func (df *DataFrame) targets() []*graph.Task {
	if df.aggRoot != nil {
		return []*graph.Task{df.aggRoot}
	}
	return df.parts
}

// Release drops this frame's references into the computation graph,
// allowing tasks reachable only through it to be garbage-collected. The
// frame must not be used afterwards.
func (df *DataFrame) Release() {
	for _, h := range df.handles {
		h.Release()
	}
}

// mapParts applies a per-partition operation to every partition task,
// yielding a frame with the given schema
func (df *DataFrame) mapParts(op graph.Operation, s loom.Schema, indexCol string) (*DataFrame, error) {
	g := df.sess.Graph()
	out := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		t, err := g.Apply(op, p)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return newFrame(df.sess, s, out, indexCol), nil
}

// requireTable rejects operations that only make sense on table-shaped
// frames
func (df *DataFrame) requireTable(op string) error {
	if df.aggRoot != nil {
		return errors.UnsupportedOperationError{Op: op, Reason: "frame has been reduced to a scalar"}
	}
	return nil
}

// Select projects the named columns, in the given order
func (df *DataFrame) Select(cols ...string) (*DataFrame, error) {
	if err := df.requireTable("select"); err != nil {
		return nil, err
	}
	outSchema, err := projectedSchema(df.schema, cols)
	if err != nil {
		return nil, err
	}
	indexCol := ""
	if outSchema.HasColumn(df.indexCol) {
		indexCol = df.indexCol
	}
	return df.mapParts(exec.SelectOp(cols), outSchema, indexCol)
}

// ILocCols projects columns by position
func (df *DataFrame) ILocCols(idxs ...int) (*DataFrame, error) {
	if err := df.requireTable("iloc_cols"); err != nil {
		return nil, err
	}
	names := df.schema.ColumnNames()
	cols := make([]string, len(idxs))
	for i, idx := range idxs {
		if idx < 0 || idx >= len(names) {
			return nil, errors.NoSuchColumnError{Name: "column position out of range"}
		}
		cols[i] = names[idx]
	}
	outSchema, err := projectedSchema(df.schema, cols)
	if err != nil {
		return nil, err
	}
	indexCol := ""
	if outSchema.HasColumn(df.indexCol) {
		indexCol = df.indexCol
	}
	return df.mapParts(exec.ILocColsOp(idxs), outSchema, indexCol)
}

// Repartition redistributes rows round-robin into n partitions. Row
// content is preserved; index ordering is not, so the result is
// unindexed.
func (df *DataFrame) Repartition(n int) (*DataFrame, error) {
	if err := df.requireTable("repartition"); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.UnsupportedOperationError{Op: "repartition", Reason: "partition count must be positive"}
	}
	g := df.sess.Graph()
	scatters := make([]*graph.Task, len(df.parts))
	for i, p := range df.parts {
		t, err := g.Apply(exec.ScatterRoundRobinOp(n), p)
		if err != nil {
			return nil, err
		}
		scatters[i] = t
	}
	out := make([]*graph.Task, n)
	for b := 0; b < n; b++ {
		t, err := g.Apply(exec.GatherOp(b), scatters...)
		if err != nil {
			return nil, err
		}
		out[b] = t
	}
	return newFrame(df.sess, df.schema.Clone(), out, ""), nil
}

// Persist pins this frame's computed partitions in worker memory so later
// computations against the same Session reuse them. Partitions not yet
// computed are pinned when they first materialize.
func (df *DataFrame) Persist(ctx context.Context) error {
	fps := make([]uint64, 0, len(df.targets()))
	for _, t := range df.targets() {
		fps = append(fps, t.Fingerprint())
	}
	return df.sess.Persist(ctx, fps...)
}

// Unpersist releases this frame's pins, returning its partitions to the
// workers' evictable pools
func (df *DataFrame) Unpersist(ctx context.Context) error {
	fps := make([]uint64, 0, len(df.targets()))
	for _, t := range df.targets() {
		fps = append(fps, t.Fingerprint())
	}
	return df.sess.Release(ctx, fps...)
}

// DOT writes the computation required by this frame as a graphviz
// digraph, for inspection
func (df *DataFrame) DOT(w io.Writer) error {
	return graph.WriteDOT(w, df.targets())
}

// projectedSchema builds the schema of a column projection, columns in
// projection order
func projectedSchema(in loom.Schema, cols []string) (loom.Schema, error) {
	out := schema.CreateSchema()
	for _, name := range cols {
		col, err := in.GetColumn(name)
		if err != nil {
			return nil, err
		}
		if _, err := out.CreateColumn(name, col.Type()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
