package exec

import (
	"encoding/json"
	"strconv"

	"github.com/loomdata/loom/internal/graph"
)

// Cond is a single column comparison within a filter predicate. Op is one
// of eq, ne, lt, le, gt, ge. A filter is the conjunction of its Conds.
type Cond struct {
	Col   string          `json:"col"`
	Op    string          `json:"op"`
	Value json.RawMessage `json:"value"`
}

func attr(key, value string) graph.Attr {
	return graph.Attr{Key: key, Value: value}
}

func jsonAttr(key string, v interface{}) graph.Attr {
	buf, _ := json.Marshal(v)
	return graph.Attr{Key: key, Value: string(buf)}
}

// LoadOp reads one source partition via a registered source and parser
func LoadOp(srcKind, locator, parserKind string, parserConf []byte, schemaJSON []byte) graph.Operation {
	return graph.Operation{Kind: "load", Attrs: []graph.Attr{
		attr("src", srcKind),
		attr("locator", locator),
		attr("parser", parserKind),
		attr("parserconf", string(parserConf)),
		attr("schema", string(schemaJSON)),
	}}
}

// SelectOp projects the named columns
func SelectOp(cols []string) graph.Operation {
	return graph.Operation{Kind: "select", Attrs: []graph.Attr{jsonAttr("cols", cols)}}
}

// FilterOp keeps rows satisfying the conjunction of conds
func FilterOp(conds []Cond) graph.Operation {
	return graph.Operation{Kind: "filter", Attrs: []graph.Attr{jsonAttr("pred", conds)}}
}

// HeadOp takes the first n rows of its input partition
func HeadOp(n int) graph.Operation {
	return graph.Operation{Kind: "head", Attrs: []graph.Attr{attr("n", strconv.Itoa(n))}}
}

// TailOp takes the last n rows of its input partition
func TailOp(n int) graph.Operation {
	return graph.Operation{Kind: "tail", Attrs: []graph.Attr{attr("n", strconv.Itoa(n))}}
}

// LocOp keeps rows whose index column value lies in [lo, hi] (inclusive)
func LocOp(col string, lo, hi json.RawMessage) graph.Operation {
	return graph.Operation{Kind: "loc", Attrs: []graph.Attr{
		attr("col", col),
		attr("lo", string(lo)),
		attr("hi", string(hi)),
	}}
}

// ILocColsOp projects columns by position
func ILocColsOp(idxs []int) graph.Operation {
	return graph.Operation{Kind: "iloc_cols", Attrs: []graph.Attr{jsonAttr("idxs", idxs)}}
}

// AggPartOp folds an input partition into a partition-local aggregation state
func AggPartOp(aggKind, col string) graph.Operation {
	return graph.Operation{Kind: "agg_part", Attrs: []graph.Attr{
		attr("agg", aggKind),
		attr("col", col),
	}}
}

// AggMergeOp merges the aggregation states of its inputs. Merge tasks are
// arranged in a balanced binary tree so floating-point partials combine
// pairwise.
func AggMergeOp() graph.Operation {
	return graph.Operation{Kind: "agg_merge"}
}

// ScatterHashOp splits a partition into nbuckets buckets by key hash
func ScatterHashOp(nbuckets int, keyCols []string) graph.Operation {
	return graph.Operation{Kind: "scatter_hash", Attrs: []graph.Attr{
		attr("nbuckets", strconv.Itoa(nbuckets)),
		jsonAttr("keycols", keyCols),
	}}
}

// ScatterRoundRobinOp splits a partition into nbuckets buckets row by row
func ScatterRoundRobinOp(nbuckets int) graph.Operation {
	return graph.Operation{Kind: "scatter_rr", Attrs: []graph.Attr{
		attr("nbuckets", strconv.Itoa(nbuckets)),
	}}
}

// GatherOp concatenates one bucket from each scattered input
func GatherOp(bucket int) graph.Operation {
	return graph.Operation{Kind: "gather", Attrs: []graph.Attr{
		attr("bucket", strconv.Itoa(bucket)),
	}}
}

// ConcatOp concatenates its input partitions into one
func ConcatOp() graph.Operation {
	return graph.Operation{Kind: "concat"}
}

// GroupPartOp pre-aggregates a partition into (key, aggregation state) rows
func GroupPartOp(keyCols []string, aggKind, col string) graph.Operation {
	return graph.Operation{Kind: "group_part", Attrs: []graph.Attr{
		jsonAttr("keycols", keyCols),
		attr("agg", aggKind),
		attr("col", col),
	}}
}

// GroupFinalOp merges (key, state) rows into final per-group values
func GroupFinalOp(keyCols []string, aggKind, col, out string) graph.Operation {
	return graph.Operation{Kind: "group_final", Attrs: []graph.Attr{
		jsonAttr("keycols", keyCols),
		attr("agg", aggKind),
		attr("col", col),
		attr("out", out),
	}}
}

// SortOp orders a partition's rows by the given column
func SortOp(col string) graph.Operation {
	return graph.Operation{Kind: "sort", Attrs: []graph.Attr{attr("col", col)}}
}

// SampleOp takes up to n evenly spaced values of a column, for division
// estimation
func SampleOp(col string, n int) graph.Operation {
	return graph.Operation{Kind: "sample", Attrs: []graph.Attr{
		attr("col", col),
		attr("n", strconv.Itoa(n)),
	}}
}

// DivisionsOp derives nout-1 partition boundaries from sampled key values
func DivisionsOp(col string, nout int) graph.Operation {
	return graph.Operation{Kind: "divisions", Attrs: []graph.Attr{
		attr("col", col),
		attr("nout", strconv.Itoa(nout)),
	}}
}

// ScatterRangeOp splits a partition by comparing an index column against
// division boundaries (second input)
func ScatterRangeOp(col string) graph.Operation {
	return graph.Operation{Kind: "scatter_range", Attrs: []graph.Attr{attr("col", col)}}
}

// RollingOp computes a windowed aggregate over a column. When hasCarry is
// true the second input partition supplies the preceding partition's tail
// rows, so windows spanning a partition boundary see their full history.
func RollingOp(col string, window int, fn string, idxCol string, hasCarry bool) graph.Operation {
	carry := "0"
	if hasCarry {
		carry = "1"
	}
	return graph.Operation{Kind: "rolling", Attrs: []graph.Attr{
		attr("col", col),
		attr("window", strconv.Itoa(window)),
		attr("fn", fn),
		attr("idxcol", idxCol),
		attr("carry", carry),
	}}
}

// JoinOp inner-joins two co-bucketed partitions on the named columns
func JoinOp(on []string) graph.Operation {
	return graph.Operation{Kind: "join", Attrs: []graph.Attr{jsonAttr("on", on)}}
}
