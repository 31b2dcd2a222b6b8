package exec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/aggregate"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/internal/partition"
	"github.com/loomdata/loom/schema"
	"github.com/spaolacci/murmur3"
)

// stateCol is the reserved column carrying serialized aggregation states
// between the partial and final phases of a grouped reduction
const stateCol = "__state"

// Execute interprets a single operation over its materialized inputs.
// Operations are pure functions of their inputs, so execution is
// idempotent and any operation may be retried on a different worker.
func Execute(ctx context.Context, op graph.Operation, inputs []*Result) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch op.Kind {
	case "load":
		return execLoad(op)
	case "select":
		return execSelect(op, inputs)
	case "filter":
		return execFilter(op, inputs)
	case "head":
		return execHeadTail(op, inputs, true)
	case "tail":
		return execHeadTail(op, inputs, false)
	case "loc":
		return execLoc(op, inputs)
	case "iloc_cols":
		return execILocCols(op, inputs)
	case "agg_part":
		return execAggPart(op, inputs)
	case "agg_merge":
		return execAggMerge(inputs)
	case "scatter_hash":
		return execScatterHash(op, inputs)
	case "scatter_rr":
		return execScatterRoundRobin(op, inputs)
	case "gather":
		return execGather(op, inputs)
	case "concat":
		return execConcat(inputs)
	case "group_part":
		return execGroupPart(op, inputs)
	case "group_final":
		return execGroupFinal(op, inputs)
	case "sort":
		return execSort(op, inputs)
	case "sample":
		return execSample(op, inputs)
	case "divisions":
		return execDivisions(op, inputs)
	case "scatter_range":
		return execScatterRange(op, inputs)
	case "rolling":
		return execRolling(op, inputs)
	case "join":
		return execJoin(op, inputs)
	default:
		return nil, fmt.Errorf("unknown operation kind %s", op.Kind)
	}
}

func execLoad(op graph.Operation) (*Result, error) {
	declared, err := schema.Decode([]byte(op.Attr("schema")))
	if err != nil {
		return nil, err
	}
	parser, err := parserFor(op.Attr("parser"), []byte(op.Attr("parserconf")))
	if err != nil {
		return nil, err
	}
	r, err := openSource(op.Attr("src"), op.Attr("locator"))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	part, err := parser.Parse(r, declared)
	if err != nil {
		return nil, err
	}
	return &Result{Parts: []loom.Partition{part}}, nil
}

func execSelect(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	var cols []string
	if err := json.Unmarshal([]byte(op.Attr("cols")), &cols); err != nil {
		return nil, err
	}
	return projectColumns(part, cols)
}

func projectColumns(part loom.Partition, cols []string) (*Result, error) {
	inSchema := part.GetSchema()
	outSchema := schema.CreateSchema()
	idxs := make([]int, len(cols))
	for i, name := range cols {
		col, err := inSchema.GetColumn(name)
		if err != nil {
			return nil, err
		}
		if _, err := outSchema.CreateColumn(name, col.Type()); err != nil {
			return nil, err
		}
		idxs[i] = col.Index()
	}
	out := partition.CreatePartition(outSchema)
	for _, row := range partition.RawValues(part) {
		projected := make([]interface{}, len(idxs))
		for i, idx := range idxs {
			projected[i] = row[idx]
		}
		partition.AppendRawRow(out, projected)
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execFilter(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	var conds []Cond
	if err := json.Unmarshal([]byte(op.Attr("pred")), &conds); err != nil {
		return nil, err
	}
	inSchema := part.GetSchema()
	type compiled struct {
		idx int
		op  string
		lit interface{}
	}
	compiledConds := make([]compiled, len(conds))
	for i, c := range conds {
		col, err := inSchema.GetColumn(c.Col)
		if err != nil {
			return nil, err
		}
		lit, err := DecodeLiteral(col.Type(), c.Value)
		if err != nil {
			return nil, err
		}
		compiledConds[i] = compiled{idx: col.Index(), op: c.Op, lit: lit}
	}
	out := partition.CreatePartition(inSchema.Clone())
	for _, row := range partition.RawValues(part) {
		keep := true
		for _, c := range compiledConds {
			v := row[c.idx]
			if v == nil {
				keep = false
				break
			}
			cmp, err := CompareValues(v, c.lit)
			if err != nil {
				return nil, err
			}
			if !condHolds(c.op, cmp) {
				keep = false
				break
			}
		}
		if keep {
			partition.AppendRawRow(out, row)
		}
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func condHolds(op string, cmp int) bool {
	switch op {
	case "eq":
		return cmp == 0
	case "ne":
		return cmp != 0
	case "lt":
		return cmp < 0
	case "le":
		return cmp <= 0
	case "gt":
		return cmp > 0
	case "ge":
		return cmp >= 0
	default:
		return false
	}
}

func execHeadTail(op graph.Operation, inputs []*Result, head bool) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(op.Attr("n"))
	if err != nil {
		return nil, err
	}
	rows := partition.RawValues(part)
	if n > len(rows) {
		n = len(rows)
	}
	out := partition.CreatePartition(part.GetSchema().Clone())
	var selected [][]interface{}
	if head {
		selected = rows[:n]
	} else {
		selected = rows[len(rows)-n:]
	}
	for _, row := range selected {
		partition.AppendRawRow(out, row)
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execLoc(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	inSchema := part.GetSchema()
	col, err := inSchema.GetColumn(op.Attr("col"))
	if err != nil {
		return nil, err
	}
	lo, err := DecodeLiteral(col.Type(), json.RawMessage(op.Attr("lo")))
	if err != nil {
		return nil, err
	}
	hi, err := DecodeLiteral(col.Type(), json.RawMessage(op.Attr("hi")))
	if err != nil {
		return nil, err
	}
	out := partition.CreatePartition(inSchema.Clone())
	for _, row := range partition.RawValues(part) {
		v := row[col.Index()]
		if v == nil {
			continue
		}
		cmpLo, err := CompareValues(v, lo)
		if err != nil {
			return nil, err
		}
		cmpHi, err := CompareValues(v, hi)
		if err != nil {
			return nil, err
		}
		if cmpLo >= 0 && cmpHi <= 0 {
			partition.AppendRawRow(out, row)
		}
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execILocCols(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	var idxs []int
	if err := json.Unmarshal([]byte(op.Attr("idxs")), &idxs); err != nil {
		return nil, err
	}
	names := part.GetSchema().ColumnNames()
	cols := make([]string, len(idxs))
	for i, idx := range idxs {
		if idx < 0 || idx >= len(names) {
			return nil, fmt.Errorf("column position %d out of range [0,%d)", idx, len(names))
		}
		cols[i] = names[idx]
	}
	return projectColumns(part, cols)
}

func execAggPart(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	agg, err := aggregate.ForKind(op.Attr("agg"), op.Attr("col"))
	if err != nil {
		return nil, err
	}
	for i := 0; i < part.GetNumRows(); i++ {
		if err := agg.Accumulate(part.GetRow(i)); err != nil {
			return nil, err
		}
	}
	state, err := agg.ToBytes()
	if err != nil {
		return nil, err
	}
	return &Result{Agg: &AggState{Kind: agg.Kind(), Col: op.Attr("col"), State: state}}, nil
}

func execAggMerge(inputs []*Result) (*Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("agg_merge requires at least one input")
	}
	if inputs[0].Agg == nil {
		return nil, fmt.Errorf("agg_merge input has no aggregation state")
	}
	kind, col := inputs[0].Agg.Kind, inputs[0].Agg.Col
	proto, err := aggregate.ForKind(kind, col)
	if err != nil {
		return nil, err
	}
	acc, err := proto.FromBytes(inputs[0].Agg.State)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs[1:] {
		if in.Agg == nil {
			return nil, fmt.Errorf("agg_merge input has no aggregation state")
		}
		other, err := proto.FromBytes(in.Agg.State)
		if err != nil {
			return nil, err
		}
		if err := acc.Merge(other); err != nil {
			return nil, err
		}
	}
	state, err := acc.ToBytes()
	if err != nil {
		return nil, err
	}
	return &Result{Agg: &AggState{Kind: kind, Col: col, State: state}}, nil
}

func execScatterHash(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	nbuckets, err := strconv.Atoi(op.Attr("nbuckets"))
	if err != nil || nbuckets < 1 {
		return nil, fmt.Errorf("invalid bucket count %q", op.Attr("nbuckets"))
	}
	var keyCols []string
	if err := json.Unmarshal([]byte(op.Attr("keycols")), &keyCols); err != nil {
		return nil, err
	}
	outs := makeBuckets(part.GetSchema(), nbuckets)
	rows := partition.RawValues(part)
	for i := range rows {
		key, err := buildKey(part.GetRow(i), keyCols)
		if err != nil {
			return nil, err
		}
		bucket := int(murmur3.Sum64([]byte(key)) % uint64(nbuckets))
		partition.AppendRawRow(outs[bucket], rows[i])
	}
	return &Result{Parts: outs}, nil
}

func execScatterRoundRobin(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	nbuckets, err := strconv.Atoi(op.Attr("nbuckets"))
	if err != nil || nbuckets < 1 {
		return nil, fmt.Errorf("invalid bucket count %q", op.Attr("nbuckets"))
	}
	outs := makeBuckets(part.GetSchema(), nbuckets)
	for i, row := range partition.RawValues(part) {
		partition.AppendRawRow(outs[i%nbuckets], row)
	}
	return &Result{Parts: outs}, nil
}

func makeBuckets(s loom.Schema, n int) []loom.Partition {
	outs := make([]loom.Partition, n)
	for i := range outs {
		outs[i] = partition.CreatePartition(s.Clone())
	}
	return outs
}

func execGather(op graph.Operation, inputs []*Result) (*Result, error) {
	bucket, err := strconv.Atoi(op.Attr("bucket"))
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("gather requires at least one input")
	}
	if bucket < 0 || bucket >= len(inputs[0].Parts) {
		return nil, fmt.Errorf("bucket %d out of range [0,%d)", bucket, len(inputs[0].Parts))
	}
	out := partition.CreatePartition(inputs[0].Parts[bucket].GetSchema().Clone())
	for _, in := range inputs {
		if bucket >= len(in.Parts) {
			return nil, fmt.Errorf("gather input has only %d buckets", len(in.Parts))
		}
		for _, row := range partition.RawValues(in.Parts[bucket]) {
			partition.AppendRawRow(out, row)
		}
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execConcat(inputs []*Result) (*Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("concat requires at least one input")
	}
	first, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	out := partition.CreatePartition(first.GetSchema().Clone())
	for _, in := range inputs {
		part, err := singlePart(in)
		if err != nil {
			return nil, err
		}
		for _, row := range partition.RawValues(part) {
			partition.AppendRawRow(out, row)
		}
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execGroupPart(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	var keyCols []string
	if err := json.Unmarshal([]byte(op.Attr("keycols")), &keyCols); err != nil {
		return nil, err
	}
	aggKind, valCol := op.Attr("agg"), op.Attr("col")
	inSchema := part.GetSchema()

	type group struct {
		keyValues []interface{}
		agg       loom.Aggregator
	}
	groups := make(map[string]*group)
	var keys []string
	for i := 0; i < part.GetNumRows(); i++ {
		row := part.GetRow(i)
		key, err := buildKey(row, keyCols)
		if err != nil {
			return nil, err
		}
		g, ok := groups[key]
		if !ok {
			agg, err := aggregate.ForKind(aggKind, valCol)
			if err != nil {
				return nil, err
			}
			keyValues := make([]interface{}, len(keyCols))
			for k, col := range keyCols {
				keyValues[k], err = row.Get(col)
				if err != nil {
					return nil, err
				}
			}
			g = &group{keyValues: keyValues, agg: agg}
			groups[key] = g
			keys = append(keys, key)
		}
		if err := g.agg.Accumulate(row); err != nil {
			return nil, err
		}
	}
	sort.Strings(keys)

	outSchema, err := groupStateSchema(inSchema, keyCols)
	if err != nil {
		return nil, err
	}
	out := partition.CreatePartition(outSchema)
	for _, key := range keys {
		g := groups[key]
		state, err := g.agg.ToBytes()
		if err != nil {
			return nil, err
		}
		row := make([]interface{}, 0, len(keyCols)+1)
		row = append(row, g.keyValues...)
		row = append(row, state)
		partition.AppendRawRow(out, row)
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

// groupStateSchema builds the intermediate schema of a grouped reduction:
// the key columns followed by the serialized state column
func groupStateSchema(in loom.Schema, keyCols []string) (loom.Schema, error) {
	out := schema.CreateSchema()
	for _, name := range keyCols {
		col, err := in.GetColumn(name)
		if err != nil {
			return nil, err
		}
		if _, err := out.CreateColumn(name, col.Type()); err != nil {
			return nil, err
		}
	}
	if _, err := out.CreateColumn(stateCol, &loom.BytesColumnType{}); err != nil {
		return nil, err
	}
	return out, nil
}

func execGroupFinal(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	var keyCols []string
	if err := json.Unmarshal([]byte(op.Attr("keycols")), &keyCols); err != nil {
		return nil, err
	}
	aggKind, valCol, outCol := op.Attr("agg"), op.Attr("col"), op.Attr("out")
	proto, err := aggregate.ForKind(aggKind, valCol)
	if err != nil {
		return nil, err
	}
	inSchema := part.GetSchema()
	stateIdx, err := inSchema.GetColumn(stateCol)
	if err != nil {
		return nil, err
	}

	type group struct {
		keyValues []interface{}
		agg       loom.Aggregator
	}
	groups := make(map[string]*group)
	var keys []string
	for i := 0; i < part.GetNumRows(); i++ {
		row := part.GetRow(i)
		key, err := buildKey(row, keyCols)
		if err != nil {
			return nil, err
		}
		raw := partition.RawValues(part)[i][stateIdx.Index()]
		state, ok := raw.([]byte)
		if !ok {
			return nil, fmt.Errorf("missing aggregation state for group %q", key)
		}
		incoming, err := proto.FromBytes(state)
		if err != nil {
			return nil, err
		}
		g, ok := groups[key]
		if !ok {
			keyValues := make([]interface{}, len(keyCols))
			for k, col := range keyCols {
				keyValues[k], err = row.Get(col)
				if err != nil {
					return nil, err
				}
			}
			groups[key] = &group{keyValues: keyValues, agg: incoming}
			keys = append(keys, key)
			continue
		}
		if err := g.agg.Merge(incoming); err != nil {
			return nil, err
		}
	}
	sort.Strings(keys)

	outSchema := schema.CreateSchema()
	for _, name := range keyCols {
		col, err := inSchema.GetColumn(name)
		if err != nil {
			return nil, err
		}
		if _, err := outSchema.CreateColumn(name, col.Type()); err != nil {
			return nil, err
		}
	}
	var outType loom.ColumnType = &loom.Float64ColumnType{}
	if aggKind == "count" {
		outType = &loom.Int64ColumnType{}
	}
	if _, err := outSchema.CreateColumn(outCol, outType); err != nil {
		return nil, err
	}
	out := partition.CreatePartition(outSchema)
	for _, key := range keys {
		g := groups[key]
		row := make([]interface{}, 0, len(keyCols)+1)
		row = append(row, g.keyValues...)
		row = append(row, g.agg.Value())
		partition.AppendRawRow(out, row)
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execSort(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	col, err := part.GetSchema().GetColumn(op.Attr("col"))
	if err != nil {
		return nil, err
	}
	in := partition.RawValues(part)
	rows := make([][]interface{}, len(in))
	copy(rows, in)
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		cmp, err := CompareValues(rows[i][col.Index()], rows[j][col.Index()])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	out := partition.CreatePartition(part.GetSchema().Clone())
	for _, row := range rows {
		partition.AppendRawRow(out, row)
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execSample(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(op.Attr("n"))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid sample size %q", op.Attr("n"))
	}
	colName := op.Attr("col")
	col, err := part.GetSchema().GetColumn(colName)
	if err != nil {
		return nil, err
	}
	outSchema := schema.CreateSchema()
	if _, err := outSchema.CreateColumn(colName, col.Type()); err != nil {
		return nil, err
	}
	out := partition.CreatePartition(outSchema)
	rows := partition.RawValues(part)
	if len(rows) == 0 {
		return &Result{Parts: []loom.Partition{out}}, nil
	}
	stride := len(rows) / n
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < len(rows); i += stride {
		partition.AppendRawRow(out, []interface{}{rows[i][col.Index()]})
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execDivisions(op graph.Operation, inputs []*Result) (*Result, error) {
	nout, err := strconv.Atoi(op.Attr("nout"))
	if err != nil || nout < 1 {
		return nil, fmt.Errorf("invalid output partition count %q", op.Attr("nout"))
	}
	colName := op.Attr("col")
	var values []interface{}
	var colType loom.ColumnType
	for _, in := range inputs {
		part, err := singlePart(in)
		if err != nil {
			return nil, err
		}
		col, err := part.GetSchema().GetColumn(colName)
		if err != nil {
			return nil, err
		}
		colType = col.Type()
		for _, row := range partition.RawValues(part) {
			values = append(values, row[col.Index()])
		}
	}
	var sortErr error
	sort.SliceStable(values, func(i, j int) bool {
		cmp, err := CompareValues(values[i], values[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	outSchema := schema.CreateSchema()
	if _, err := outSchema.CreateColumn(colName, colType); err != nil {
		return nil, err
	}
	out := partition.CreatePartition(outSchema)
	// nout-1 boundaries at even quantiles of the sampled keys. An empty
	// sample means every source partition is empty; the boundaries are
	// padded with nils so downstream scatters still produce nout buckets
	// (no row exists to compare against them).
	for i := 1; i < nout; i++ {
		if len(values) == 0 {
			partition.AppendRawRow(out, []interface{}{nil})
			continue
		}
		idx := i * len(values) / nout
		if idx >= len(values) {
			idx = len(values) - 1
		}
		partition.AppendRawRow(out, []interface{}{values[idx]})
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execScatterRange(op graph.Operation, inputs []*Result) (*Result, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("scatter_range requires data and division inputs")
	}
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	divPart, err := singlePart(inputs[1])
	if err != nil {
		return nil, err
	}
	colName := op.Attr("col")
	col, err := part.GetSchema().GetColumn(colName)
	if err != nil {
		return nil, err
	}
	divCol, err := divPart.GetSchema().GetColumn(colName)
	if err != nil {
		return nil, err
	}
	var boundaries []interface{}
	for _, row := range partition.RawValues(divPart) {
		boundaries = append(boundaries, row[divCol.Index()])
	}
	outs := makeBuckets(part.GetSchema(), len(boundaries)+1)
	for _, row := range partition.RawValues(part) {
		bucket := len(boundaries)
		for i, b := range boundaries {
			cmp, err := CompareValues(row[col.Index()], b)
			if err != nil {
				return nil, err
			}
			if cmp < 0 {
				bucket = i
				break
			}
		}
		partition.AppendRawRow(outs[bucket], row)
	}
	return &Result{Parts: outs}, nil
}

func execRolling(op graph.Operation, inputs []*Result) (*Result, error) {
	part, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	window, err := strconv.Atoi(op.Attr("window"))
	if err != nil || window < 1 {
		return nil, fmt.Errorf("invalid rolling window %q", op.Attr("window"))
	}
	colName, fn, idxCol := op.Attr("col"), op.Attr("fn"), op.Attr("idxcol")

	var carryValues []float64
	if op.Attr("carry") == "1" {
		if len(inputs) != 2 {
			return nil, fmt.Errorf("rolling with carry requires a tail input")
		}
		carry, err := singlePart(inputs[1])
		if err != nil {
			return nil, err
		}
		for i := 0; i < carry.GetNumRows(); i++ {
			v, err := carry.GetRow(i).GetFloat64(colName)
			if err != nil {
				return nil, err
			}
			carryValues = append(carryValues, v)
		}
	}
	values := make([]float64, 0, len(carryValues)+part.GetNumRows())
	values = append(values, carryValues...)
	for i := 0; i < part.GetNumRows(); i++ {
		v, err := part.GetRow(i).GetFloat64(colName)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	outSchema := schema.CreateSchema()
	var idxColIdx = -1
	if idxCol != "" {
		col, err := part.GetSchema().GetColumn(idxCol)
		if err != nil {
			return nil, err
		}
		idxColIdx = col.Index()
		if _, err := outSchema.CreateColumn(idxCol, col.Type()); err != nil {
			return nil, err
		}
	}
	if _, err := outSchema.CreateColumn(colName, &loom.Float64ColumnType{}); err != nil {
		return nil, err
	}
	out := partition.CreatePartition(outSchema)
	offset := len(carryValues)
	rows := partition.RawValues(part)
	for i := range rows {
		end := offset + i + 1
		start := end - window
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		result := sum
		if fn == "mean" {
			result = sum / float64(end-start)
		}
		if idxColIdx >= 0 {
			partition.AppendRawRow(out, []interface{}{rows[i][idxColIdx], result})
		} else {
			partition.AppendRawRow(out, []interface{}{result})
		}
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}

func execJoin(op graph.Operation, inputs []*Result) (*Result, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("join requires left and right inputs")
	}
	left, err := singlePart(inputs[0])
	if err != nil {
		return nil, err
	}
	right, err := singlePart(inputs[1])
	if err != nil {
		return nil, err
	}
	var on []string
	if err := json.Unmarshal([]byte(op.Attr("on")), &on); err != nil {
		return nil, err
	}
	leftSchema, rightSchema := left.GetSchema(), right.GetSchema()
	onSet := make(map[string]bool, len(on))
	for _, col := range on {
		onSet[col] = true
	}

	outSchema := schema.CreateSchema()
	for _, name := range leftSchema.ColumnNames() {
		col, _ := leftSchema.GetColumn(name)
		if _, err := outSchema.CreateColumn(name, col.Type()); err != nil {
			return nil, err
		}
	}
	var rightKeep []int
	for _, name := range rightSchema.ColumnNames() {
		if onSet[name] {
			continue
		}
		col, _ := rightSchema.GetColumn(name)
		rightKeep = append(rightKeep, col.Index())
		outName := name
		if outSchema.HasColumn(outName) {
			outName = name + "_right"
		}
		if _, err := outSchema.CreateColumn(outName, col.Type()); err != nil {
			return nil, err
		}
	}

	// hash the right side, probe with the left
	rightIndex := make(map[string][]int)
	for i := 0; i < right.GetNumRows(); i++ {
		key, err := buildKey(right.GetRow(i), on)
		if err != nil {
			return nil, err
		}
		rightIndex[key] = append(rightIndex[key], i)
	}
	out := partition.CreatePartition(outSchema)
	leftRows, rightRows := partition.RawValues(left), partition.RawValues(right)
	for i := range leftRows {
		key, err := buildKey(left.GetRow(i), on)
		if err != nil {
			return nil, err
		}
		for _, j := range rightIndex[key] {
			row := make([]interface{}, 0, outSchema.NumColumns())
			row = append(row, leftRows[i]...)
			for _, idx := range rightKeep {
				row = append(row, rightRows[j][idx])
			}
			partition.AppendRawRow(out, row)
		}
	}
	return &Result{Parts: []loom.Partition{out}}, nil
}
