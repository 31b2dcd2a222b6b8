package exec

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/aggregate"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/internal/partition"
	"github.com/loomdata/loom/schema"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) loom.Schema {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("id", &loom.Int64ColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("city", &loom.StringColumnType{})
	require.Nil(t, err)
	_, err = s.CreateColumn("val", &loom.Float64ColumnType{})
	require.Nil(t, err)
	return s
}

func testPartition(t *testing.T, rows [][]interface{}) *Result {
	p := partition.CreatePartition(testSchema(t))
	for _, row := range rows {
		require.Nil(t, p.AppendRowValues(row...))
	}
	return &Result{Parts: []loom.Partition{p}}
}

func defaultRows() [][]interface{} {
	return [][]interface{}{
		{int64(1), "tokyo", 10.0},
		{int64(2), "osaka", 20.0},
		{int64(3), "tokyo", 30.0},
		{int64(4), "kyoto", 40.0},
		{int64(5), "osaka", 50.0},
		{int64(6), "tokyo", 60.0},
	}
}

func decodeAggState(state *AggState) (loom.Aggregator, error) {
	proto, err := aggregate.ForKind(state.Kind, state.Col)
	if err != nil {
		return nil, err
	}
	return proto.FromBytes(state.State)
}

func TestExecSelect(t *testing.T) {
	in := testPartition(t, defaultRows())
	res, err := Execute(context.Background(), SelectOp([]string{"city", "id"}), []*Result{in})
	require.Nil(t, err)
	part := res.Parts[0]
	require.Equal(t, []string{"city", "id"}, part.GetSchema().ColumnNames())
	require.Equal(t, 6, part.GetNumRows())
	city, err := part.GetRow(0).GetString("city")
	require.Nil(t, err)
	require.Equal(t, "tokyo", city)
}

func TestExecFilter(t *testing.T) {
	in := testPartition(t, defaultRows())
	conds := []Cond{
		{Col: "city", Op: "eq", Value: json.RawMessage(`"tokyo"`)},
		{Col: "val", Op: "gt", Value: json.RawMessage(`15`)},
	}
	res, err := Execute(context.Background(), FilterOp(conds), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, 2, res.NumRows())
	for i := 0; i < res.Parts[0].GetNumRows(); i++ {
		v, err := res.Parts[0].GetRow(i).GetFloat64("val")
		require.Nil(t, err)
		require.Greater(t, v, 15.0)
	}
}

func TestExecFilterDropsNils(t *testing.T) {
	rows := defaultRows()
	rows[0][2] = nil
	in := testPartition(t, rows)
	conds := []Cond{{Col: "val", Op: "ge", Value: json.RawMessage(`0`)}}
	res, err := Execute(context.Background(), FilterOp(conds), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, 5, res.NumRows())
}

func TestExecHeadTail(t *testing.T) {
	in := testPartition(t, defaultRows())
	res, err := Execute(context.Background(), HeadOp(2), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, 2, res.NumRows())
	id, _ := res.Parts[0].GetRow(0).GetInt64("id")
	require.Equal(t, int64(1), id)

	res, err = Execute(context.Background(), TailOp(2), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, 2, res.NumRows())
	id, _ = res.Parts[0].GetRow(1).GetInt64("id")
	require.Equal(t, int64(6), id)

	// n larger than the partition takes everything
	res, err = Execute(context.Background(), HeadOp(100), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, 6, res.NumRows())
}

func TestExecLocInclusive(t *testing.T) {
	in := testPartition(t, defaultRows())
	res, err := Execute(context.Background(), LocOp("id", json.RawMessage(`2`), json.RawMessage(`4`)), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, 3, res.NumRows())
}

func TestExecILocCols(t *testing.T) {
	in := testPartition(t, defaultRows())
	res, err := Execute(context.Background(), ILocColsOp([]int{2, 0}), []*Result{in})
	require.Nil(t, err)
	require.Equal(t, []string{"val", "id"}, res.Parts[0].GetSchema().ColumnNames())
}

func TestExecAggPartAndMerge(t *testing.T) {
	left := testPartition(t, defaultRows()[:3])
	right := testPartition(t, defaultRows()[3:])
	lagg, err := Execute(context.Background(), AggPartOp("sum", "val"), []*Result{left})
	require.Nil(t, err)
	ragg, err := Execute(context.Background(), AggPartOp("sum", "val"), []*Result{right})
	require.Nil(t, err)
	require.NotNil(t, lagg.Agg)

	merged, err := Execute(context.Background(), AggMergeOp(), []*Result{lagg, ragg})
	require.Nil(t, err)
	require.Equal(t, "sum", merged.Agg.Kind)

	agg, err := decodeAggState(merged.Agg)
	require.Nil(t, err)
	require.Equal(t, 210.0, agg.Value())
}

func TestExecScatterHashGatherPreservesRows(t *testing.T) {
	in1 := testPartition(t, defaultRows()[:3])
	in2 := testPartition(t, defaultRows()[3:])
	const nbuckets = 4

	sc1, err := Execute(context.Background(), ScatterHashOp(nbuckets, []string{"city"}), []*Result{in1})
	require.Nil(t, err)
	sc2, err := Execute(context.Background(), ScatterHashOp(nbuckets, []string{"city"}), []*Result{in2})
	require.Nil(t, err)
	require.Len(t, sc1.Parts, nbuckets)

	// every row lands in exactly one bucket, and equal keys co-locate
	cityBucket := make(map[string]int)
	total := 0
	for b := 0; b < nbuckets; b++ {
		gathered, err := Execute(context.Background(), GatherOp(b), []*Result{sc1, sc2})
		require.Nil(t, err)
		for i := 0; i < gathered.Parts[0].GetNumRows(); i++ {
			city, err := gathered.Parts[0].GetRow(i).GetString("city")
			require.Nil(t, err)
			if prev, ok := cityBucket[city]; ok {
				require.Equal(t, prev, b)
			} else {
				cityBucket[city] = b
			}
			total++
		}
	}
	require.Equal(t, 6, total)
}

func TestExecScatterRoundRobin(t *testing.T) {
	in := testPartition(t, defaultRows())
	res, err := Execute(context.Background(), ScatterRoundRobinOp(4), []*Result{in})
	require.Nil(t, err)
	require.Len(t, res.Parts, 4)
	require.Equal(t, 6, res.NumRows())
	require.Equal(t, 2, res.Parts[0].GetNumRows())
	require.Equal(t, 1, res.Parts[2].GetNumRows())
}

func TestExecConcat(t *testing.T) {
	in1 := testPartition(t, defaultRows()[:2])
	in2 := testPartition(t, defaultRows()[2:])
	res, err := Execute(context.Background(), ConcatOp(), []*Result{in1, in2})
	require.Nil(t, err)
	require.Equal(t, 6, res.NumRows())
}

func TestExecGroupedReduction(t *testing.T) {
	in1 := testPartition(t, defaultRows()[:3])
	in2 := testPartition(t, defaultRows()[3:])
	keys := []string{"city"}

	gp1, err := Execute(context.Background(), GroupPartOp(keys, "sum", "val"), []*Result{in1})
	require.Nil(t, err)
	gp2, err := Execute(context.Background(), GroupPartOp(keys, "sum", "val"), []*Result{in2})
	require.Nil(t, err)
	require.True(t, gp1.Parts[0].GetSchema().HasColumn("__state"))

	merged, err := Execute(context.Background(), ConcatOp(), []*Result{gp1, gp2})
	require.Nil(t, err)
	final, err := Execute(context.Background(), GroupFinalOp(keys, "sum", "val", "val"), []*Result{merged})
	require.Nil(t, err)

	sums := make(map[string]float64)
	part := final.Parts[0]
	for i := 0; i < part.GetNumRows(); i++ {
		city, err := part.GetRow(i).GetString("city")
		require.Nil(t, err)
		v, err := part.GetRow(i).GetFloat64("val")
		require.Nil(t, err)
		sums[city] = v
	}
	require.Equal(t, map[string]float64{"tokyo": 100, "osaka": 70, "kyoto": 40}, sums)
}

func TestExecGroupFinalCountIsInt64(t *testing.T) {
	in := testPartition(t, defaultRows())
	gp, err := Execute(context.Background(), GroupPartOp([]string{"city"}, "count", ""), []*Result{in})
	require.Nil(t, err)
	final, err := Execute(context.Background(), GroupFinalOp([]string{"city"}, "count", "", "count"), []*Result{gp})
	require.Nil(t, err)
	col, err := final.Parts[0].GetSchema().GetColumn("count")
	require.Nil(t, err)
	require.Equal(t, "int64", col.Type().Name())
}

func TestExecSort(t *testing.T) {
	rows := [][]interface{}{
		{int64(3), "c", 1.0},
		{int64(1), "a", 2.0},
		{int64(2), "b", 3.0},
	}
	in := testPartition(t, rows)
	res, err := Execute(context.Background(), SortOp("id"), []*Result{in})
	require.Nil(t, err)
	for i := 0; i < 3; i++ {
		id, err := res.Parts[0].GetRow(i).GetInt64("id")
		require.Nil(t, err)
		require.Equal(t, int64(i+1), id)
	}
}

func TestExecRangeShuffle(t *testing.T) {
	in1 := testPartition(t, defaultRows()[:3])
	in2 := testPartition(t, defaultRows()[3:])

	s1, err := Execute(context.Background(), SampleOp("id", 10), []*Result{in1})
	require.Nil(t, err)
	s2, err := Execute(context.Background(), SampleOp("id", 10), []*Result{in2})
	require.Nil(t, err)

	div, err := Execute(context.Background(), DivisionsOp("id", 2), []*Result{s1, s2})
	require.Nil(t, err)
	require.Equal(t, 1, div.NumRows())

	sc1, err := Execute(context.Background(), ScatterRangeOp("id"), []*Result{in1, div})
	require.Nil(t, err)
	sc2, err := Execute(context.Background(), ScatterRangeOp("id"), []*Result{in2, div})
	require.Nil(t, err)
	require.Len(t, sc1.Parts, 2)

	// all ids in bucket 0 are below all ids in bucket 1
	var maxLow, minHigh int64 = -1 << 62, 1 << 62
	for _, sc := range []*Result{sc1, sc2} {
		for i := 0; i < sc.Parts[0].GetNumRows(); i++ {
			id, _ := sc.Parts[0].GetRow(i).GetInt64("id")
			if id > maxLow {
				maxLow = id
			}
		}
		for i := 0; i < sc.Parts[1].GetNumRows(); i++ {
			id, _ := sc.Parts[1].GetRow(i).GetInt64("id")
			if id < minHigh {
				minHigh = id
			}
		}
	}
	require.Less(t, maxLow, minHigh)
}

func TestExecRangeShuffleEmptyInputs(t *testing.T) {
	in1 := testPartition(t, nil)
	in2 := testPartition(t, nil)
	const nout = 3

	s1, err := Execute(context.Background(), SampleOp("id", 10), []*Result{in1})
	require.Nil(t, err)
	s2, err := Execute(context.Background(), SampleOp("id", 10), []*Result{in2})
	require.Nil(t, err)

	// an empty sample still yields nout-1 boundaries so the scatter
	// produces the full bucket count
	div, err := Execute(context.Background(), DivisionsOp("id", nout), []*Result{s1, s2})
	require.Nil(t, err)
	require.Equal(t, nout-1, div.NumRows())

	sc1, err := Execute(context.Background(), ScatterRangeOp("id"), []*Result{in1, div})
	require.Nil(t, err)
	sc2, err := Execute(context.Background(), ScatterRangeOp("id"), []*Result{in2, div})
	require.Nil(t, err)
	require.Len(t, sc1.Parts, nout)

	for b := 0; b < nout; b++ {
		gathered, err := Execute(context.Background(), GatherOp(b), []*Result{sc1, sc2})
		require.Nil(t, err)
		require.Equal(t, 0, gathered.NumRows())
	}
}

func TestExecRollingWithCarry(t *testing.T) {
	in1 := testPartition(t, defaultRows()[:3])
	in2 := testPartition(t, defaultRows()[3:])

	carry, err := Execute(context.Background(), TailOp(2), []*Result{in1})
	require.Nil(t, err)
	res, err := Execute(context.Background(), RollingOp("val", 3, "sum", "id", true), []*Result{in2, carry})
	require.Nil(t, err)

	// windows over (20,30,40), (30,40,50), (40,50,60)
	expected := []float64{90, 120, 150}
	part := res.Parts[0]
	require.Equal(t, 3, part.GetNumRows())
	for i, want := range expected {
		v, err := part.GetRow(i).GetFloat64("val")
		require.Nil(t, err)
		require.Equal(t, want, v)
	}
}

func TestExecRollingShortWindows(t *testing.T) {
	in := testPartition(t, defaultRows()[:3])
	res, err := Execute(context.Background(), RollingOp("val", 3, "mean", "", false), []*Result{in})
	require.Nil(t, err)
	expected := []float64{10, 15, 20}
	for i, want := range expected {
		v, err := res.Parts[0].GetRow(i).GetFloat64("val")
		require.Nil(t, err)
		require.Equal(t, want, v)
	}
}

func TestExecJoin(t *testing.T) {
	left := testPartition(t, defaultRows()[:3])

	rs := schema.CreateSchema()
	rs.CreateColumn("id", &loom.Int64ColumnType{})
	rs.CreateColumn("val", &loom.Float64ColumnType{})
	rp := partition.CreatePartition(rs)
	require.Nil(t, rp.AppendRowValues(int64(1), 100.0))
	require.Nil(t, rp.AppendRowValues(int64(3), 300.0))
	require.Nil(t, rp.AppendRowValues(int64(9), 900.0))
	right := &Result{Parts: []loom.Partition{rp}}

	res, err := Execute(context.Background(), JoinOp([]string{"id"}), []*Result{left, right})
	require.Nil(t, err)
	part := res.Parts[0]
	require.Equal(t, 2, part.GetNumRows())
	require.Equal(t, []string{"id", "city", "val", "val_right"}, part.GetSchema().ColumnNames())

	v, err := part.GetRow(0).GetFloat64("val_right")
	require.Nil(t, err)
	require.Equal(t, 100.0, v)
}

func TestExecUnknownKind(t *testing.T) {
	_, err := Execute(context.Background(), graph.Operation{Kind: "nope"}, nil)
	require.NotNil(t, err)
}

func TestExecCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := testPartition(t, defaultRows())
	_, err := Execute(ctx, ConcatOp(), []*Result{in})
	require.NotNil(t, err)
}
