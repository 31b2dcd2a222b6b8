package aggregate

import (
	"math"
	"testing"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/internal/partition"
	"github.com/loomdata/loom/schema"
	"github.com/stretchr/testify/require"
)

// valuesPartition builds a single-column float64 partition for feeding
// aggregators
func valuesPartition(t *testing.T, values []float64) loom.Partition {
	s := schema.CreateSchema()
	_, err := s.CreateColumn("v", &loom.Float64ColumnType{})
	require.Nil(t, err)
	p := partition.CreatePartition(s)
	for _, v := range values {
		require.Nil(t, p.AppendRowValues(v))
	}
	return p
}

func accumulateAll(t *testing.T, agg loom.Aggregator, p loom.Partition) {
	for i := 0; i < p.GetNumRows(); i++ {
		require.Nil(t, agg.Accumulate(p.GetRow(i)))
	}
}

// mergeChunks accumulates each chunk separately, round-trips each partial
// through its serialized form, and merges them pairwise, mimicking the
// distributed reduction path
func mergeChunks(t *testing.T, factory func() loom.Aggregator, chunks [][]float64) loom.Aggregator {
	partials := make([]loom.Aggregator, len(chunks))
	for i, chunk := range chunks {
		agg := factory()
		accumulateAll(t, agg, valuesPartition(t, chunk))
		buf, err := agg.ToBytes()
		require.Nil(t, err)
		partials[i], err = factory().FromBytes(buf)
		require.Nil(t, err)
	}
	for len(partials) > 1 {
		var next []loom.Aggregator
		for i := 0; i < len(partials); i += 2 {
			if i+1 == len(partials) {
				next = append(next, partials[i])
				continue
			}
			require.Nil(t, partials[i].Merge(partials[i+1]))
			next = append(next, partials[i])
		}
		partials = next
	}
	return partials[0]
}

func chunked(values []float64, n int) [][]float64 {
	chunks := make([][]float64, n)
	for i, v := range values {
		chunks[i%n] = append(chunks[i%n], v)
	}
	return chunks
}

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestCount(t *testing.T) {
	agg := mergeChunks(t, Counter(), chunked(sequence(100), 7))
	require.Equal(t, int64(100), agg.Value())
}

func TestSumMergeMatchesSinglePass(t *testing.T) {
	values := sequence(1000)
	single := Adder("v")()
	accumulateAll(t, single, valuesPartition(t, values))
	merged := mergeChunks(t, Adder("v"), chunked(values, 8))
	require.Equal(t, single.Value(), merged.Value())
	require.Equal(t, 500500.0, merged.Value())
}

func TestSumCompensation(t *testing.T) {
	// 1e16 + many small values loses the small values under naive
	// float64 summation
	values := []float64{1e16}
	for i := 0; i < 1000; i++ {
		values = append(values, 1.0)
	}
	agg := mergeChunks(t, Adder("v"), chunked(values, 4))
	// naive summation drops every 1.0 entirely (1e16+1 rounds back to
	// 1e16); the compensated path keeps them
	require.InDelta(t, 1e16+1000, agg.Value().(float64), 2)
}

func TestMeanMergeMatchesSinglePass(t *testing.T) {
	values := sequence(999)
	merged := mergeChunks(t, Meaner("v"), chunked(values, 5))
	require.InDelta(t, 500.0, merged.Value().(float64), 1e-9)
}

func TestMinMax(t *testing.T) {
	values := []float64{3, -7, 12, 0.5, -7, 12}
	min := mergeChunks(t, Minimizer("v"), chunked(values, 3))
	require.Equal(t, -7.0, min.Value())
	max := mergeChunks(t, Maximizer("v"), chunked(values, 3))
	require.Equal(t, 12.0, max.Value())
}

func TestStdMergeMatchesDirect(t *testing.T) {
	values := sequence(500)
	merged := mergeChunks(t, Deviator("v"), chunked(values, 6))

	// population standard deviation, computed directly
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	m2 := 0.0
	for _, v := range values {
		m2 += (v - mean) * (v - mean)
	}
	direct := math.Sqrt(m2 / float64(len(values)))
	require.InDelta(t, direct, merged.Value().(float64), 1e-9)
}

func TestMergeRejectsMismatchedKinds(t *testing.T) {
	sum := Adder("v")()
	require.NotNil(t, sum.Merge(Counter()()))
}

func TestForKind(t *testing.T) {
	for _, kind := range []string{"count", "sum", "mean", "min", "max", "std"} {
		agg, err := ForKind(kind, "v")
		require.Nil(t, err)
		require.Equal(t, kind, agg.Kind())
	}
	_, err := ForKind("median", "v")
	require.NotNil(t, err)
}
