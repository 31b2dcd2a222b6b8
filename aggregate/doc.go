// Package aggregate provides loom's built-in Aggregators: mergeable,
// serializable reduction states combined across Partitions to produce a
// single cluster-wide value.
//
// Floating-point reductions are written to stay numerically stable as the
// partition count grows. Sum and Mean accumulate with Kahan compensated
// summation within a partition, and partial states are merged pairwise
// over a balanced tree of merge tasks rather than folded sequentially.
// Std carries (count, mean, M2) and merges with the parallel variance
// update of Chan et al., which is exact under merging and avoids the
// catastrophic cancellation of the naive sum/sum-of-squares formula.
package aggregate
