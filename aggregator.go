package loom

// An Aggregator combines partition-local partial results into a single
// cluster-wide value. Aggregators must be associative and commutative
// under Merge, and serializable so partial states can cross the network
// boundary between workers and the coordinator. Implementations live in
// the aggregate subpackage.
type Aggregator interface {
	Kind() string                           // Kind returns the registered name of this Aggregator type
	Accumulate(row Row) error               // Accumulate folds a row into this Aggregator
	Merge(other Aggregator) error           // Merge merges another Aggregator of the same Kind into this one
	Value() interface{}                     // Value returns the current aggregate value
	ToBytes() ([]byte, error)               // ToBytes serializes this Aggregator's state
	FromBytes(buf []byte) (Aggregator, error) // FromBytes produces a new Aggregator from serialized state
}
