package loom

import "io"

// DataSource is a source of data which will be manipulated according to a
// DataFrame. Analyze splits the source into independently-loadable units,
// one per Partition. Kind names the source's registered opener so workers
// can re-open partitions from their locator strings.
type DataSource interface {
	Kind() string                       // Kind returns the registered name of this source type
	Analyze() ([]PartitionLoader, error) // Analyze returns one PartitionLoader per Partition this source will produce
}

// PartitionLoader describes how to load a single Partition of a DataSource.
// Loaders must be describable as a locator string so they can be shipped to
// workers and re-opened there - partition loads are idempotent and may be
// safely retried on any worker.
type PartitionLoader interface {
	Locator() string                 // Locator returns a string which uniquely locates this Partition's data (e.g. a file path)
	Open() (io.ReadCloser, error)    // Open opens the underlying data for reading
	ToString() string                // ToString returns a human-readable description of this loader
}

// DataSourceParser produces a Partition from raw data. Parsers are
// identified by Kind and configured with an encodable conf so that remote
// workers can reconstruct them - see the datasource/parser subpackages.
type DataSourceParser interface {
	Kind() string                                          // Kind returns the registered name of this parser type
	EncodeConf() ([]byte, error)                           // EncodeConf serializes this parser's configuration
	Parse(r io.Reader, schema Schema) (Partition, error)   // Parse reads raw data into a single Partition respecting schema
}
