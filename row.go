package loom

import "time"

// Row is a single row of a Partition, along with a reference to the Schema
// for that row. Users of Row call its getter and setter methods to
// retrieve, manipulate and store data.
type Row interface {
	Schema() Schema                                   // Schema returns the schema for this row
	ToString() string                                 // ToString returns a string representation of this row
	IsNil(colName string) bool                        // IsNil returns true iff the given column value is nil in this row
	SetNil(colName string) error                      // SetNil sets the given column value to nil within this row
	Get(colName string) (interface{}, error)          // Get returns the value of any column, if it exists
	GetBool(colName string) (bool, error)             // GetBool retrieves a single bool from the column with the given name
	GetInt64(colName string) (int64, error)           // GetInt64 retrieves a single int64 from the column with the given name
	GetFloat64(colName string) (float64, error)       // GetFloat64 retrieves a single float64 from the column with the given name
	GetString(colName string) (string, error)         // GetString retrieves a single string from the column with the given name
	GetBytes(colName string) ([]byte, error)          // GetBytes retrieves a byte array from the column with the given name
	GetTime(colName string) (time.Time, error)        // GetTime retrieves a single Time from the column with the given name
	Set(colName string, value interface{}) error      // Set modifies the value of any column, checking it against the column's declared type
}

// A Partition is a portion of a dataframe, consisting of multiple Rows.
// Partitions are not generally interacted with directly, instead being
// manipulated in parallel by Tasks.
type Partition interface {
	ID() string            // ID retrieves the ID of this Partition
	GetNumRows() int       // GetNumRows retrieves the number of rows in this Partition
	GetRow(rowNum int) Row // GetRow retrieves a specific row from this Partition
	GetSchema() Schema     // GetSchema retrieves the Schema of this Partition
}

// A BuildablePartition can have rows appended. Used in the implementation
// of DataSources and Parsers.
type BuildablePartition interface {
	Partition
	AppendEmptyRow() (Row, error)               // AppendEmptyRow adds a zero-valued Row to the end of this Partition, returning it for population
	AppendRowValues(values ...interface{}) error // AppendRowValues adds a Row to the end of this Partition, if the values fit the Schema
	ForEachRow(fn func(row Row) error) error    // ForEachRow iterates over Rows in this Partition
}

// PartitionState describes the materialization state of a Partition within
// cluster memory.
type PartitionState int

const (
	// Unmaterialized Partitions have been declared but never loaded
	Unmaterialized PartitionState = iota
	// Loading Partitions are currently being materialized by a worker
	Loading
	// Resident Partitions are materialized in a worker's memory
	Resident
	// Evicted Partitions were materialized and have since been dropped
	Evicted
)

func (s PartitionState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Resident:
		return "resident"
	case Evicted:
		return "evicted"
	default:
		return "unmaterialized"
	}
}
