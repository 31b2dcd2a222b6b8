package loom

// Column describes a single named, typed column within a Schema.
type Column interface {
	Clone() Column         // Clone returns a copy of this Column
	Index() int            // Index returns the index of this Column within a Schema
	SetIndex(newIndex int) // SetIndex modifies the Index of this Column within a Schema
	Type() ColumnType      // Type returns the ColumnType of this Column
}

// Schema is an ordered mapping from column names to ColumnTypes. It is
// consistent across all Partitions of a dataframe once declared or inferred.
type Schema interface {
	Clone() Schema                                                // Clone returns a copy of this Schema
	Equals(other Schema) bool                                     // Equals returns true iff this and another Schema are equivalent
	NumColumns() int                                              // NumColumns returns the number of columns in this Schema
	GetColumn(colName string) (Column, error)                     // GetColumn returns the named Column, or a NoSuchColumnError
	HasColumn(colName string) bool                                // HasColumn returns true iff this Schema contains the named column
	CreateColumn(colName string, colType ColumnType) (Schema, error) // CreateColumn defines a new column within this Schema
	RenameColumn(oldName string, newName string) (Schema, error)  // RenameColumn renames a column within this Schema
	RemoveColumn(colName string) (Schema, bool)                   // RemoveColumn removes a column from this Schema
	ColumnNames() []string                                        // ColumnNames returns the names in this Schema, in index order
	ColumnTypes() []ColumnType                                    // ColumnTypes returns the types in this Schema, in index order
	ForEachColumn(fn func(name string, col Column) error) error   // ForEachColumn iterates over the columns in this Schema
}
