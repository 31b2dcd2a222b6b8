package partition

import (
	"log"

	uuid "github.com/gofrs/uuid"
	"github.com/loomdata/loom"
	"github.com/loomdata/loom/errors"
)

// partitionImpl is loom's internal implementation of Partition. Rows are
// stored as value slices in column index order, one slice per row.
type partitionImpl struct {
	id     string
	rows   [][]interface{}
	schema loom.Schema
}

// CreatePartition creates a new, empty Partition with the given Schema
func CreatePartition(schema loom.Schema) loom.BuildablePartition {
	id, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("failed to generate UUID for Partition: %v", err)
	}
	return &partitionImpl{
		id:     id.String(),
		rows:   make([][]interface{}, 0, 64),
		schema: schema,
	}
}

// createPartitionWithID rebuilds a Partition from deserialized state
func createPartitionWithID(id string, rows [][]interface{}, schema loom.Schema) *partitionImpl {
	return &partitionImpl{id: id, rows: rows, schema: schema}
}

// ID retrieves the ID of this Partition
func (p *partitionImpl) ID() string {
	return p.id
}

// GetNumRows retrieves the number of rows in this Partition
func (p *partitionImpl) GetNumRows() int {
	return len(p.rows)
}

// GetSchema retrieves the Schema of this Partition
func (p *partitionImpl) GetSchema() loom.Schema {
	return p.schema
}

// GetRow retrieves a specific row from this Partition
func (p *partitionImpl) GetRow(rowNum int) loom.Row {
	return &rowImpl{part: p, idx: rowNum}
}

// AppendEmptyRow adds a zero-valued Row to the end of this Partition,
// returning it for population
func (p *partitionImpl) AppendEmptyRow() (loom.Row, error) {
	values := make([]interface{}, p.schema.NumColumns())
	for i, colType := range p.schema.ColumnTypes() {
		values[i] = colType.ZeroValue()
	}
	p.rows = append(p.rows, values)
	return &rowImpl{part: p, idx: len(p.rows) - 1}, nil
}

// AppendRowValues adds a Row to the end of this Partition, if the values
// fit the Schema. A nil value is permitted in any column.
func (p *partitionImpl) AppendRowValues(values ...interface{}) error {
	if len(values) != p.schema.NumColumns() {
		return errors.IncompatibleSchemaError{}
	}
	for i, colType := range p.schema.ColumnTypes() {
		if values[i] != nil && !colType.Accepts(values[i]) {
			return errors.IncompatibleSchemaError{Col: p.schema.ColumnNames()[i]}
		}
	}
	row := make([]interface{}, len(values))
	copy(row, values)
	p.rows = append(p.rows, row)
	return nil
}

// ForEachRow iterates over Rows in this Partition
func (p *partitionImpl) ForEachRow(fn func(row loom.Row) error) error {
	for i := range p.rows {
		if err := fn(&rowImpl{part: p, idx: i}); err != nil {
			return err
		}
	}
	return nil
}

// RawValues exposes the underlying row storage, for internal operators
// which rearrange whole rows (shuffles, sorts, repartitions).
func RawValues(p loom.Partition) [][]interface{} {
	return p.(*partitionImpl).rows
}

// AppendRawRow appends a row slice without copying or type-checking it.
// Only for internal operators moving rows between Partitions which share
// a Schema.
func AppendRawRow(p loom.Partition, row []interface{}) {
	impl := p.(*partitionImpl)
	impl.rows = append(impl.rows, row)
}
