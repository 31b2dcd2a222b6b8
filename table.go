package loom

import (
	"fmt"
	"strings"
)

// Table is an in-memory tabular result, handed to the caller once a
// computation has been reduced to fit a single process's memory. Rows are
// ordered by originating partition, then by position within the partition.
type Table struct {
	schema Schema
	parts  []Partition
}

// CreateTable assembles a Table from collected Partitions
func CreateTable(schema Schema, parts []Partition) *Table {
	return &Table{schema: schema, parts: parts}
}

// Schema returns the Schema of this Table
func (t *Table) Schema() Schema {
	return t.schema
}

// NumPartitions returns the number of Partitions collected into this Table
func (t *Table) NumPartitions() int {
	return len(t.parts)
}

// Partitions returns the collected Partitions of this Table, in order
func (t *Table) Partitions() []Partition {
	return t.parts
}

// NumRows returns the total number of rows in this Table
func (t *Table) NumRows() int {
	total := 0
	for _, p := range t.parts {
		total += p.GetNumRows()
	}
	return total
}

// GetRow retrieves a row by overall position within this Table
func (t *Table) GetRow(rowNum int) Row {
	for _, p := range t.parts {
		if rowNum < p.GetNumRows() {
			return p.GetRow(rowNum)
		}
		rowNum -= p.GetNumRows()
	}
	return nil
}

// ForEachRow iterates over all rows in this Table, in order
func (t *Table) ForEachRow(fn func(row Row) error) error {
	for _, p := range t.parts {
		for i := 0; i < p.GetNumRows(); i++ {
			if err := fn(p.GetRow(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToString returns a string representation of this Table, for debugging
func (t *Table) ToString() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(t.schema.ColumnNames(), "\t"))
	sb.WriteString("\n")
	_ = t.ForEachRow(func(row Row) error {
		sb.WriteString(row.ToString())
		sb.WriteString("\n")
		return nil
	})
	return sb.String()
}

// Scalar returns the single value of a one-row, one-column Table, as
// produced by whole-frame reductions such as Count.
func (t *Table) Scalar() (interface{}, error) {
	if t.NumRows() != 1 || t.schema.NumColumns() != 1 {
		return nil, fmt.Errorf("table is %dx%d, not scalar", t.NumRows(), t.schema.NumColumns())
	}
	return t.GetRow(0).Get(t.schema.ColumnNames()[0])
}
