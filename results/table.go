// Package results keeps the accumulated benchmark runs and persists them
// as a tab-separated table.
package results

import (
	"github.com/weiihann/iobench/harness"
)

// Column names of the results table, in file order.
const (
	ColBackend          = "backend"
	ColBytesTransferred = "bytesTransferred"
	ColElapsedTime      = "elapsedTime"
	ColOperation        = "operation"
)

// Columns is the fixed column set.
var Columns = []string{
	ColBackend, ColBytesTransferred, ColElapsedTime, ColOperation,
}

// Table stores runs column-wise. Columns only grow through Append, so they
// always have equal length.
type Table struct {
	backend          []string
	bytesTransferred []int64
	elapsedTime      []float64
	operation        []harness.Operation
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Append adds one row.
func (t *Table) Append(r harness.RunRecord) {
	t.backend = append(t.backend, r.Backend)
	t.bytesTransferred = append(t.bytesTransferred, r.BytesTransferred)
	t.elapsedTime = append(t.elapsedTime, r.ElapsedTime)
	t.operation = append(t.operation, r.Operation)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.backend)
}

// Row returns the i-th run.
func (t *Table) Row(i int) harness.RunRecord {
	return harness.RunRecord{
		Backend:          t.backend[i],
		BytesTransferred: t.bytesTransferred[i],
		ElapsedTime:      t.elapsedTime[i],
		Operation:        t.operation[i],
	}
}

// Records returns all rows in insertion order.
func (t *Table) Records() []harness.RunRecord {
	out := make([]harness.RunRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		out = append(out, t.Row(i))
	}

	return out
}

// ContainsBackend reports whether any row was produced by the backend.
func (t *Table) ContainsBackend(name string) bool {
	for _, b := range t.backend {
		if b == name {
			return true
		}
	}

	return false
}

// ColumnLens returns the length of every column, in Columns order.
func (t *Table) ColumnLens() []int {
	return []int{
		len(t.backend),
		len(t.bytesTransferred),
		len(t.elapsedTime),
		len(t.operation),
	}
}
