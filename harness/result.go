// Package harness spawns simpleio workload binaries and decodes the fenced
// result block they print on stdout.
package harness

import "fmt"

// Operation is the direction of a single benchmark pass.
type Operation string

const (
	OpWrite Operation = "write"
	OpRead  Operation = "read"
)

// ParseOperation converts a persisted operation name back to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OpWrite, OpRead:
		return Operation(s), nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// Measurement is the payload of a result block.
type Measurement struct {
	Bytes int64   `json:"bytes"`
	Time  float64 `json:"time"`
}

// RunRecord is one completed benchmark run.
type RunRecord struct {
	Backend          string    `json:"backend"`
	BytesTransferred int64     `json:"bytes_transferred"`
	ElapsedTime      float64   `json:"elapsed_time"`
	Operation        Operation `json:"operation"`
}

// NewRunRecord tags a measurement with the backend and operation that
// produced it.
func NewRunRecord(backend string, op Operation, m Measurement) RunRecord {
	return RunRecord{
		Backend:          backend,
		BytesTransferred: m.Bytes,
		ElapsedTime:      m.Time,
		Operation:        op,
	}
}

// Throughput returns bytes per second, or 0 when no time elapsed.
func (r RunRecord) Throughput() float64 {
	if r.ElapsedTime <= 0 {
		return 0
	}

	return float64(r.BytesTransferred) / r.ElapsedTime
}
