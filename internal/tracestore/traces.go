// Package tracestore loads and represents observation traces: per-node
// columns of float64 samples used to fit structural causal mechanisms.
// Traces can come from CSV exports or from a Postgres table.
package tracestore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// TraceSet is an immutable collection of equally sized sample columns keyed
// by node identifier.
type TraceSet struct {
	columns map[string][]float64
	rows    int
}

// New validates that all columns have the same length and returns a TraceSet
// backed by a defensive copy of the input.
func New(columns map[string][]float64) (*TraceSet, error) {
	ts := &TraceSet{columns: make(map[string][]float64, len(columns)), rows: -1}
	for name, col := range columns {
		if ts.rows == -1 {
			ts.rows = len(col)
		} else if len(col) != ts.rows {
			return nil, fmt.Errorf("trace column %q has %d rows, expected %d", name, len(col), ts.rows)
		}
		ts.columns[name] = append([]float64(nil), col...)
	}
	if ts.rows <= 0 {
		return nil, fmt.Errorf("trace set has no samples")
	}
	return ts, nil
}

// Rows returns the number of samples per column.
func (t *TraceSet) Rows() int { return t.rows }

// Has reports whether a column exists for node.
func (t *TraceSet) Has(node string) bool {
	_, ok := t.columns[node]
	return ok
}

// Columns returns the column names in sorted order.
func (t *TraceSet) Columns() []string {
	out := make([]string, 0, len(t.columns))
	for name := range t.columns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Payload returns the wire representation of the traces. The backing arrays
// are shared; callers must not mutate them.
func (t *TraceSet) Payload() map[string][]float64 {
	return t.columns
}

// Fingerprint returns a stable content hash of the trace data, used as part
// of the fitted-model cache key so stale models are never served for new
// observations.
func (t *TraceSet) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, name := range t.Columns() {
		h.Write([]byte(name))
		h.Write([]byte{0})
		for _, v := range t.columns[name] {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
