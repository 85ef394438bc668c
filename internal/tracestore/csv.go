package tracestore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// FromCSV loads traces from a header-addressed CSV file: one column per node,
// one row per observation, all cells numeric.
func FromCSV(path string) (*TraceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses CSV trace data from r.
func ReadCSV(r io.Reader) (*TraceSet, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading trace header: %w", err)
	}

	columns := make(map[string][]float64, len(header))
	for _, name := range header {
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("duplicate trace column %q", name)
		}
		columns[name] = nil
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trace row %d: %w", row, err)
		}
		for i, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("trace row %d, column %q: %w", row, header[i], err)
			}
			columns[header[i]] = append(columns[header[i]], v)
		}
		row++
	}
	return New(columns)
}
