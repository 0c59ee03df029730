package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	"github.com/matzehuels/voltseed/pkg/estimate"
)

// WriteResultJSON writes an estimate table as
// {"buses": [{"bus": 0, "vm_pu": 1.02, "va_degree": 5}, ...]}, with null
// fields for unresolved buses.
//
// JSON has no representation for NaN or infinity. A table holding such a
// value, typically from a zero rated voltage, is rejected with an error
// coded [voltErrors.ErrCodeInvalidNetwork] naming the first bad bus.
func WriteResultJSON(t *estimate.Table, w io.Writer) error {
	if err := CheckFinite(t); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportResultJSON writes t to a JSON file at path.
func ExportResultJSON(t *estimate.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteResultJSON(t, f)
}

// ReadResultJSON decodes a table written by [WriteResultJSON].
func ReadResultJSON(r io.Reader) (*estimate.Table, error) {
	var t estimate.Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, voltErrors.Wrap(voltErrors.ErrCodeInvalidFormat, err, "decode result")
	}
	return &t, nil
}

// CheckFinite returns an error for the first resolved bus of t whose
// magnitude or angle is NaN or infinite.
func CheckFinite(t *estimate.Table) error {
	for _, bus := range t.Buses() {
		v, ok := t.Get(bus)
		if !ok {
			continue
		}
		if !finite(v.VmPU) || !finite(v.VaDegree) {
			return voltErrors.New(voltErrors.ErrCodeInvalidNetwork,
				"bus %d has a non-finite estimate (%v, %v), check the rated voltages", bus, v.VmPU, v.VaDegree)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
