// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/aclements/go-gg/table"
	"github.com/pkg/errors"
)

// EnergyColumns is the column order of the energy summary written for
// each experiment and RAPL domain.
var EnergyColumns = []string{"bin", "relative_time", "energy (microjoule)"}

// WritePerfCSV writes the summary produced by AggregatePerf.
func WritePerfCSV(w io.Writer, t *table.Table) error {
	return writeCSV(w, t, PerfColumns)
}

// WriteIOCSV writes the summary produced by AggregateIO.
func WriteIOCSV(w io.Writer, t *table.Table) error {
	return writeCSV(w, t, IOColumns)
}

// WriteEnergyCSV writes the summary produced by AggregateEnergy. The
// bin column numbers the grid points from zero.
func WriteEnergyCSV(w io.Writer, s *EnergySeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EnergyColumns); err != nil {
		return errors.Wrap(err, "writing summary")
	}
	rec := make([]string, len(EnergyColumns))
	for i := range s.Time {
		rec[0] = strconv.Itoa(i)
		rec[1] = formatFloat(s.Time[i])
		rec[2] = formatFloat(s.Energy[i])
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "writing summary")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing summary")
}

// writeCSV writes the named columns of t to w in order.
func writeCSV(w io.Writer, t *table.Table, cols []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return errors.Wrap(err, "writing summary")
	}
	data := make([]table.Slice, len(cols))
	for i, col := range cols {
		data[i] = t.MustColumn(col)
	}
	rec := make([]string, len(cols))
	for row := 0; row < t.Len(); row++ {
		for i, col := range data {
			switch col := col.(type) {
			case []float64:
				rec[i] = formatFloat(col[row])
			case []string:
				rec[i] = col[row]
			default:
				panic(fmt.Sprintf("unsupported column type %T", col))
			}
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "writing summary")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing summary")
}

// formatFloat renders v the way the summary schemas expect: the
// shortest decimal that round-trips, never exponent notation, and NaN
// as an empty field.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
