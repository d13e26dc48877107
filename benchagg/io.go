// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
)

// IOColumns is the column order of the I/O summary written for each
// experiment.
var IOColumns = []string{"dimension", "description", "value_mean", "value_unit"}

// AggregateIO reads the io.csv of every run of one experiment and
// reduces them to one row per (dimension, description) pair. An empty
// description is a regular key: counters like a bare "total" row group
// with other empty-description rows of the same dimension, not with
// described ones. Rows come out sorted by dimension, then description.
func AggregateIO(files []string) (*table.Table, error) {
	runs := make([]table.Grouping, 0, len(files))
	for _, f := range files {
		t, err := readIOFile(f)
		if err != nil {
			return nil, err
		}
		runs = append(runs, t)
	}

	agg := ggstat.Agg("dimension", "description")(
		aggMean("value", "value_mean"),
		aggFirst("unit", "value_unit"),
	).F(table.Concat(runs...))
	// Two stable single-key sorts, secondary key first, produce
	// (dimension, description) tuple order. SortBy's multi-column
	// form drops key columns that are already sorted, which breaks
	// the tuple ordering when only the dimension column happens to
	// arrive sorted.
	sorted := table.SortBy(table.SortBy(agg, "description"), "dimension")
	return table.Flatten(sorted), nil
}
