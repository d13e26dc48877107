// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
)

// PerfColumns is the column order of the perf summary written for each
// experiment. counter_unit breaks the <col>_mean naming pattern of its
// neighbors; the name is part of the published schema and downstream
// notebooks key on it, so it stays.
var PerfColumns = []string{"event", "counter_mean", "counter_std", "counter_unit", "metric_mean", "unit_metric", "perc_runtime_mean"}

// AggregatePerf reads the perf.csv of every run of one experiment and
// reduces them to one row per hardware event. Counter and metric
// values are averaged across runs, the counter additionally gets a
// sample standard deviation, and the unit columns keep the first value
// seen. Rows come out sorted by event name so repeated invocations
// write identical files.
//
// All runs are read before any aggregation, so a malformed or missing
// run fails the whole experiment.
func AggregatePerf(files []string) (*table.Table, error) {
	runs := make([]table.Grouping, 0, len(files))
	for _, f := range files {
		t, err := readPerfFile(f)
		if err != nil {
			return nil, err
		}
		runs = append(runs, t)
	}

	agg := ggstat.Agg("event")(
		aggMean("counter", "counter_mean"),
		aggStdDev("counter", "counter_std"),
		aggFirst("unit_counter", "counter_unit"),
		aggMean("metric", "metric_mean"),
		aggFirst("unit_metric", "unit_metric"),
		aggMean("perc_runtime", "perc_runtime_mean"),
	).F(table.Concat(runs...))
	return table.Flatten(table.SortBy(agg, "event")), nil
}
