// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchagg combines the repeated-run sample files of one
// experiment into summary tables.
//
// The enclave_benchmark harness runs every experiment n times and
// writes one directory of CSVs per run. This package provides one
// reducer per metric kind: AggregatePerf and AggregateIO group the
// concatenated runs by metric name and average within each group,
// while AggregateEnergy resamples the runs' time series onto a shared
// grid before averaging, because raw sample timestamps never line up
// across runs.
//
// Reducers read all of their inputs before anything is written, and
// the first malformed or missing file aborts with an error; there is
// no partial-result recovery.
package benchagg

import "fmt"

// A DataError describes a malformed sample file.
type DataError struct {
	File string
	Line int // 1-based; 0 when the problem is not tied to a line
	Msg  string
}

func (e *DataError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}
