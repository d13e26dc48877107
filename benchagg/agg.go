// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/montanaflynn/stats"
)

// aggMean returns an aggregate function that computes the mean of col
// within each group. The resulting column is named as.
//
// ggstat.AggMean prefixes the input column name; the summary schemas
// here need pandas-style names like "counter_mean", so these
// aggregators take the output name explicitly.
func aggMean(col, as string) ggstat.Aggregator {
	return aggFloat(col, as, stats.Mean)
}

// aggStdDev returns an aggregate function that computes the sample
// standard deviation of col within each group. A group with a single
// row yields NaN.
func aggStdDev(col, as string) ggstat.Aggregator {
	return aggFloat(col, as, stats.StandardDeviationSample)
}

func aggFloat(col, as string, f func(stats.Float64Data) (float64, error)) ggstat.Aggregator {
	return func(input table.Grouping, b *table.Builder) {
		out := make([]float64, 0, len(input.Tables()))
		for _, gid := range input.Tables() {
			xs := input.Table(gid).MustColumn(col).([]float64)
			// Groups are never empty, so f cannot fail.
			v, _ := f(xs)
			out = append(out, v)
		}
		b.Add(as, out)
	}
}

// aggFirst returns an aggregate function that keeps the first value of
// col within each group. Unit columns repeat the same string on every
// row of a group, so the first one stands for all of them.
func aggFirst(col, as string) ggstat.Aggregator {
	return func(input table.Grouping, b *table.Builder) {
		out := make([]string, 0, len(input.Tables()))
		for _, gid := range input.Tables() {
			xs := input.Table(gid).MustColumn(col).([]string)
			out = append(out, xs[0])
		}
		b.Add(as, out)
	}
}
