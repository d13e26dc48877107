// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"github.com/aclements/go-moremath/vec"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
)

// DefaultGridWidth is the default spacing of the energy resampling
// grid in microseconds.
const DefaultGridWidth = 10000

// An EnergySeries is the cross-run summary of one RAPL domain: energy
// readings averaged over runs at uniform relative timestamps.
type EnergySeries struct {
	Time   []float64 // microseconds since the run's first sample
	Energy []float64 // microjoules
}

// AggregateEnergy reads one energy sample file per run and reduces
// them to a single series. Timestamps are shifted to be relative to
// each run's first sample, every run is linearly resampled onto a
// uniform grid, and the resampled readings are averaged per grid
// point.
//
// The grid spans multiples of width from zero to the last sample of
// the first run. Runs that end early clamp to their final reading, the
// same way numpy.interp extends series. A width of zero or less means
// DefaultGridWidth.
func AggregateEnergy(files []string, width float64) (*EnergySeries, error) {
	if width <= 0 {
		width = DefaultGridWidth
	}

	var grid []float64
	runs := make([][]float64, 0, len(files))
	for i, f := range files {
		tr, err := readEnergyFile(f)
		if err != nil {
			return nil, err
		}
		rel := make([]float64, len(tr.time))
		for j, t := range tr.time {
			rel[j] = t - tr.time[0]
		}
		if i == 0 {
			grid = energyGrid(rel[len(rel)-1], width)
		}
		ys, err := resample(f, rel, tr.energy, grid)
		if err != nil {
			return nil, err
		}
		runs = append(runs, ys)
	}

	out := &EnergySeries{Time: grid, Energy: make([]float64, len(grid))}
	col := make([]float64, len(runs))
	for j := range grid {
		for i, ys := range runs {
			col[i] = ys[j]
		}
		m, _ := stats.Mean(col)
		out.Energy[j] = m
	}
	return out, nil
}

// energyGrid builds the resampling grid: multiples of width from zero
// through the last relative timestamp of the first run. A trace
// shorter than one step still gets the zero point.
func energyGrid(maxRel, width float64) []float64 {
	k := int(maxRel / width)
	if k <= 0 {
		return []float64{0}
	}
	return vec.Linspace(0, width*float64(k), k+1)
}

// resample interpolates one run's energy readings onto the shared
// grid. Samples that repeat a timestamp keep the first reading so the
// interpolator sees strictly increasing x values.
func resample(path string, rel, energy, grid []float64) ([]float64, error) {
	xs := make([]float64, 0, len(rel))
	ys := make([]float64, 0, len(rel))
	for i := range rel {
		if i > 0 && rel[i] == rel[i-1] {
			continue
		}
		xs = append(xs, rel[i])
		ys = append(ys, energy[i])
	}

	out := make([]float64, len(grid))
	if len(xs) == 1 {
		// A single sample clamps everywhere.
		for i := range out {
			out[i] = ys[0]
		}
		return out, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, errors.Wrap(err, path)
	}
	for i, x := range grid {
		out[i] = pl.Predict(x)
	}
	return out, nil
}
