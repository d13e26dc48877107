// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchrun drives summary generation for a whole benchmark
// plan: every experiment the harness ran gets one directory of
// aggregated CSVs under the output directory.
package benchrun

import (
	"io"
	"os"
	"path/filepath"

	"github.com/enclave-benchmark/postproc/benchagg"
	"github.com/enclave-benchmark/postproc/benchconf"
	"github.com/enclave-benchmark/postproc/benchdir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Runner aggregates the results tree described by a benchmark plan.
type Runner struct {
	Config    *benchconf.Config
	OutputDir string

	// SkipSGX stops after the baseline experiments have been
	// aggregated.
	SkipSGX bool

	// EnergyGridWidth is the spacing of the energy resampling grid
	// in microseconds. Zero means benchagg.DefaultGridWidth.
	EnergyGridWidth float64

	// Log is the destination for progress reporting. Nil means the
	// logrus standard logger.
	Log *logrus.Logger
}

// Run aggregates every experiment combination of the plan: first the
// baseline of each task and thread count, then, unless SkipSGX is set,
// the SGX experiment of each task, thread count, and storage type. It
// stops at the first experiment that fails.
func (r *Runner) Run() error {
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	energyNames, err := r.discoverEnergyFiles(log)
	if err != nil {
		return err
	}

	for _, task := range r.Config.Tasks {
		log.WithField("task", task.Name()).Info("processing baseline experiments")
		for _, threads := range task.NumThreads {
			exp := benchdir.Experiment{Task: task.Name(), Threads: threads}
			if err := r.processExperiment(log, exp, energyNames); err != nil {
				return err
			}
		}
	}

	if r.SkipSGX {
		log.Info("skipped SGX parsing")
		return nil
	}

	for _, task := range r.Config.Tasks {
		log.WithField("task", task.Name()).Info("processing SGX experiments")
		for _, threads := range task.NumThreads {
			for _, storage := range task.StorageType {
				exp := benchdir.Experiment{Task: task.Name(), Threads: threads, Storage: storage, SGX: true}
				if err := r.processExperiment(log, exp, energyNames); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// discoverEnergyFiles lists the energy sample files the harness
// produced. The set of RAPL domains does not change between
// experiments, so the run-1 directory of the first baseline experiment
// stands for the whole tree.
func (r *Runner) discoverEnergyFiles(log *logrus.Logger) ([]string, error) {
	task := r.Config.Tasks[0]
	exp := benchdir.Experiment{Task: task.Name(), Threads: task.NumThreads[0]}
	names, err := benchdir.EnergyFiles(exp.RunDir(r.Config.InputDir(), 1))
	if err != nil {
		return nil, err
	}
	log.WithField("files", names).Info("discovered energy sample files")
	return names, nil
}

// processExperiment aggregates one experiment combination. Every run
// of every input kind is read and reduced before the first output file
// is created, so a failed experiment leaves no partial result
// directory behind.
func (r *Runner) processExperiment(log *logrus.Logger, exp benchdir.Experiment, energyNames []string) error {
	root := r.Config.InputDir()
	if _, err := os.Stat(filepath.Join(root, exp.Dir())); err != nil {
		return errors.Wrapf(err, "experiment %s", exp)
	}
	log.WithField("experiment", exp.String()).Debug("aggregating experiment")

	n := r.Config.Globals.SampleSize
	perf, err := benchagg.AggregatePerf(exp.RunFiles(root, "perf.csv", n))
	if err != nil {
		return err
	}
	iosum, err := benchagg.AggregateIO(exp.RunFiles(root, "io.csv", n))
	if err != nil {
		return err
	}
	energy := make([]*benchagg.EnergySeries, len(energyNames))
	for i, name := range energyNames {
		s, err := benchagg.AggregateEnergy(exp.RunFiles(root, name, n), r.EnergyGridWidth)
		if err != nil {
			return err
		}
		energy[i] = s
	}

	resultDir := filepath.Join(r.OutputDir, exp.ResultDir())
	if err := os.MkdirAll(resultDir, 0o777); err != nil {
		return errors.Wrap(err, "creating result directory")
	}
	if err := writeResult(filepath.Join(resultDir, "perf.csv"), func(w io.Writer) error {
		return benchagg.WritePerfCSV(w, perf)
	}); err != nil {
		return err
	}
	if err := writeResult(filepath.Join(resultDir, "io.csv"), func(w io.Writer) error {
		return benchagg.WriteIOCSV(w, iosum)
	}); err != nil {
		return err
	}
	for i, name := range energyNames {
		s := energy[i]
		if err := writeResult(filepath.Join(resultDir, name), func(w io.Writer) error {
			return benchagg.WriteEnergyCSV(w, s)
		}); err != nil {
			return err
		}
	}

	if r.Config.Globals.DeepTrace {
		if err := copyDeepTrace(exp.DeepTraceDir(root), filepath.Join(resultDir, "deep-trace")); err != nil {
			return err
		}
	}
	return nil
}

// writeResult writes one summary file, truncating any earlier version.
func writeResult(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "writing summary")
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "writing summary")
}

// copyDeepTrace mirrors the harness's deep trace directory into the
// result directory. It replaces any earlier copy so rerunning the tool
// converges on the same tree.
func copyDeepTrace(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return errors.Wrap(err, "copying deep trace")
	}
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return errors.Wrap(err, "copying deep trace")
	}
	return nil
}
