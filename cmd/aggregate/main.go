// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Aggregate summarizes the raw results of an enclave benchmark run.
//
// Usage:
//
//	aggregate <config.toml> <output-dir>
//
// The config is the TOML plan the benchmark harness ran with. The
// output directory receives one subdirectory per experiment, each
// holding perf.csv, io.csv, and one CSV per RAPL energy domain,
// aggregated across the repeated runs of that experiment.
//
// Setting EB_SKIP_SGX to anything but "", "0", or "false" stops
// processing after the baseline experiments.
package main

import (
	"os"
	"strings"

	"github.com/enclave-benchmark/postproc/benchagg"
	"github.com/enclave-benchmark/postproc/benchconf"
	"github.com/enclave-benchmark/postproc/benchrun"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var gridWidth float64
	cmd := &cobra.Command{
		Use:   "aggregate <config.toml> <output-dir>",
		Short: "summarize enclave benchmark results into per-experiment CSVs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The arguments are valid; from here on errors are
			// runtime failures and repeating the usage text
			// would only bury them.
			cmd.SilenceUsage = true
			return run(args[0], args[1], gridWidth)
		},
	}
	cmd.Flags().Float64Var(&gridWidth, "energy-grid", benchagg.DefaultGridWidth,
		"energy resampling grid width in microseconds")
	return cmd
}

func run(configPath, outDir string, gridWidth float64) error {
	log := logrus.New()

	log.WithField("config", configPath).Info("reading benchmark plan")
	cfg, err := benchconf.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Globals.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	log.WithField("dir", outDir).Info("created output directory")

	r := &benchrun.Runner{
		Config:          cfg,
		OutputDir:       outDir,
		SkipSGX:         skipSGX(os.Getenv("EB_SKIP_SGX")),
		EnergyGridWidth: gridWidth,
		Log:             log,
	}
	return r.Run()
}

// skipSGX reports whether the EB_SKIP_SGX toggle is on. The benchmark
// harness checks for exactly "1"; accepting anything but the obvious
// off values keeps shell usage like EB_SKIP_SGX=true working too.
func skipSGX(v string) bool {
	switch strings.ToLower(v) {
	case "", "0", "false":
		return false
	}
	return true
}
