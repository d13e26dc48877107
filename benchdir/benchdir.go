// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchdir models the directory layout the enclave_benchmark
// harness writes measurements into.
//
// The layout is pure convention: the harness and the aggregator only
// agree on path shapes, never on file contents. Keeping the path
// arithmetic here, on a plain value type, keeps it testable without a
// filesystem and keeps sgx/storage suffix bugs out of the driver.
package benchdir

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// An Experiment identifies one directory of repeated-run samples: a
// task at one thread count under one storage backend, with isolation
// on or off.
//
// Enclave size is part of the benchmark plan but not of this layout;
// the harness's aggregation convention names directories by task,
// thread count and storage only.
type Experiment struct {
	Task    string
	Threads int
	Storage string // defaults to "untrusted" when empty
	SGX     bool
}

func (e Experiment) storage() string {
	if e.Storage == "" {
		return "untrusted"
	}
	return e.Storage
}

// Dir returns the experiment's directory path relative to the input
// root: task/{gramine-sgx|no-gramine-sgx}/task-threads/task-threads-storage.
func (e Experiment) Dir() string {
	mode := "no-gramine-sgx"
	if e.SGX {
		mode = "gramine-sgx"
	}
	group := fmt.Sprintf("%s-%d", e.Task, e.Threads)
	return filepath.Join(e.Task, mode, group, group+"-"+e.storage())
}

// ResultDir returns the name of the output directory aggregated
// results for e are written under: task-threads-storage, with an
// "sgx-" prefix for isolated runs.
func (e Experiment) ResultDir() string {
	name := fmt.Sprintf("%s-%d-%s", e.Task, e.Threads, e.storage())
	if e.SGX {
		return "sgx-" + name
	}
	return name
}

// String returns the result directory name, which is unique per
// experiment and reads well in logs.
func (e Experiment) String() string { return e.ResultDir() }

// RunDir returns the directory of the i'th repetition (1-based) of e
// under root.
func (e Experiment) RunDir(root string, i int) string {
	return filepath.Join(root, e.Dir(), strconv.Itoa(i))
}

// RunFiles returns the path of the named sample file in each of the n
// repetition directories of e, in run order.
func (e Experiment) RunFiles(root, name string, n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = filepath.Join(e.RunDir(root, i+1), name)
	}
	return files
}

// DeepTraceDir returns e's deep-trace directory under root, a sibling
// of the numbered repetition directories.
func (e Experiment) DeepTraceDir(root string) string {
	return filepath.Join(root, e.Dir(), "deep-trace")
}

// Energy sample files are named after the RAPL domain they were read
// from: package-0.csv, package-0-core.csv, and so on.
var energyFileRE = regexp.MustCompile(`^package-\d+(-core|-uncore|-dram)?\.csv$`)

// EnergyFiles returns the names of the energy sample files in dir, in
// lexical order. Which RAPL domains exist is hardware-dependent, so
// callers discover the set once from a directory known to exist and
// assume every other run directory holds the same names.
func EnergyFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "scanning for energy sample files")
	}
	var files []string
	for _, ent := range entries {
		if !ent.IsDir() && energyFileRE.MatchString(ent.Name()) {
			files = append(files, ent.Name())
		}
	}
	return files, nil
}
