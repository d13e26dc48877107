// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchconf loads the TOML benchmark plans understood by the
// enclave_benchmark harness.
//
// The harness and the aggregation tooling share one plan file: the
// harness consumes all of it, the aggregator only the parts that
// describe which experiment directories exist and how many repetitions
// each holds. Load parses the whole format regardless, applies the
// harness's defaults, and validates the keys aggregation depends on,
// so downstream code never sees a half-formed plan.
package benchconf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Storage backends the harness can run a task under. The backend only
// affects directory naming on this side of the pipeline.
const (
	StorageUntrusted = "untrusted"
	StorageEncrypted = "encrypted"
	StorageTmpfs     = "tmpfs"
)

// DefaultEnergySampleInterval is the energy sampling period the
// harness uses when the plan does not name one.
const DefaultEnergySampleInterval = 500 * time.Millisecond

// An Error describes an invalid or incomplete benchmark plan.
type Error struct {
	File string // plan file path
	Key  string // offending key, empty when the file as a whole is bad
	Msg  string
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Key, e.Msg)
}

// A Duration is a time.Duration that unmarshals from a TOML string
// such as "500ms" or "2s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// A Config is one benchmark plan: the [globals] table plus the task
// list. Configs returned by Load are normalized: every default has
// been applied and every list the driver iterates is non-empty.
type Config struct {
	Globals Globals `toml:"globals"`
	Tasks   []Task  `toml:"tasks"`
}

// Globals holds plan-wide parameters and the defaults tasks inherit.
type Globals struct {
	// SampleSize is the number of repetitions the harness ran per
	// experiment, and therefore the number of run directories the
	// aggregator reads.
	SampleSize int `toml:"sample_size"`

	// OutputDirectory is where the harness wrote its measurements.
	// It is the aggregator's input root.
	OutputDirectory string `toml:"output_directory"`

	// NumThreads are the thread counts swept by default. Tasks may
	// override them. Empty means [1].
	NumThreads []int `toml:"num_threads"`

	// EnclaveSize lists the enclave sizes swept for sgx runs. The
	// sizes never appear in directory names, so aggregation carries
	// them only for completeness.
	EnclaveSize []string `toml:"enclave_size"`

	// ExtraPerfEvents are additional perf events the harness
	// recorded beyond its built-in set.
	ExtraPerfEvents []string `toml:"extra_perf_events"`

	Debug     bool `toml:"debug"`
	DeepTrace bool `toml:"deep_trace"`

	// EnergySampleInterval is the period the harness sampled RAPL
	// counters at.
	EnergySampleInterval Duration `toml:"energy_sample_interval"`
}

// A Task describes one benchmarked executable and its parameter sweep.
// Fields the aggregator has no use for (args, manifest, hooks) are
// still parsed so that a single plan file drives both the harness and
// this tool.
type Task struct {
	Executable         string   `toml:"executable"`
	Args               []string `toml:"args"`
	CustomManifestPath string   `toml:"custom_manifest_path"`

	// StorageType lists the storage backends swept for sgx runs.
	// Defaults to [untrusted]; an explicit empty list means the
	// same, matching the harness.
	StorageType []string `toml:"storage_type"`

	// NumThreads and EnclaveSize override the globals when set.
	NumThreads  []int    `toml:"num_threads"`
	EnclaveSize []string `toml:"enclave_size"`

	PreRunExecutable  string   `toml:"pre_run_executable"`
	PreRunArgs        []string `toml:"pre_run_args"`
	PostRunExecutable string   `toml:"post_run_executable"`
	PostRunArgs       []string `toml:"post_run_args"`
}

// Name returns the task's name, the base name of its executable. The
// harness names experiment directories after it.
func (t *Task) Name() string { return filepath.Base(t.Executable) }

// InputDir returns the directory the harness wrote measurements into.
// The harness's output is the aggregator's input.
func (c *Config) InputDir() string { return c.Globals.OutputDirectory }

// Load reads and validates the benchmark plan at path.
//
// Keys this package does not model are ignored; the harness owns the
// format and may grow fields the aggregator never needs. A plan that
// cannot be parsed or fails validation returns an *Error. A plan file
// that cannot be read returns the underlying I/O error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading benchmark plan")
	}
	defer f.Close()

	var c Config
	if _, err := toml.NewDecoder(f).Decode(&c); err != nil {
		return nil, &Error{File: path, Msg: err.Error()}
	}
	if err := c.normalize(path); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize applies the harness's defaults and validates everything
// the aggregator depends on.
func (c *Config) normalize(path string) error {
	g := &c.Globals
	if g.SampleSize < 1 {
		return &Error{path, "globals.sample_size", "must be a positive repetition count"}
	}
	if g.OutputDirectory == "" {
		return &Error{path, "globals.output_directory", "missing"}
	}
	if len(g.NumThreads) == 0 {
		g.NumThreads = []int{1}
	}
	if err := checkThreads(path, "globals.num_threads", g.NumThreads); err != nil {
		return err
	}
	if g.EnergySampleInterval == 0 {
		g.EnergySampleInterval = Duration(DefaultEnergySampleInterval)
	}

	if len(c.Tasks) == 0 {
		return &Error{path, "tasks", "at least one task is required"}
	}
	for i := range c.Tasks {
		t := &c.Tasks[i]
		if t.Executable == "" {
			return &Error{path, fmt.Sprintf("tasks[%d].executable", i), "missing"}
		}
		if len(t.StorageType) == 0 {
			t.StorageType = []string{StorageUntrusted}
		}
		for _, s := range t.StorageType {
			switch s {
			case StorageUntrusted, StorageEncrypted, StorageTmpfs:
			default:
				return &Error{path, fmt.Sprintf("tasks[%d].storage_type", i),
					fmt.Sprintf("unknown storage type %q", s)}
			}
		}
		if len(t.NumThreads) == 0 {
			t.NumThreads = g.NumThreads
		} else if err := checkThreads(path, fmt.Sprintf("tasks[%d].num_threads", i), t.NumThreads); err != nil {
			return err
		}
		if len(t.EnclaveSize) == 0 {
			t.EnclaveSize = g.EnclaveSize
		}
	}
	return nil
}

func checkThreads(path, key string, threads []int) error {
	for _, n := range threads {
		if n < 1 {
			return &Error{path, key, fmt.Sprintf("thread count %d is not positive", n)}
		}
	}
	return nil
}
