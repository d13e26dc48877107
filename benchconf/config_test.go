// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchconf

import (
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func writePlan(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.toml")
	if err := os.WriteFile(path, []byte(contents), 0o666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writePlan(t, `
[globals]
sample_size = 5
num_threads = [1, 2, 8]
enclave_size = ["64M", "256M"]
output_directory = "/data/results"
extra_perf_events = ["sgx_encl_eldu"]
debug = true
deep_trace = true
energy_sample_interval = "250ms"

[[tasks]]
executable = "/usr/local/bin/nbody"
args = ["--iterations", "100"]

[[tasks]]
executable = "bin/simple-writer"
storage_type = ["encrypted", "tmpfs"]
num_threads = [4]
enclave_size = ["1G"]
pre_run_executable = "/bin/sync"
`))
	if err != nil {
		t.Fatal(err)
	}

	g := c.Globals
	if g.SampleSize != 5 {
		t.Errorf("SampleSize = %d, want 5", g.SampleSize)
	}
	if got, want := c.InputDir(), "/data/results"; got != want {
		t.Errorf("InputDir = %q, want %q", got, want)
	}
	if !g.Debug || !g.DeepTrace {
		t.Errorf("Debug, DeepTrace = %v, %v, want both true", g.Debug, g.DeepTrace)
	}
	if got, want := g.EnergySampleInterval.Duration(), 250*time.Millisecond; got != want {
		t.Errorf("EnergySampleInterval = %v, want %v", got, want)
	}

	if len(c.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(c.Tasks))
	}
	first, second := c.Tasks[0], c.Tasks[1]
	if got, want := first.Name(), "nbody"; got != want {
		t.Errorf("Tasks[0].Name = %q, want %q", got, want)
	}
	// Unset per-task fields inherit the globals.
	if got, want := first.NumThreads, []int{1, 2, 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[0].NumThreads = %v, want %v", got, want)
	}
	if got, want := first.EnclaveSize, []string{"64M", "256M"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[0].EnclaveSize = %v, want %v", got, want)
	}
	if got, want := first.StorageType, []string{StorageUntrusted}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[0].StorageType = %v, want %v", got, want)
	}
	// Set per-task fields win.
	if got, want := second.Name(), "simple-writer"; got != want {
		t.Errorf("Tasks[1].Name = %q, want %q", got, want)
	}
	if got, want := second.NumThreads, []int{4}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[1].NumThreads = %v, want %v", got, want)
	}
	if got, want := second.StorageType, []string{StorageEncrypted, StorageTmpfs}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[1].StorageType = %v, want %v", got, want)
	}
	if got, want := second.EnclaveSize, []string{"1G"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[1].EnclaveSize = %v, want %v", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writePlan(t, `
[globals]
sample_size = 1
output_directory = "out"

[[tasks]]
executable = "noop"
storage_type = []
`))
	if err != nil {
		t.Fatal(err)
	}
	g := c.Globals
	if got, want := g.NumThreads, []int{1}; !reflect.DeepEqual(got, want) {
		t.Errorf("NumThreads = %v, want %v", got, want)
	}
	if g.Debug || g.DeepTrace {
		t.Errorf("Debug, DeepTrace = %v, %v, want both false", g.Debug, g.DeepTrace)
	}
	if got, want := g.EnergySampleInterval.Duration(), DefaultEnergySampleInterval; got != want {
		t.Errorf("EnergySampleInterval = %v, want %v", got, want)
	}
	// An explicit empty storage list means the default, like the
	// harness's deserializer.
	if got, want := c.Tasks[0].StorageType, []string{StorageUntrusted}; !reflect.DeepEqual(got, want) {
		t.Errorf("StorageType = %v, want %v", got, want)
	}
	if got, want := c.Tasks[0].NumThreads, []int{1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tasks[0].NumThreads = %v, want %v", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		wantKey string
	}{
		{
			"missing sample_size",
			"[globals]\noutput_directory = \"out\"\n[[tasks]]\nexecutable = \"a\"\n",
			"globals.sample_size",
		},
		{
			"zero sample_size",
			"[globals]\nsample_size = 0\noutput_directory = \"out\"\n[[tasks]]\nexecutable = \"a\"\n",
			"globals.sample_size",
		},
		{
			"missing output_directory",
			"[globals]\nsample_size = 3\n[[tasks]]\nexecutable = \"a\"\n",
			"globals.output_directory",
		},
		{
			"no tasks",
			"[globals]\nsample_size = 3\noutput_directory = \"out\"\n",
			"tasks",
		},
		{
			"missing executable",
			"[globals]\nsample_size = 3\noutput_directory = \"out\"\n[[tasks]]\nargs = [\"-v\"]\n",
			"tasks[0].executable",
		},
		{
			"unknown storage type",
			"[globals]\nsample_size = 3\noutput_directory = \"out\"\n[[tasks]]\nexecutable = \"a\"\nstorage_type = [\"trusted\"]\n",
			"tasks[0].storage_type",
		},
		{
			"bad global thread count",
			"[globals]\nsample_size = 3\nnum_threads = [0]\noutput_directory = \"out\"\n[[tasks]]\nexecutable = \"a\"\n",
			"globals.num_threads",
		},
		{
			"bad task thread count",
			"[globals]\nsample_size = 3\noutput_directory = \"out\"\n[[tasks]]\nexecutable = \"a\"\nnum_threads = [-1]\n",
			"tasks[0].num_threads",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writePlan(t, test.plan))
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("Load = %v, want *Error", err)
			}
			if cerr.Key != test.wantKey {
				t.Errorf("Key = %q, want %q", cerr.Key, test.wantKey)
			}
		})
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	_, err := Load(writePlan(t, "[globals\nsample_size = 3\n"))
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Load = %v, want *Error", err)
	}
	if cerr.Key != "" {
		t.Errorf("Key = %q, want empty for a file-level parse error", cerr.Key)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Load succeeded, want error")
	}
	// A missing plan file is an I/O problem, not a config problem.
	var cerr *Error
	if errors.As(err, &cerr) {
		t.Errorf("Load = *Error %v, want plain I/O error", cerr)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load = %v, want fs.ErrNotExist", err)
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1500ms")); err != nil {
		t.Fatal(err)
	}
	if got, want := d.Duration(), 1500*time.Millisecond; got != want {
		t.Errorf("Duration = %v, want %v", got, want)
	}
	if err := d.UnmarshalText([]byte("fast")); err == nil {
		t.Error("UnmarshalText accepted \"fast\"")
	}
}
