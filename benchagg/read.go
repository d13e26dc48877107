// Copyright 2025 The Enclave Benchmark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/aclements/go-gg/table"
	"github.com/pkg/errors"
)

// perf.csv is the headerless output of "perf stat --field-separator ,":
// seven fixed columns per event.
var perfColumns = []string{"counter", "unit_counter", "event", "runtime_counter", "perc_runtime", "metric", "unit_metric"}

// io.csv carries one I/O counter per row.
var ioColumns = []string{"dimension", "unit", "value", "description"}

// Energy sample files carry one RAPL reading per row.
var energyColumns = []string{"timestamp (us)", "energy (microjoule)"}

// dataErr converts a csv reading error into a *DataError when it names
// a position in the file, and otherwise returns the underlying I/O
// error with context.
func dataErr(path string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &DataError{File: path, Line: perr.Line, Msg: perr.Err.Error()}
	}
	return errors.Wrap(err, path)
}

// readPerfFile reads one run's perf.csv into a table with the
// perfColumns schema.
func readPerfFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading perf samples")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(perfColumns)

	var (
		counter, runtimeCounter, percRuntime, metric []float64
		unitCounter, event, unitMetric               []string
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dataErr(path, err)
		}
		line, _ := r.FieldPos(0)
		c, err := parseFloat(path, line, "counter", rec[0])
		if err != nil {
			return nil, err
		}
		rt, err := parseFloat(path, line, "runtime_counter", rec[3])
		if err != nil {
			return nil, err
		}
		pr, err := parseFloat(path, line, "perc_runtime", rec[4])
		if err != nil {
			return nil, err
		}
		m, err := parseFloat(path, line, "metric", rec[5])
		if err != nil {
			return nil, err
		}
		counter = append(counter, c)
		unitCounter = append(unitCounter, rec[1])
		event = append(event, rec[2])
		runtimeCounter = append(runtimeCounter, rt)
		percRuntime = append(percRuntime, pr)
		metric = append(metric, m)
		unitMetric = append(unitMetric, rec[6])
	}
	if len(event) == 0 {
		return nil, &DataError{File: path, Msg: "no samples"}
	}

	return new(table.Builder).
		Add("counter", counter).
		Add("unit_counter", unitCounter).
		Add("event", event).
		Add("runtime_counter", runtimeCounter).
		Add("perc_runtime", percRuntime).
		Add("metric", metric).
		Add("unit_metric", unitMetric).
		Done(), nil
}

// readIOFile reads one run's io.csv into a table with columns
// dimension, unit, value, description. A file holding only the header
// yields an empty table.
func readIOFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading io samples")
	}
	defer f.Close()

	r := csv.NewReader(f)
	if err := readHeader(path, r, ioColumns); err != nil {
		return nil, err
	}

	var (
		dimension, unit, description []string
		value                        []float64
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dataErr(path, err)
		}
		line, _ := r.FieldPos(0)
		v, err := parseFloat(path, line, "value", rec[2])
		if err != nil {
			return nil, err
		}
		dimension = append(dimension, rec[0])
		unit = append(unit, rec[1])
		value = append(value, v)
		description = append(description, rec[3])
	}

	b := new(table.Builder)
	b.Add("dimension", dimension)
	b.Add("unit", unit)
	b.Add("value", value)
	b.Add("description", description)
	return b.Done(), nil
}

// A trace is one run's raw energy series: timestamps in microseconds
// since an arbitrary epoch and energy readings in microjoules.
type trace struct {
	time   []float64
	energy []float64
}

// readEnergyFile reads one run's energy samples for a single RAPL
// domain.
func readEnergyFile(path string) (trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return trace{}, errors.Wrap(err, "reading energy samples")
	}
	defer f.Close()

	r := csv.NewReader(f)
	if err := readHeader(path, r, energyColumns); err != nil {
		return trace{}, err
	}

	var tr trace
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return trace{}, dataErr(path, err)
		}
		line, _ := r.FieldPos(0)
		ts, err := parseFloat(path, line, "timestamp", rec[0])
		if err != nil {
			return trace{}, err
		}
		e, err := parseFloat(path, line, "energy", rec[1])
		if err != nil {
			return trace{}, err
		}
		if n := len(tr.time); n > 0 && ts < tr.time[n-1] {
			return trace{}, &DataError{File: path, Line: line, Msg: "timestamps not in ascending order"}
		}
		tr.time = append(tr.time, ts)
		tr.energy = append(tr.energy, e)
	}
	if len(tr.time) == 0 {
		return trace{}, &DataError{File: path, Msg: "no samples"}
	}
	return tr, nil
}

// readHeader consumes the first record of r and checks it against the
// expected column names. The units are part of the names, so a harness
// writing in different units fails here instead of skewing results.
func readHeader(path string, r *csv.Reader, want []string) error {
	rec, err := r.Read()
	if err == io.EOF {
		return &DataError{File: path, Msg: "missing header"}
	}
	if err != nil {
		return dataErr(path, err)
	}
	if !slices.Equal(rec, want) {
		return &DataError{File: path, Line: 1, Msg: fmt.Sprintf("unexpected header %q, want %q", rec, want)}
	}
	return nil
}

func parseFloat(path string, line int, col, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &DataError{File: path, Line: line, Msg: fmt.Sprintf("malformed %s %q", col, s)}
	}
	return v, nil
}
