// Package dataprep converts a raw movie-ratings CSV into the pair of
// training and test files consumed by the external recommendation
// trainer. It binarizes the rating column against a threshold, sorts
// the body deterministically by the timestamp column, and cuts a
// reproducible train/test split.
//
// Rows are kept as raw comma-split fields so that column order and
// count round-trip unchanged; only the rating column is rewritten.
package dataprep

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Column positions in the ratings schema: userId,movieId,rating,timestamp,...
const (
	ratingColumn  = 2
	sortKeyColumn = 3
	minColumns    = 4
)

// Defaults matching the MovieLens-style preparation this tool replicates.
const (
	DefaultThreshold     = 3.0
	DefaultTrainFraction = 0.9
	DefaultTestFraction  = 0.1
)

// Record is one body row of the ratings file.
type Record struct {
	Fields  []string // raw fields, rating rewritten to the binary label
	SortKey int64    // parsed timestamp column, drives the split order
}

// Options configures a single preparation run.
type Options struct {
	InputPath     string
	TrainPath     string
	TestPath      string
	Threshold     float64 // ratings strictly above this become label 1
	TrainFraction float64
	TestFraction  float64
}

// DefaultOptions returns Options with the standard threshold and 90/10 split.
func DefaultOptions(input, train, test string) Options {
	return Options{
		InputPath:     input,
		TrainPath:     train,
		TestPath:      test,
		Threshold:     DefaultThreshold,
		TrainFraction: DefaultTrainFraction,
		TestFraction:  DefaultTestFraction,
	}
}

func (o Options) validate() error {
	if o.InputPath == "" || o.TrainPath == "" || o.TestPath == "" {
		return fmt.Errorf("dataprep: input and both output paths are required")
	}
	if o.TrainFraction <= 0 || o.TrainFraction > 1 {
		return fmt.Errorf("dataprep: train fraction must be in (0,1], got %f", o.TrainFraction)
	}
	if o.TestFraction < 0 || o.TestFraction >= 1 {
		return fmt.Errorf("dataprep: test fraction must be in [0,1), got %f", o.TestFraction)
	}
	if o.Threshold < 0 {
		return fmt.Errorf("dataprep: rating threshold must be non-negative, got %f", o.Threshold)
	}
	return nil
}

// ParseError reports a malformed body row. Row is the zero-based index
// of the row within the body; the header is not counted.
type ParseError struct {
	Row    int
	Column int
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("body row %d, column %d: %s (%q)", e.Row, e.Column, e.Reason, e.Value)
}

// MetricsSink receives counters from a preparation run. Implemented by
// metrics.Wrapper; a nil sink disables reporting.
type MetricsSink interface {
	RowsReadAdd(n int)
	TrainRowsAdd(n int)
	TestRowsAdd(n int)
	ParseErrorInc()
	PrepareDurationObserve(d time.Duration)
}

// Result summarizes a successful preparation run.
type Result struct {
	BodyRows     int
	TrainRows    int
	TestRows     int
	PositiveRows int // rows whose rating exceeded the threshold
	Duration     time.Duration
}

// Prepare runs the full transform: read, binarize, sort, split, write.
func Prepare(opts Options) (*Result, error) {
	return PrepareWithMetrics(opts, nil)
}

// PrepareWithMetrics is Prepare with a metrics sink attached.
//
// All in-memory processing completes before the first output byte is
// written; if the second output fails the first is removed, so a
// failed run never leaves an inconsistent train/test pair behind.
func PrepareWithMetrics(opts Options, sink MetricsSink) (*Result, error) {
	start := time.Now()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	header, body, err := readLines(opts.InputPath)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(body))
	positives := 0
	for i, line := range body {
		fields := strings.Split(line, ",")
		if len(fields) < minColumns {
			if sink != nil {
				sink.ParseErrorInc()
			}
			return nil, &ParseError{Row: i, Column: len(fields), Value: line, Reason: "row has too few columns"}
		}

		rating, err := strconv.ParseFloat(fields[ratingColumn], 64)
		if err != nil {
			if sink != nil {
				sink.ParseErrorInc()
			}
			return nil, &ParseError{Row: i, Column: ratingColumn, Value: fields[ratingColumn], Reason: "rating is not numeric"}
		}

		key, err := strconv.ParseInt(fields[sortKeyColumn], 10, 64)
		if err != nil {
			if sink != nil {
				sink.ParseErrorInc()
			}
			return nil, &ParseError{Row: i, Column: sortKeyColumn, Value: fields[sortKeyColumn], Reason: "sort key is not an integer"}
		}

		if rating > opts.Threshold {
			fields[ratingColumn] = "1"
			positives++
		} else {
			fields[ratingColumn] = "0"
		}

		records = append(records, Record{Fields: fields, SortKey: key})
	}

	if sink != nil {
		sink.RowsReadAdd(len(records))
	}

	// Stable so that equal sort keys keep their input order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortKey < records[j].SortKey
	})

	// The two cuts truncate independently: for body sizes that are not
	// a multiple of 10 they can overlap or leave a gap. That matches
	// the original preparation exactly and is relied on downstream.
	n := len(records)
	trainCount := int(float64(n) * opts.TrainFraction)
	testCount := int(float64(n) * opts.TestFraction)
	training := records[:trainCount]
	test := records[n-testCount:]

	if err := writeSubset(opts.TrainPath, header, training); err != nil {
		return nil, err
	}
	if err := writeSubset(opts.TestPath, header, test); err != nil {
		if rmErr := os.Remove(opts.TrainPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", opts.TrainPath).Msg("failed to remove training output after error")
		}
		return nil, err
	}

	if sink != nil {
		sink.TrainRowsAdd(trainCount)
		sink.TestRowsAdd(testCount)
		sink.PrepareDurationObserve(time.Since(start))
	}

	res := &Result{
		BodyRows:     n,
		TrainRows:    trainCount,
		TestRows:     testCount,
		PositiveRows: positives,
		Duration:     time.Since(start),
	}

	log.Info().
		Str("input", opts.InputPath).
		Int("body_rows", res.BodyRows).
		Int("train_rows", res.TrainRows).
		Int("test_rows", res.TestRows).
		Int("positive_rows", res.PositiveRows).
		Msg("dataset prepared")

	return res, nil
}

// readLines reads the whole input and splits it into the header line
// and the body lines. Line endings are normalized the way text-mode
// readers do: the trailing newline is dropped and CR suffixes stripped.
func readLines(path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read input %s: %w", path, err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	text = strings.TrimSuffix(text, "\r")
	if text == "" {
		return "", nil, fmt.Errorf("input %s: empty file, header row required", path)
	}

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines[0], lines[1:], nil
}

// writeSubset writes header plus records to path, overwriting any
// existing file. On any failure the partial file is removed.
func writeSubset(path, header string, records []Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(path)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err = w.WriteString(header + "\n"); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, r := range records {
		if _, err = w.WriteString(strings.Join(r.Fields, ",") + "\n"); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
