package evaluation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var resultColumns = []string{"sample_id", "reference", "hypothesis", "metric_value", "processing_time"}

// LoadRecords reads a results CSV. A missing file is an empty run, not
// an error.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open results file %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse results file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(resultColumns) {
			return nil, fmt.Errorf("results file %s row %d has %d columns, want %d", path, i+2, len(row), len(resultColumns))
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("results file %s row %d has bad sample_id %q: %w", path, i+2, row[0], err)
		}
		metric, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("results file %s row %d has bad metric_value %q: %w", path, i+2, row[3], err)
		}
		elapsed, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("results file %s row %d has bad processing_time %q: %w", path, i+2, row[4], err)
		}
		records = append(records, Record{
			SampleID:       id,
			Reference:      row[1],
			Hypothesis:     row[2],
			MetricValue:    metric,
			ProcessingTime: elapsed,
		})
	}
	return records, nil
}

// SaveRecords rewrites the full results CSV. The write goes through a
// temp file and a rename so an interrupted run never truncates the file
// it resumes from.
func SaveRecords(path string, records []Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp results file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(resultColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write results header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.SampleID),
			r.Reference,
			r.Hypothesis,
			strconv.FormatFloat(r.MetricValue, 'f', -1, 64),
			strconv.FormatFloat(r.ProcessingTime, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write results row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp results file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace results file %s: %w", path, err)
	}
	return nil
}

// ProcessedIDs returns the set of sample IDs already present in records.
func ProcessedIDs(records []Record) map[int]bool {
	ids := make(map[int]bool, len(records))
	for _, r := range records {
		ids[r.SampleID] = true
	}
	return ids
}
