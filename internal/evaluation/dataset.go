// Package evaluation benchmarks transcription providers against speech
// datasets. Runs are resumable: every processed sample lands in a results
// CSV, and a rerun skips the sample IDs already present there.
package evaluation

import (
	"github.com/vinh406/video-transcription-app/internal/providers"
)

// Sample is one evaluation input. ID is the sample's position in the
// split and doubles as the resume key. Reference holds the ground truth
// in the dataset's own encoding: plain text for transcription datasets,
// serialized speaker turns for diarization datasets.
type Sample struct {
	ID        int
	Reference string
	AudioPath string
}

// Record is one scored sample, exactly one CSV row.
type Record struct {
	SampleID       int
	Reference      string
	Hypothesis     string
	MetricValue    float64
	ProcessingTime float64
}

// Dataset is a source of samples with a dataset-specific metric.
type Dataset interface {
	Name() string
	Language() string
	// Load returns the samples of the split, at most limit when limit > 0.
	Load(split string, limit int) ([]Sample, error)
	// PrepareAudio materializes the sample's audio as a transient file in
	// dir. The caller removes it.
	PrepareAudio(sample Sample, dir string) (string, error)
	// Score converts a provider result into the sample's hypothesis
	// encoding and per-sample metric value.
	Score(sample Sample, result *providers.Transcription) (hypothesis string, metricValue float64, err error)
	// Aggregate computes the dataset-level metrics over all records.
	Aggregate(records []Record) (map[string]float64, error)
}
