package evaluation

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vinh406/video-transcription-app/internal/providers"
)

// DefaultSampleDelay spaces provider calls out to stay under rate limits.
const DefaultSampleDelay = 2 * time.Second

// Harness runs a provider over a dataset split, one sample at a time,
// flushing the results CSV after every sample so a crashed or stopped
// run resumes where it left off.
type Harness struct {
	Dataset    Dataset
	Provider   providers.Provider
	ResultsDir string
	TempDir    string
	Delay      time.Duration
}

// NewHarness returns a harness writing results under resultsDir.
func NewHarness(dataset Dataset, provider providers.Provider, resultsDir string) *Harness {
	return &Harness{
		Dataset:    dataset,
		Provider:   provider,
		ResultsDir: resultsDir,
		TempDir:    os.TempDir(),
		Delay:      DefaultSampleDelay,
	}
}

// ResultsPath is where this dataset/provider/language combination keeps
// its CSV.
func (h *Harness) ResultsPath() string {
	filename := fmt.Sprintf("%s_%s_%s_results.csv", h.Provider.Name(), h.Dataset.Name(), h.Dataset.Language())
	return filepath.Join(h.ResultsDir, filename)
}

// Evaluate processes up to limit samples of the split, skipping sample
// IDs already present in the results CSV. A provider error stops the
// run after the partial results are flushed and is returned alongside
// them.
func (h *Harness) Evaluate(ctx context.Context, split string, limit int) ([]Record, error) {
	samples, err := h.Dataset.Load(split, limit)
	if err != nil {
		return nil, err
	}

	resultsPath := h.ResultsPath()
	records, err := LoadRecords(resultsPath)
	if err != nil {
		return nil, err
	}
	processed := ProcessedIDs(records)
	if len(processed) > 0 {
		log.Printf("Evaluate: found existing results with %d processed samples", len(processed))
	}

	var quota int
	if limit > 0 {
		quota = limit - len(processed)
	} else {
		quota = len(samples) - len(processed)
	}
	if quota <= 0 {
		log.Printf("Evaluate: all requested samples already processed, nothing to do")
		return records, nil
	}
	log.Printf("Evaluate: will process up to %d new samples with %s", quota, h.Provider.Name())

	processedCount := 0
	for _, sample := range samples {
		if processed[sample.ID] {
			continue
		}
		if processedCount >= quota {
			break
		}
		processedCount++

		record, err := h.runSample(ctx, sample)
		if err != nil {
			log.Printf("Evaluate: error processing sample %d: %v", sample.ID, err)
			return records, err
		}
		records = append(records, record)

		log.Printf("Evaluate: sample %d (%s): metric %.4f, %.2fs", sample.ID, h.Provider.Name(), record.MetricValue, record.ProcessingTime)
		if err := SaveRecords(resultsPath, records); err != nil {
			return records, err
		}

		if h.Delay > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(h.Delay):
			}
		}
	}
	return records, nil
}

func (h *Harness) runSample(ctx context.Context, sample Sample) (Record, error) {
	audioPath, err := h.Dataset.PrepareAudio(sample, h.TempDir)
	if err != nil {
		return Record{}, err
	}
	// Datasets may hand back their own files; only transient copies in
	// the temp dir are removed.
	if strings.HasPrefix(audioPath, h.TempDir) {
		defer os.Remove(audioPath)
	}

	startTime := time.Now()
	result, err := h.Provider.Transcribe(ctx, audioPath, h.Dataset.Language())
	elapsed := time.Since(startTime).Seconds()
	if err != nil {
		return Record{}, err
	}

	hypothesis, metricValue, err := h.Dataset.Score(sample, result)
	if err != nil {
		return Record{}, err
	}
	return Record{
		SampleID:       sample.ID,
		Reference:      sample.Reference,
		Hypothesis:     hypothesis,
		MetricValue:    metricValue,
		ProcessingTime: elapsed,
	}, nil
}

// Report aggregates a finished (or partial) run.
type Report struct {
	Service   string
	Dataset   string
	Language  string
	Samples   int
	Metrics   map[string]float64
	AvgTime   float64
	TotalTime float64
}

// GenerateReport loads the results CSV and computes the dataset metrics
// and timing statistics.
func (h *Harness) GenerateReport() (*Report, error) {
	records, err := LoadRecords(h.ResultsPath())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no results found at %s", h.ResultsPath())
	}

	datasetMetrics, err := h.Dataset.Aggregate(records)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, r := range records {
		total += r.ProcessingTime
	}
	return &Report{
		Service:   h.Provider.Name(),
		Dataset:   h.Dataset.Name(),
		Language:  h.Dataset.Language(),
		Samples:   len(records),
		Metrics:   datasetMetrics,
		AvgTime:   total / float64(len(records)),
		TotalTime: total,
	}, nil
}

// Print writes the report in human-readable form through the logger.
func (r *Report) Print() {
	log.Printf("Results for %s on %s dataset (%s):", r.Service, r.Dataset, r.Language)
	log.Printf("Total samples processed: %d", r.Samples)
	for name, value := range r.Metrics {
		log.Printf("%s: %.4f (%.2f%%)", name, value, value*100)
	}
	log.Printf("Average processing time: %.2f seconds", r.AvgTime)
	log.Printf("Total processing time: %.2f seconds (%.2f minutes)", r.TotalTime, r.TotalTime/60)
}
