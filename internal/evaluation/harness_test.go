package evaluation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vinh406/video-transcription-app/internal/providers"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

// scriptedDataset serves fixed samples and scores by string equality:
// metric 0 for an exact match, 1 otherwise.
type scriptedDataset struct {
	samples []Sample
	lang    string
}

func (d *scriptedDataset) Name() string     { return "scripted" }
func (d *scriptedDataset) Language() string { return d.lang }

func (d *scriptedDataset) Load(split string, limit int) ([]Sample, error) {
	if limit > 0 && limit < len(d.samples) {
		return d.samples[:limit], nil
	}
	return d.samples, nil
}

func (d *scriptedDataset) PrepareAudio(sample Sample, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("sample_%d.wav", sample.ID))
	return path, os.WriteFile(path, []byte(sample.Reference), 0o644)
}

func (d *scriptedDataset) Score(sample Sample, result *providers.Transcription) (string, float64, error) {
	hyp := ""
	if len(result.Segments) > 0 {
		hyp = result.Segments[0].Text
	}
	if hyp == sample.Reference {
		return hyp, 0, nil
	}
	return hyp, 1, nil
}

func (d *scriptedDataset) Aggregate(records []Record) (map[string]float64, error) {
	total := 0.0
	for _, r := range records {
		total += r.MetricValue
	}
	return map[string]float64{"ERR": total / float64(len(records))}, nil
}

// echoProvider transcribes by reading the prepared file back, which the
// scripted dataset fills with the reference text.
type echoProvider struct {
	calls []int
	fail  map[int]bool
	n     int
}

func (p *echoProvider) Name() string { return "echo" }

func (p *echoProvider) Transcribe(ctx context.Context, audioPath string, language string) (*providers.Transcription, error) {
	id := -1
	fmt.Sscanf(filepath.Base(audioPath), "sample_%d.wav", &id)
	p.n++
	p.calls = append(p.calls, id)
	if p.fail[id] {
		return nil, errors.New("upstream down")
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, err
	}
	return &providers.Transcription{
		Segments: []segment.Segment{{Text: string(data)}},
		Language: language,
	}, nil
}

func newScripted(n int) *scriptedDataset {
	d := &scriptedDataset{lang: "en"}
	for i := 0; i < n; i++ {
		d.samples = append(d.samples, Sample{ID: i, Reference: fmt.Sprintf("sentence %d", i)})
	}
	return d
}

func newTestHarness(t *testing.T, dataset Dataset, provider providers.Provider) *Harness {
	t.Helper()
	h := NewHarness(dataset, provider, t.TempDir())
	h.TempDir = t.TempDir()
	h.Delay = 0
	return h
}

func TestEvaluateProcessesAllSamples(t *testing.T) {
	provider := &echoProvider{}
	h := newTestHarness(t, newScripted(3), provider)

	records, err := h.Evaluate(context.Background(), "test", 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, r := range records {
		if r.SampleID != i {
			t.Fatalf("record %d has sample_id %d", i, r.SampleID)
		}
		if r.MetricValue != 0 {
			t.Fatalf("sample %d scored %v, want 0", r.SampleID, r.MetricValue)
		}
	}
}

func TestEvaluateResumesFromCSV(t *testing.T) {
	dataset := newScripted(5)
	provider := &echoProvider{}
	h := newTestHarness(t, dataset, provider)

	// Seed a previous partial run covering samples 0..2.
	seed := []Record{
		{SampleID: 0, Reference: "sentence 0", Hypothesis: "kept as-is", MetricValue: 0.7, ProcessingTime: 1.5},
		{SampleID: 1, Reference: "sentence 1", Hypothesis: "sentence 1", MetricValue: 0, ProcessingTime: 1.1},
		{SampleID: 2, Reference: "sentence 2", Hypothesis: "sentence 2", MetricValue: 0, ProcessingTime: 0.9},
	}
	if err := SaveRecords(h.ResultsPath(), seed); err != nil {
		t.Fatalf("seed results: %v", err)
	}

	records, err := h.Evaluate(context.Background(), "test", 5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}
	// Only the unprocessed samples hit the provider.
	if len(provider.calls) != 2 || provider.calls[0] != 3 || provider.calls[1] != 4 {
		t.Fatalf("provider saw samples %v, want [3 4]", provider.calls)
	}
	// Previously processed rows are untouched, including their scores.
	if records[0].Hypothesis != "kept as-is" || records[0].MetricValue != 0.7 {
		t.Fatalf("seeded record was rewritten: %+v", records[0])
	}
}

func TestEvaluateQuotaAlreadyMet(t *testing.T) {
	provider := &echoProvider{}
	h := newTestHarness(t, newScripted(5), provider)

	seed := []Record{
		{SampleID: 0, Reference: "a", Hypothesis: "a"},
		{SampleID: 1, Reference: "b", Hypothesis: "b"},
	}
	if err := SaveRecords(h.ResultsPath(), seed); err != nil {
		t.Fatal(err)
	}

	records, err := h.Evaluate(context.Background(), "test", 2)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want the 2 existing", len(records))
	}
	if len(provider.calls) != 0 {
		t.Fatalf("provider was called for %v despite met quota", provider.calls)
	}
}

func TestEvaluateStopsOnProviderError(t *testing.T) {
	provider := &echoProvider{fail: map[int]bool{1: true}}
	h := newTestHarness(t, newScripted(4), provider)

	records, err := h.Evaluate(context.Background(), "test", 0)
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want the 1 processed before the failure", len(records))
	}

	// The partial run is on disk and a rerun picks up at the failed sample.
	saved, loadErr := LoadRecords(h.ResultsPath())
	if loadErr != nil {
		t.Fatalf("LoadRecords: %v", loadErr)
	}
	if len(saved) != 1 || saved[0].SampleID != 0 {
		t.Fatalf("saved records = %+v", saved)
	}

	provider.fail = nil
	records, err = h.Evaluate(context.Background(), "test", 0)
	if err != nil {
		t.Fatalf("rerun Evaluate: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("rerun got %d records, want 4", len(records))
	}
}

func TestEvaluateRemovesTransientAudio(t *testing.T) {
	provider := &echoProvider{}
	h := newTestHarness(t, newScripted(2), provider)

	if _, err := h.Evaluate(context.Background(), "test", 0); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	entries, err := os.ReadDir(h.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir still holds %d files after the run", len(entries))
	}
}

func TestGenerateReport(t *testing.T) {
	provider := &echoProvider{}
	h := newTestHarness(t, newScripted(2), provider)

	if _, err := h.Evaluate(context.Background(), "test", 0); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	report, err := h.GenerateReport()
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if report.Samples != 2 {
		t.Fatalf("report covers %d samples, want 2", report.Samples)
	}
	if report.Metrics["ERR"] != 0 {
		t.Fatalf("aggregate metric = %v, want 0", report.Metrics["ERR"])
	}
	if report.Service != "echo" || report.Dataset != "scripted" {
		t.Fatalf("report identity: %s/%s", report.Service, report.Dataset)
	}
	if report.TotalTime < 0 || report.AvgTime < 0 {
		t.Fatal("negative time stats")
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	in := []Record{
		{SampleID: 0, Reference: "a, with commas", Hypothesis: "line\nbreak", MetricValue: 0.25, ProcessingTime: 1.75},
		{SampleID: 3, Reference: "plain", Hypothesis: "plain", MetricValue: 0, ProcessingTime: 0.5},
	}
	if err := SaveRecords(path, in); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	out, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d records, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("record %d changed: %+v vs %+v", i, out[i], in[i])
		}
	}
}

func TestLoadRecordsMissingFile(t *testing.T) {
	records, err := LoadRecords(filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if records != nil {
		t.Fatalf("missing file returned records: %v", records)
	}
}

func TestResultsPathNaming(t *testing.T) {
	h := NewHarness(newScripted(1), &echoProvider{}, "/data/results")
	want := "/data/results/echo_scripted_en_results.csv"
	if got := h.ResultsPath(); got != want {
		t.Fatalf("ResultsPath = %q, want %q", got, want)
	}
	if !strings.HasSuffix(want, "_results.csv") {
		t.Fatal("naming convention changed")
	}
}
