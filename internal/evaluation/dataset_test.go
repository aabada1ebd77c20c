package evaluation

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vinh406/video-transcription-app/internal/metrics"
	"github.com/vinh406/video-transcription-app/internal/providers"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

func writeCommonVoiceFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tsv := "client_id\tpath\tsentence\n" +
		"c1\tclip0.mp3\tthe quick brown fox\n" +
		"c2\tclip1.mp3\tjumps over the lazy dog\n" +
		"c3\tclip2.mp3\thello world\n"
	if err := os.WriteFile(filepath.Join(dir, "test.tsv"), []byte(tsv), 0o644); err != nil {
		t.Fatal(err)
	}
	clips := filepath.Join(dir, "clips")
	if err := os.Mkdir(clips, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"clip0.mp3", "clip1.mp3", "clip2.mp3"} {
		if err := os.WriteFile(filepath.Join(clips, name), []byte("audio "+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCommonVoiceLoad(t *testing.T) {
	d := NewCommonVoiceDataset(writeCommonVoiceFixture(t), "en")

	samples, err := d.Load("test", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[1].ID != 1 || samples[1].Reference != "jumps over the lazy dog" {
		t.Fatalf("sample 1 = %+v", samples[1])
	}

	limited, err := d.Load("test", 2)
	if err != nil {
		t.Fatalf("Load limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit 2 returned %d samples", len(limited))
	}
}

func TestCommonVoicePrepareAudioCopies(t *testing.T) {
	d := NewCommonVoiceDataset(writeCommonVoiceFixture(t), "en")
	samples, err := d.Load("test", 1)
	if err != nil {
		t.Fatal(err)
	}

	tmp := t.TempDir()
	path, err := d.PrepareAudio(samples[0], tmp)
	if err != nil {
		t.Fatalf("PrepareAudio: %v", err)
	}
	if filepath.Dir(path) != tmp {
		t.Fatalf("prepared audio %q is outside temp dir", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio clip0.mp3" {
		t.Fatalf("prepared audio content %q", data)
	}
}

func TestCommonVoiceScore(t *testing.T) {
	d := NewCommonVoiceDataset(t.TempDir(), "en")
	sample := Sample{ID: 0, Reference: "the cat sat on the mat"}
	result := &providers.Transcription{
		Segments: []segment.Segment{
			{Text: "the cat sat"},
			{Text: "on the mat"},
		},
	}
	hyp, wer, err := d.Score(sample, result)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if hyp != "the cat sat on the mat" {
		t.Fatalf("hypothesis = %q", hyp)
	}
	if wer != 0 {
		t.Fatalf("wer = %v, want 0", wer)
	}
}

// The aggregate is corpus-level: one error in ten total words is 0.1
// even though the per-sample mean would be 0.25.
func TestCommonVoiceAggregateIsCorpusLevel(t *testing.T) {
	d := NewCommonVoiceDataset(t.TempDir(), "en")
	records := []Record{
		{Reference: "one two three four five six seven eight", Hypothesis: "one two three four five six seven eight"},
		{Reference: "alpha beta", Hypothesis: "alpha gamma"},
	}
	got, err := d.Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if math.Abs(got["WER"]-0.1) > 1e-9 {
		t.Fatalf("corpus WER = %v, want 0.1", got["WER"])
	}
}

func writeCallHomeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	split := filepath.Join(dir, "data")
	if err := os.Mkdir(split, 0o755); err != nil {
		t.Fatal(err)
	}
	rttm := "SPEAKER call0 1 0.00 4.00 <NA> <NA> A <NA> <NA>\n" +
		"SPEAKER call0 1 4.00 4.00 <NA> <NA> B <NA> <NA>\n"
	if err := os.WriteFile(filepath.Join(split, "call0.rttm"), []byte(rttm), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(split, "call0.wav"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCallHomeLoadParsesRTTM(t *testing.T) {
	d := NewCallHomeDataset(writeCallHomeFixture(t), "eng")
	samples, err := d.Load("data", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	turns, err := ParseTurns(samples[0].Reference)
	if err != nil {
		t.Fatalf("ParseTurns: %v", err)
	}
	want := []metrics.SpeakerTurn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4, End: 8, Speaker: "B"},
	}
	if len(turns) != len(want) {
		t.Fatalf("got %d turns, want %d", len(turns), len(want))
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Fatalf("turn %d = %+v, want %+v", i, turns[i], want[i])
		}
	}
}

func TestCallHomeScorePerfectDiarization(t *testing.T) {
	d := NewCallHomeDataset(t.TempDir(), "eng")
	sample := Sample{
		ID: 0,
		Reference: FormatTurns([]metrics.SpeakerTurn{
			{Start: 0, End: 5, Speaker: "A"},
			{Start: 5, End: 10, Speaker: "B"},
		}),
	}
	result := &providers.Transcription{
		Segments: []segment.Segment{
			{Start: 0, End: 5, Speaker: "SPEAKER_00"},
			{Start: 5, End: 10, Speaker: "SPEAKER_01"},
		},
	}
	hyp, der, err := d.Score(sample, result)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if der != 0 {
		t.Fatalf("der = %v, want 0 for a perfect label-permuted hypothesis", der)
	}
	back, err := ParseTurns(hyp)
	if err != nil || len(back) != 2 {
		t.Fatalf("hypothesis %q does not round-trip: %v", hyp, err)
	}
}

func TestCallHomeAggregateIsMean(t *testing.T) {
	d := NewCallHomeDataset(t.TempDir(), "eng")
	records := []Record{
		{MetricValue: 0.2},
		{MetricValue: 0.4},
	}
	got, err := d.Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if math.Abs(got["DER"]-0.3) > 1e-9 {
		t.Fatalf("mean DER = %v, want 0.3", got["DER"])
	}
}

func TestTurnsRoundTrip(t *testing.T) {
	in := []metrics.SpeakerTurn{
		{Start: 0, End: 1.5, Speaker: "A"},
		{Start: 2.25, End: 7.875, Speaker: "SPEAKER_01"},
	}
	out, err := ParseTurns(FormatTurns(in))
	if err != nil {
		t.Fatalf("ParseTurns: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d turns, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("turn %d changed: %+v vs %+v", i, out[i], in[i])
		}
	}
}
