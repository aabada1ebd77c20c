package evaluation

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinh406/video-transcription-app/internal/metrics"
	"github.com/vinh406/video-transcription-app/internal/providers"
)

// CommonVoiceDataset reads a Common Voice style export: one TSV per
// split with `path` and `sentence` columns, audio clips in a clips
// directory next to it. The metric is WER; the aggregate is corpus WER
// over all references and hypotheses together, not a per-sample mean.
type CommonVoiceDataset struct {
	Dir  string
	Lang string
}

// NewCommonVoiceDataset points at a dataset root like
// common_voice/<lang>/ containing <split>.tsv and clips/.
func NewCommonVoiceDataset(dir, language string) *CommonVoiceDataset {
	return &CommonVoiceDataset{Dir: dir, Lang: language}
}

func (d *CommonVoiceDataset) Name() string     { return "common_voice" }
func (d *CommonVoiceDataset) Language() string { return d.Lang }

// Load reads the split TSV and resolves clip paths.
func (d *CommonVoiceDataset) Load(split string, limit int) ([]Sample, error) {
	tsvPath := filepath.Join(d.Dir, split+".tsv")
	f, err := os.Open(tsvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open split file %s: %w", tsvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", tsvPath, err)
	}
	pathCol, sentenceCol := -1, -1
	for i, name := range header {
		switch name {
		case "path":
			pathCol = i
		case "sentence":
			sentenceCol = i
		}
	}
	if pathCol < 0 || sentenceCol < 0 {
		return nil, fmt.Errorf("split file %s lacks path/sentence columns", tsvPath)
	}

	var samples []Sample
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", tsvPath, err)
		}
		samples = append(samples, Sample{
			ID:        len(samples),
			Reference: row[sentenceCol],
			AudioPath: filepath.Join(d.Dir, "clips", row[pathCol]),
		})
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	log.Printf("CommonVoice: loaded %d samples from %s", len(samples), tsvPath)
	return samples, nil
}

// PrepareAudio copies the clip into dir so the run only ever hands
// transient files to providers.
func (d *CommonVoiceDataset) PrepareAudio(sample Sample, dir string) (string, error) {
	src, err := os.Open(sample.AudioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open clip %s: %w", sample.AudioPath, err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, fmt.Sprintf("sample_%d%s", sample.ID, filepath.Ext(sample.AudioPath)))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp clip: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy clip: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

// Score joins the segment texts into the hypothesis and computes the
// per-sample WER.
func (d *CommonVoiceDataset) Score(sample Sample, result *providers.Transcription) (string, float64, error) {
	texts := make([]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		texts = append(texts, seg.Text)
	}
	hypothesis := strings.Join(texts, " ")

	wer, err := metrics.WER(sample.Reference, hypothesis)
	if err != nil {
		return "", 0, err
	}
	return hypothesis, wer, nil
}

// Aggregate computes corpus WER: one alignment over the concatenated
// references and hypotheses, so long samples weigh more than short ones.
func (d *CommonVoiceDataset) Aggregate(records []Record) (map[string]float64, error) {
	refs := make([]string, len(records))
	hyps := make([]string, len(records))
	for i, r := range records {
		refs[i] = r.Reference
		hyps[i] = r.Hypothesis
	}
	wer, err := metrics.CorpusWER(refs, hyps)
	if err != nil {
		return nil, err
	}
	return map[string]float64{"WER": wer}, nil
}
