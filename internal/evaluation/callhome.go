package evaluation

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vinh406/video-transcription-app/internal/metrics"
	"github.com/vinh406/video-transcription-app/internal/providers"
)

// CallHomeDataset reads conversations laid out as <split>/<id>.wav plus
// <split>/<id>.rttm with the reference speaker turns. The metric is DER;
// the aggregate is the mean per-sample DER.
type CallHomeDataset struct {
	Dir  string
	Lang string
}

// NewCallHomeDataset points at a dataset root like callhome/<lang>/
// containing one directory per split.
func NewCallHomeDataset(dir, language string) *CallHomeDataset {
	return &CallHomeDataset{Dir: dir, Lang: language}
}

func (d *CallHomeDataset) Name() string     { return "callhome" }
func (d *CallHomeDataset) Language() string { return d.Lang }

// Load pairs each RTTM file in the split directory with its audio file.
// References are serialized turn lists so they survive the CSV round
// trip.
func (d *CallHomeDataset) Load(split string, limit int) ([]Sample, error) {
	splitDir := filepath.Join(d.Dir, split)
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read split directory %s: %w", splitDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rttm") {
			names = append(names, strings.TrimSuffix(e.Name(), ".rttm"))
		}
	}
	sort.Strings(names)

	var samples []Sample
	for _, name := range names {
		turns, err := parseRTTM(filepath.Join(splitDir, name+".rttm"))
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{
			ID:        len(samples),
			Reference: FormatTurns(turns),
			AudioPath: filepath.Join(splitDir, name+".wav"),
		})
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	log.Printf("CallHome: loaded %d samples from %s", len(samples), splitDir)
	return samples, nil
}

// PrepareAudio hands the split audio straight to the provider; CallHome
// conversations are large, so no transient copy is made. The harness
// only removes files inside its temp dir.
func (d *CallHomeDataset) PrepareAudio(sample Sample, dir string) (string, error) {
	if _, err := os.Stat(sample.AudioPath); err != nil {
		return "", fmt.Errorf("audio for sample %d missing: %w", sample.ID, err)
	}
	return sample.AudioPath, nil
}

// Score turns the diarized segments into hypothesis speaker turns and
// computes the per-sample DER against the reference turns.
func (d *CallHomeDataset) Score(sample Sample, result *providers.Transcription) (string, float64, error) {
	reference, err := ParseTurns(sample.Reference)
	if err != nil {
		return "", 0, fmt.Errorf("sample %d has bad reference turns: %w", sample.ID, err)
	}

	hypothesis := make([]metrics.SpeakerTurn, 0, len(result.Segments))
	for _, seg := range result.Segments {
		hypothesis = append(hypothesis, metrics.SpeakerTurn{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: seg.Speaker,
		})
	}

	der, err := metrics.DER(reference, hypothesis)
	if err != nil {
		return "", 0, err
	}
	return FormatTurns(hypothesis), der, nil
}

// Aggregate averages the per-sample DER values.
func (d *CallHomeDataset) Aggregate(records []Record) (map[string]float64, error) {
	if len(records) == 0 {
		return map[string]float64{"DER": 0}, nil
	}
	total := 0.0
	for _, r := range records {
		total += r.MetricValue
	}
	return map[string]float64{"DER": total / float64(len(records))}, nil
}

// FormatTurns serializes speaker turns as "start-end:speaker" entries
// joined by semicolons.
func FormatTurns(turns []metrics.SpeakerTurn) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = fmt.Sprintf("%.3f-%.3f:%s", t.Start, t.End, t.Speaker)
	}
	return strings.Join(parts, ";")
}

// ParseTurns is the inverse of FormatTurns.
func ParseTurns(s string) ([]metrics.SpeakerTurn, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	turns := make([]metrics.SpeakerTurn, 0, len(parts))
	for _, part := range parts {
		span, speaker, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("bad turn %q", part)
		}
		startStr, endStr, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("bad turn span %q", span)
		}
		start, err := strconv.ParseFloat(startStr, 64)
		if err != nil {
			return nil, fmt.Errorf("bad turn start %q: %w", startStr, err)
		}
		end, err := strconv.ParseFloat(endStr, 64)
		if err != nil {
			return nil, fmt.Errorf("bad turn end %q: %w", endStr, err)
		}
		turns = append(turns, metrics.SpeakerTurn{Start: start, End: end, Speaker: speaker})
	}
	return turns, nil
}

// parseRTTM reads SPEAKER lines of an RTTM file. Fields are
// space-separated; the ones that matter are onset (4), duration (5) and
// speaker name (8).
func parseRTTM(path string) ([]metrics.SpeakerTurn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rttm file %s: %w", path, err)
	}
	defer f.Close()

	var turns []metrics.SpeakerTurn
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 || fields[0] != "SPEAKER" {
			continue
		}
		onset, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad onset %q: %w", path, lineNo, fields[3], err)
		}
		duration, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad duration %q: %w", path, lineNo, fields[4], err)
		}
		turns = append(turns, metrics.SpeakerTurn{
			Start:   onset,
			End:     onset + duration,
			Speaker: fields[7],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rttm file %s: %w", path, err)
	}
	return turns, nil
}
