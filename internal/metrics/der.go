package metrics

import (
	"fmt"
	"sort"
)

// SpeakerTurn is one labeled speech interval of a diarization.
type SpeakerTurn struct {
	Start   float64
	End     float64
	Speaker string
}

// DER calculates the Diarization Error Rate between a reference and a
// hypothesis diarization: (missed speech + false-alarm speech + speaker
// confusion) / total reference speech time, under the optimal one-to-one
// mapping of hypothesis speaker labels onto reference labels.
func DER(reference, hypothesis []SpeakerTurn) (float64, error) {
	totalRef := 0.0
	for _, turn := range reference {
		if turn.End > turn.Start {
			totalRef += turn.End - turn.Start
		}
	}
	if totalRef <= 0 {
		return 0.0, fmt.Errorf("reference diarization contains no speech, cannot normalize DER")
	}

	// Cut both diarizations at every turn boundary so each elementary
	// interval has a fixed set of active speakers on each side.
	boundaries := collectBoundaries(reference, hypothesis)
	mapping := optimalSpeakerMapping(reference, hypothesis, boundaries)

	missed, falseAlarm, confusion := 0.0, 0.0, 0.0
	for i := 0; i+1 < len(boundaries); i++ {
		t0, t1 := boundaries[i], boundaries[i+1]
		d := t1 - t0
		if d <= 0 {
			continue
		}
		refActive := activeSpeakers(reference, t0, t1)
		hypActive := activeSpeakers(hypothesis, t0, t1)

		nRef := len(refActive)
		nHyp := len(hypActive)
		correct := 0
		for refSpk := range refActive {
			if hypSpk, ok := mapping[refSpk]; ok && hypActive[hypSpk] {
				correct++
			}
		}

		if nRef > nHyp {
			missed += d * float64(nRef-nHyp)
		} else {
			falseAlarm += d * float64(nHyp-nRef)
		}
		confusion += d * float64(min(nRef, nHyp)-correct)
	}

	return (missed + falseAlarm + confusion) / totalRef, nil
}

// collectBoundaries returns the sorted, deduplicated start/end times of all
// turns on both sides.
func collectBoundaries(reference, hypothesis []SpeakerTurn) []float64 {
	seen := make(map[float64]bool)
	var points []float64
	for _, turn := range append(append([]SpeakerTurn{}, reference...), hypothesis...) {
		for _, t := range []float64{turn.Start, turn.End} {
			if !seen[t] {
				seen[t] = true
				points = append(points, t)
			}
		}
	}
	sort.Float64s(points)
	return points
}

// activeSpeakers returns the set of speakers talking during [t0, t1).
func activeSpeakers(turns []SpeakerTurn, t0, t1 float64) map[string]bool {
	active := make(map[string]bool)
	for _, turn := range turns {
		if turn.Start <= t0 && turn.End >= t1 {
			active[turn.Speaker] = true
		}
	}
	return active
}

// optimalSpeakerMapping finds the injective reference→hypothesis label
// assignment maximizing co-occurring speech time. Diarizations carry few
// distinct labels, so exhaustive search over assignments is affordable.
func optimalSpeakerMapping(reference, hypothesis []SpeakerTurn, boundaries []float64) map[string]string {
	// Co-occurrence duration per (reference label, hypothesis label) pair.
	overlap := make(map[string]map[string]float64)
	refLabels := speakerLabels(reference)
	hypLabels := speakerLabels(hypothesis)
	for _, r := range refLabels {
		overlap[r] = make(map[string]float64)
	}
	for i := 0; i+1 < len(boundaries); i++ {
		t0, t1 := boundaries[i], boundaries[i+1]
		d := t1 - t0
		if d <= 0 {
			continue
		}
		refActive := activeSpeakers(reference, t0, t1)
		hypActive := activeSpeakers(hypothesis, t0, t1)
		for r := range refActive {
			for h := range hypActive {
				overlap[r][h] += d
			}
		}
	}

	best := make(map[string]string)
	bestScore := -1.0
	used := make(map[string]bool)
	current := make(map[string]string)

	var assign func(idx int, score float64)
	assign = func(idx int, score float64) {
		if idx == len(refLabels) {
			if score > bestScore {
				bestScore = score
				best = make(map[string]string, len(current))
				for k, v := range current {
					best[k] = v
				}
			}
			return
		}
		r := refLabels[idx]
		// Leaving the reference label unmapped is a valid branch.
		assign(idx+1, score)
		for _, h := range hypLabels {
			if used[h] {
				continue
			}
			used[h] = true
			current[r] = h
			assign(idx+1, score+overlap[r][h])
			delete(current, r)
			used[h] = false
		}
	}
	assign(0, 0)
	return best
}

func speakerLabels(turns []SpeakerTurn) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, turn := range turns {
		if !seen[turn.Speaker] {
			seen[turn.Speaker] = true
			labels = append(labels, turn.Speaker)
		}
	}
	sort.Strings(labels)
	return labels
}
