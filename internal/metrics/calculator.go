// Package metrics provides the scoring functions used by the evaluation
// harness: word, character, and diarization error rates. All functions are
// pure.
package metrics

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NormalizeText lowercases the text, strips punctuation, and collapses all
// whitespace runs to single spaces. Both reference and hypothesis pass
// through it before scoring so that casing and punctuation differences do
// not count as errors.
func NormalizeText(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Everything else is punctuation and is dropped.
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizeForCER additionally isolates ideographic characters with spaces
// so character-based languages are scored at character granularity.
func normalizeForCER(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return NormalizeText(b.String())
}

// WER calculates the Word Error Rate between a reference and a hypothesis:
// (substitutions + insertions + deletions) / reference word count.
func WER(reference, hypothesis string) (float64, error) {
	return tokenErrorRate(NormalizeText(reference), NormalizeText(hypothesis))
}

// CER calculates the Character Error Rate. The texts are normalized with
// ideographic characters split out as individual tokens, then scored the
// same way as WER.
func CER(reference, hypothesis string) (float64, error) {
	return tokenErrorRate(normalizeForCER(reference), normalizeForCER(hypothesis))
}

// CorpusWER scores all samples at once by concatenating references and
// hypotheses and computing a single WER. This is a corpus-level
// micro-average, not a mean of per-sample rates: long samples weigh more.
func CorpusWER(references, hypotheses []string) (float64, error) {
	return WER(strings.Join(references, "\n"), strings.Join(hypotheses, "\n"))
}

// tokenErrorRate computes edit-distance error rate over whitespace tokens.
func tokenErrorRate(reference, hypothesis string) (float64, error) {
	refTokens := strings.Fields(reference)
	hypTokens := strings.Fields(hypothesis)

	if len(refTokens) == 0 {
		if len(hypTokens) == 0 {
			return 0.0, nil
		}
		return 1.0, fmt.Errorf("reference is empty, cannot normalize error rate (hypothesis: %d tokens, treated as 100%% error)", len(hypTokens))
	}

	options := levenshtein.Options{
		InsCost: 1,
		DelCost: 1,
		SubCost: 1,
		Matches: func(sourceItem, targetItem interface{}) bool {
			return sourceItem.(string) == targetItem.(string)
		},
	}

	refItems := make([]interface{}, len(refTokens))
	for i, v := range refTokens {
		refItems[i] = v
	}
	hypItems := make([]interface{}, len(hypTokens))
	for i, v := range hypTokens {
		hypItems[i] = v
	}

	distance := levenshtein.DistanceForMatrix(refItems, hypItems, options)
	return float64(distance) / float64(len(refTokens)), nil
}
