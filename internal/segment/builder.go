// Package segment converts word-level diarized recognizer output into
// human-readable speaker-turn segments. The builder is pure: no I/O, no
// shared state between calls.
package segment

import "strings"

// DefaultMaxSegmentLength is the preferred character bound for a segment's
// text. A single sentence longer than the bound is still emitted whole.
const DefaultMaxSegmentLength = 200

// Builder merges an ordered token stream into segments under a length policy.
type Builder struct {
	MaxSegmentLength int
}

// NewBuilder returns a Builder with the default length policy.
func NewBuilder() *Builder {
	return &Builder{MaxSegmentLength: DefaultMaxSegmentLength}
}

// Build scans the token stream once and returns the merged segments.
//
// A segment stays open while the speaker is unchanged. Finished sentences
// accumulate in a committed buffer; when committing the next sentence would
// push the committed text past MaxSegmentLength, the committed buffer is
// flushed on its own and the sentence starts a new buffer. A speaker change
// or end of stream flushes everything still open.
func (b *Builder) Build(tokens []Token) []Segment {
	maxLen := b.MaxSegmentLength
	if maxLen <= 0 {
		maxLen = DefaultMaxSegmentLength
	}

	var segments []Segment

	// Open-segment state.
	open := false
	segStart := 0.0
	curSpeaker := ""

	// Sentences already committed to the open segment.
	committedText := ""
	var committedWords []Word

	// Sentence currently being read.
	sentenceText := ""
	var sentenceWords []Word

	// joinText appends b to a with a single separating space unless the
	// boundary already carries whitespace from a spacing token.
	joinText := func(a, b string) string {
		if a == "" || b == "" {
			return a + b
		}
		if strings.HasSuffix(a, " ") || strings.HasPrefix(b, " ") {
			return a + b
		}
		return a + " " + b
	}

	flush := func(text string, words []Word, start, end float64, speaker string) {
		text = strings.TrimSpace(text)
		if text == "" || len(words) == 0 {
			return
		}
		segments = append(segments, Segment{
			Start:   start,
			End:     end,
			Text:    text,
			Speaker: speaker,
			Words:   words,
		})
	}

	for i, tok := range tokens {
		if tok.Spacing {
			// Spacing belongs to the sentence in progress; leading spacing
			// before any content token is dropped.
			if len(sentenceWords) > 0 {
				sentenceText += tok.Text
			}
			continue
		}

		speakerChanged := open && tok.Speaker != curSpeaker
		if !open || speakerChanged {
			if open {
				words := append(append([]Word{}, committedWords...), sentenceWords...)
				end := segStart
				if len(words) > 0 {
					end = words[len(words)-1].End
				}
				flush(joinText(committedText, sentenceText), words, segStart, end, curSpeaker)
			}
			open = true
			segStart = tok.Start
			curSpeaker = tok.Speaker
			committedText = ""
			committedWords = nil
			sentenceText = ""
			sentenceWords = nil
		}

		word := Word{
			Start:      tok.Start,
			End:        tok.End,
			Text:       tok.Text,
			Speaker:    tok.Speaker,
			Confidence: tok.Confidence,
		}
		if sentenceText != "" && !strings.HasSuffix(sentenceText, " ") {
			sentenceText += " "
		}
		sentenceText += tok.Text
		sentenceWords = append(sentenceWords, word)

		if !endsSentence(tok.Text) && i != len(tokens)-1 {
			continue
		}

		// Sentence boundary: merge into the committed buffer when the
		// joined text fits, otherwise flush the committed buffer and
		// start over with this sentence. The join may add a separating
		// space, so the fit check measures the joined result.
		merged := joinText(committedText, sentenceText)
		if committedText == "" || len(strings.TrimSpace(merged)) <= maxLen {
			committedText = merged
			committedWords = append(committedWords, sentenceWords...)
		} else {
			flush(committedText, committedWords, segStart, committedWords[len(committedWords)-1].End, curSpeaker)
			segStart = sentenceWords[0].Start
			committedText = sentenceText
			committedWords = append([]Word{}, sentenceWords...)
		}
		sentenceText = ""
		sentenceWords = nil

		// A single sentence longer than the bound goes out as its own
		// segment immediately.
		if len(committedText) > maxLen && len(committedWords) > 0 {
			flush(committedText, committedWords, segStart, committedWords[len(committedWords)-1].End, curSpeaker)
			committedText = ""
			committedWords = nil
			if i+1 < len(tokens) {
				segStart = tokens[i+1].Start
			}
		}
	}

	// Tail flush for whatever is still open.
	if open {
		words := append(append([]Word{}, committedWords...), sentenceWords...)
		if len(words) > 0 {
			flush(joinText(committedText, sentenceText), words, segStart, words[len(words)-1].End, curSpeaker)
		}
	}

	return segments
}

// endsSentence reports whether the token text closes a sentence once
// trailing whitespace is removed.
func endsSentence(text string) bool {
	t := strings.TrimRight(text, " \t\r\n")
	return strings.HasSuffix(t, ".") || strings.HasSuffix(t, "?") || strings.HasSuffix(t, "!")
}
