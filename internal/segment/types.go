package segment

// Token is one element of the raw recognizer stream, in emission order.
// Spacing tokens carry inter-word whitespace or punctuation filler and never
// become Words; content tokens carry actual speech.
type Token struct {
	Start      float64
	End        float64
	Text       string
	Speaker    string
	Confidence float64
	Spacing    bool
}

// Word is a single recognized content token with timing and speaker
// attribution. Immutable once produced.
type Word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"word"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"score"`
}

// Segment is a contiguous, speaker-homogeneous span of transcribed speech.
// Start and End are derived from the first and last word; Text is the
// whitespace-joined reconstruction of the word texts in order.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker"`
	Words   []Word  `json:"words"`
}
