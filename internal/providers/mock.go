package providers

import (
	"context"
	"log"

	"github.com/vinh406/video-transcription-app/internal/segment"
)

// MockProvider returns a fixed transcript without calling any vendor.
// Useful for local development and as a smoke-test target.
type MockProvider struct {
	builder *segment.Builder
}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{builder: segment.NewBuilder()}
}

func (p *MockProvider) Name() string { return "mock" }

// Transcribe ignores the audio content and emits a canned two-speaker
// exchange through the regular segment pipeline.
func (p *MockProvider) Transcribe(ctx context.Context, audioPath string, language string) (*Transcription, error) {
	log.Printf("MockProvider: Transcribe called for audio file '%s', language '%s'", audioPath, language)

	tokens := []segment.Token{
		{Start: 0.0, End: 0.4, Text: "Hello", Speaker: "SPEAKER_00", Confidence: 0.99},
		{Text: " ", Spacing: true},
		{Start: 0.5, End: 0.9, Text: "there.", Speaker: "SPEAKER_00", Confidence: 0.98},
		{Text: " ", Spacing: true},
		{Start: 1.2, End: 1.5, Text: "Hi,", Speaker: "SPEAKER_01", Confidence: 0.97},
		{Text: " ", Spacing: true},
		{Start: 1.6, End: 2.1, Text: "how", Speaker: "SPEAKER_01", Confidence: 0.96},
		{Text: " ", Spacing: true},
		{Start: 2.2, End: 2.5, Text: "are", Speaker: "SPEAKER_01", Confidence: 0.95},
		{Text: " ", Spacing: true},
		{Start: 2.6, End: 3.0, Text: "you?", Speaker: "SPEAKER_01", Confidence: 0.95},
	}

	lang := language
	if lang == "" || lang == "auto" {
		lang = "en"
	}
	return &Transcription{
		Segments: p.builder.Build(tokens),
		Language: lang,
	}, nil
}
