// Package summarize turns transcript segments into a timestamped
// summary through a chat-completion model.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

const systemPrompt = `You are an AI assistant specialized in summarizing transcribed content.
Provide a summary that captures the main points of the transcript in JSON format.
The summary should be in the same language as the transcript.
Return a list of summary points, where each point includes:
1. "text" - The summary point text without timestamp
2. "timestamp" - The timestamp in seconds where this information appears

Format your response as valid JSON with the following structure:
{
  "summary_points": [
    {"text": "First main point", "timestamp": 45.2},
    {"text": "Second main point", "timestamp": 120.5}
  ],
  "overview": "Overall summary of the content."
}

Ensure timestamps are provided as numbers, not strings.`

// Point is one summary bullet anchored to a transcript timestamp.
type Point struct {
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Summary is the model output returned to callers.
type Summary struct {
	Overview string  `json:"overview"`
	Points   []Point `json:"summary_points"`
}

// ChatCompleter is the slice of the OpenAI client the summarizer uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer generates summaries with a chat model in JSON mode.
type Summarizer struct {
	Client ChatCompleter
	Model  string
}

// NewSummarizer builds a summarizer over the OpenAI API.
func NewSummarizer(apiKey string) *Summarizer {
	return &Summarizer{
		Client: openai.NewClient(apiKey),
		Model:  openai.GPT4oMini,
	}
}

// Summarize sends the timestamped transcript to the model and parses the
// JSON summary. Empty segment lists are rejected up front.
func (s *Summarizer) Summarize(ctx context.Context, segments []segment.Segment) (*Summary, error) {
	if len(segments) == 0 {
		return nil, apperrors.Validationf("no segments to summarize")
	}

	transcript := FormatTranscript(segments)
	log.Printf("Summarize: sending transcript of %d characters to %s", len(transcript), s.Model)

	req := openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Please provide a summary of the following transcript:\n\n" + transcript,
			},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := s.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, apperrors.NewProviderError("summarizer", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &apperrors.ParseError{Provider: "summarizer", Detail: "model returned no choices"}
	}

	content := resp.Choices[0].Message.Content
	var summary Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		// Some models wrap JSON in a markdown fence even in JSON mode.
		stripped := stripMarkdownFence(content)
		if err := json.Unmarshal([]byte(stripped), &summary); err != nil {
			return nil, &apperrors.ParseError{Provider: "summarizer", Detail: fmt.Sprintf("invalid JSON: %v", err)}
		}
	}
	log.Printf("Summarize: got %d summary points", len(summary.Points))
	return &summary, nil
}

// FormatTranscript renders segments one per line as
// "[12.50s] SPEAKER_00: text".
func FormatTranscript(segments []segment.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "[%.2fs] %s: %s\n", seg.Start, seg.Speaker, seg.Text)
	}
	return b.String()
}

func stripMarkdownFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
