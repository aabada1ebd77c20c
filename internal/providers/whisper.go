package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/media"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

// WhisperProvider transcribes locally through a whisper.cpp binary. It
// has no diarization; every segment is attributed to SPEAKER_00.
type WhisperProvider struct {
	BinPath   string
	ModelPath string
	Runner    media.CommandRunner
	builder   *segment.Builder
}

// NewWhisperProvider validates that the model file exists and returns the
// provider. Missing models fail fast at startup rather than per job.
func NewWhisperProvider(binPath, modelPath string) (*WhisperProvider, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper model not found at %s: %w", modelPath, err)
	}
	return &WhisperProvider{
		BinPath:   binPath,
		ModelPath: modelPath,
		Runner:    media.ExecRunner{},
		builder:   segment.NewBuilder(),
	}, nil
}

func (p *WhisperProvider) Name() string { return "whisper" }

// whisperOutput mirrors the JSON file whisper.cpp writes with -oj.
// Offsets are in milliseconds.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
}

// Transcribe runs the binary and parses its JSON output file. Each
// whisper segment becomes one token so sentence merging still applies.
func (p *WhisperProvider) Transcribe(ctx context.Context, audioPath string, language string) (*Transcription, error) {
	outBase := filepath.Join(filepath.Dir(audioPath), strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)))
	args := []string{
		"-m", p.ModelPath,
		"-f", audioPath,
		"-oj",
		"-of", outBase,
	}
	if language != "" && language != "auto" {
		args = append(args, "-l", language)
	}

	log.Printf("WhisperProvider: running %s on %s", p.BinPath, audioPath)
	startTime := time.Now()
	output, err := p.Runner.Run(ctx, p.BinPath, args...)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(string(output))))
	}
	log.Printf("WhisperProvider: transcription of %s completed in %v", audioPath, time.Since(startTime))

	jsonPath := outBase + ".json"
	defer os.Remove(jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("failed to read whisper output: %w", err))
	}

	var parsed whisperOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &apperrors.ParseError{Provider: p.Name(), Detail: fmt.Sprintf("invalid JSON output: %v", err)}
	}
	if len(parsed.Transcription) == 0 {
		return nil, &apperrors.ParseError{Provider: p.Name(), Detail: "output has no transcription entries"}
	}

	tokens := make([]segment.Token, 0, len(parsed.Transcription)*2)
	for i, seg := range parsed.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if i > 0 {
			tokens = append(tokens, segment.Token{Text: " ", Spacing: true})
		}
		tokens = append(tokens, segment.Token{
			Start:      float64(seg.Offsets.From) / 1000.0,
			End:        float64(seg.Offsets.To) / 1000.0,
			Text:       text,
			Speaker:    "SPEAKER_00",
			Confidence: 1.0,
		})
	}

	detected := parsed.Result.Language
	if detected == "" {
		detected = language
	}
	return &Transcription{
		Segments: p.builder.Build(tokens),
		Language: detected,
	}, nil
}
