package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1/speech-to-text"

// elevenLabsLangMap converts ISO 639-1 codes to the ISO 639-2 codes the
// scribe model expects.
var elevenLabsLangMap = map[string]string{
	"en": "eng",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"it": "ita",
	"vi": "vie",
}

// ElevenLabsProvider transcribes through the ElevenLabs scribe_v1 model
// with speaker diarization enabled.
type ElevenLabsProvider struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	builder    *segment.Builder
}

// NewElevenLabsProvider creates a provider backed by the public API.
func NewElevenLabsProvider(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		APIKey:  apiKey,
		BaseURL: elevenLabsBaseURL,
		// Transcription of long files can take a while.
		HTTPClient: &http.Client{Timeout: time.Minute * 5},
		builder:    segment.NewBuilder(),
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

// elevenLabsResponse is the subset of the speech-to-text response we
// consume. Words of type "spacing" carry inter-word text only.
type elevenLabsResponse struct {
	LanguageCode string `json:"language_code"`
	Text         string `json:"text"`
	Words        []struct {
		Text       string  `json:"text"`
		Type       string  `json:"type"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		SpeakerID  string  `json:"speaker_id"`
		Confidence float64 `json:"confidence"`
	} `json:"words"`
}

// Transcribe uploads the audio file and converts the word stream into
// segments.
func (p *ElevenLabsProvider) Transcribe(ctx context.Context, audioPath string, language string) (*Transcription, error) {
	if p.APIKey == "" {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("API key is not configured"))
	}

	lang := mapElevenLabsLanguage(language)
	log.Printf("ElevenLabsProvider: transcribing '%s' with language '%s'", audioPath, orAuto(lang))

	req, err := p.buildRequest(ctx, audioPath, lang)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), err)
	}

	startTime := time.Now()
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()
	log.Printf("ElevenLabsProvider: API call for %s completed in %v", audioPath, time.Since(startTime))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("failed to read response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("API request failed with status %s: %s", resp.Status, string(body)))
	}

	var parsed elevenLabsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &apperrors.ParseError{Provider: p.Name(), Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if parsed.Words == nil {
		return nil, &apperrors.ParseError{Provider: p.Name(), Detail: "response has no words array"}
	}

	tokens := make([]segment.Token, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		if w.Type == "spacing" {
			tokens = append(tokens, segment.Token{Text: w.Text, Spacing: true})
			continue
		}
		speaker := w.SpeakerID
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		tokens = append(tokens, segment.Token{
			Start:      w.Start,
			End:        w.End,
			Text:       w.Text,
			Speaker:    speaker,
			Confidence: w.Confidence,
		})
	}

	detected := parsed.LanguageCode
	if detected == "" {
		detected = "en"
	}
	return &Transcription{
		Segments: p.builder.Build(tokens),
		Language: detected,
	}, nil
}

func (p *ElevenLabsProvider) buildRequest(ctx context.Context, audioPath, lang string) (*http.Request, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := mw.WriteField("model_id", "scribe_v1"); err != nil {
		return nil, err
	}
	if err := mw.WriteField("diarize", "true"); err != nil {
		return nil, err
	}
	if err := mw.WriteField("tag_audio_events", "true"); err != nil {
		return nil, err
	}
	if lang != "" {
		if err := mw.WriteField("language_code", lang); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", p.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// mapElevenLabsLanguage returns the 639-2 code for the request, or ""
// for auto-detection.
func mapElevenLabsLanguage(language string) string {
	if language == "" || language == "auto" {
		return ""
	}
	lower := strings.ToLower(language)
	if mapped, ok := elevenLabsLangMap[lower]; ok {
		return mapped
	}
	return language
}

func orAuto(lang string) string {
	if lang == "" {
		return "auto-detect"
	}
	return lang
}
