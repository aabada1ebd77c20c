package providers

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

// GoogleSpeechProvider transcribes through Google Cloud Speech-to-Text
// with speaker diarization. Word timings come back as protobuf durations.
type GoogleSpeechProvider struct {
	CredentialsPath  string
	LanguageFallback string
	builder          *segment.Builder
}

// NewGoogleSpeechProvider creates the provider. An empty credentials
// path falls back to GOOGLE_APPLICATION_CREDENTIALS.
func NewGoogleSpeechProvider(credentialsPath string) *GoogleSpeechProvider {
	return &GoogleSpeechProvider{
		CredentialsPath:  credentialsPath,
		LanguageFallback: "en-US",
		builder:          segment.NewBuilder(),
	}
}

func (p *GoogleSpeechProvider) Name() string { return "google" }

// Transcribe sends the audio content inline and converts the diarized
// word list into segments. SpeakerTag 1 becomes SPEAKER_01 and so on.
func (p *GoogleSpeechProvider) Transcribe(ctx context.Context, audioPath string, language string) (*Transcription, error) {
	var opts []option.ClientOption
	if p.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(p.CredentialsPath))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("failed to create speech client: %w", err))
	}
	defer client.Close()

	content, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("failed to read audio file: %w", err))
	}

	lang := language
	if lang == "" || lang == "auto" {
		lang = p.LanguageFallback
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
			LanguageCode:               lang,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			EnableWordConfidence:       true,
			DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
				EnableSpeakerDiarization: true,
			},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	}

	log.Printf("GoogleSpeechProvider: sending recognition request for %s", audioPath)
	startTime := time.Now()
	resp, err := client.Recognize(ctx, req)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), fmt.Errorf("recognition failed: %w", err))
	}
	log.Printf("GoogleSpeechProvider: API call for %s completed in %v", audioPath, time.Since(startTime))

	if len(resp.Results) == 0 {
		return nil, &apperrors.ParseError{Provider: p.Name(), Detail: "response has no results"}
	}

	// With diarization enabled the last result carries the full word list
	// with speaker tags; earlier results duplicate it incrementally.
	words := resp.Results[len(resp.Results)-1].GetAlternatives()
	if len(words) == 0 || len(words[0].GetWords()) == 0 {
		return nil, &apperrors.ParseError{Provider: p.Name(), Detail: "response has no word timings"}
	}

	tokens := make([]segment.Token, 0, len(words[0].GetWords())*2)
	for i, w := range words[0].GetWords() {
		if i > 0 {
			tokens = append(tokens, segment.Token{Text: " ", Spacing: true})
		}
		tokens = append(tokens, segment.Token{
			Start:      w.GetStartTime().AsDuration().Seconds(),
			End:        w.GetEndTime().AsDuration().Seconds(),
			Text:       w.GetWord(),
			Speaker:    fmt.Sprintf("SPEAKER_%02d", w.GetSpeakerTag()),
			Confidence: float64(w.GetConfidence()),
		})
	}

	return &Transcription{
		Segments: p.builder.Build(tokens),
		Language: lang,
	}, nil
}
