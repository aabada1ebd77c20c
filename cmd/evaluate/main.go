package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vinh406/video-transcription-app/internal/config"
	"github.com/vinh406/video-transcription-app/internal/evaluation"
	"github.com/vinh406/video-transcription-app/internal/providers"
)

func main() {
	service := flag.String("service", "elevenlabs", "transcription service to evaluate (mock, elevenlabs, google, whisper)")
	datasetName := flag.String("dataset", "common_voice", "dataset to evaluate on (common_voice, callhome)")
	datasetDir := flag.String("dataset-dir", "", "root directory of the dataset files (required)")
	language := flag.String("language", "en", "language code")
	split := flag.String("split", "test", "dataset split")
	limit := flag.Int("limit", 0, "maximum samples to process (0 = all)")
	resultsDir := flag.String("results-dir", "results", "directory for results CSV files")
	reportOnly := flag.Bool("report", false, "generate a report from existing results without running new samples")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	if *datasetDir == "" {
		log.Fatal("-dataset-dir is required")
	}

	dataset, err := buildDataset(*datasetName, *datasetDir, *language)
	if err != nil {
		log.Fatalf("Failed to set up dataset: %v", err)
	}

	provider, err := buildProvider(*service)
	if err != nil {
		log.Fatalf("Failed to set up transcription service: %v", err)
	}

	harness := evaluation.NewHarness(dataset, provider, *resultsDir)

	if *reportOnly {
		report, err := harness.GenerateReport()
		if err != nil {
			log.Fatalf("Failed to generate report: %v", err)
		}
		report.Print()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Testing %s on %s dataset (%s)\n",
		strings.ToUpper(*service), strings.ToUpper(*datasetName), *language)

	if _, err := harness.Evaluate(ctx, *split, *limit); err != nil {
		log.Fatalf("Evaluation stopped: %v", err)
	}

	report, err := harness.GenerateReport()
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	report.Print()
}

func buildDataset(name, dir, language string) (evaluation.Dataset, error) {
	switch name {
	case "common_voice":
		return evaluation.NewCommonVoiceDataset(dir, language), nil
	case "callhome":
		return evaluation.NewCallHomeDataset(dir, language), nil
	default:
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
}

func buildProvider(name string) (providers.Provider, error) {
	cfg := config.LoadProviders()
	switch name {
	case "mock":
		return providers.NewMockProvider(), nil
	case "elevenlabs":
		if cfg.ElevenLabsAPIKey == "" {
			return nil, fmt.Errorf("ELEVENLABS_API_KEY is not set")
		}
		return providers.NewElevenLabsProvider(cfg.ElevenLabsAPIKey), nil
	case "google":
		if cfg.GoogleCredentials == "" {
			return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is not set")
		}
		return providers.NewGoogleSpeechProvider(cfg.GoogleCredentials), nil
	case "whisper":
		if cfg.WhisperModel == "" {
			return nil, fmt.Errorf("WHISPER_MODEL is not set")
		}
		return providers.NewWhisperProvider(cfg.WhisperBin, cfg.WhisperModel)
	default:
		return nil, fmt.Errorf("unknown transcription service %q", name)
	}
}
