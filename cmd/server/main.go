package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vinh406/video-transcription-app/internal/apigateway"
	"github.com/vinh406/video-transcription-app/internal/auth"
	"github.com/vinh406/video-transcription-app/internal/config"
	"github.com/vinh406/video-transcription-app/internal/datastore"
	"github.com/vinh406/video-transcription-app/internal/jobs"
	"github.com/vinh406/video-transcription-app/internal/media"
	"github.com/vinh406/video-transcription-app/internal/objectstore"
	"github.com/vinh406/video-transcription-app/internal/providers"
	"github.com/vinh406/video-transcription-app/internal/summarize"
	"github.com/vinh406/video-transcription-app/internal/transcriptionmanagement"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	auth.SetCredentials(cfg.AdminUsername, cfg.AdminPassword)
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Println("ADMIN_USERNAME or ADMIN_PASSWORD not set, login disabled")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := datastore.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	store := datastore.New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	minioClient, err := objectstore.NewMinioClient(ctx, cfg.Minio)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO client: %v", err)
	}

	registry := providers.NewRegistry(buildProviders(cfg)...)
	log.Printf("Registered transcription providers: %v", registry.Names())

	youtube := media.NewYouTubeDownloader(cfg.YtDlpBin)
	fetcher := jobs.NewMediaFetcher(minioClient, youtube)
	jobService := jobs.NewService(store, fetcher, minioClient, registry)
	jobService.Start(ctx)

	handlers := &transcriptionmanagement.Handlers{
		Jobs:     jobService,
		Registry: media.NewRegistry(store),
		Uploader: minioClient,
	}
	if cfg.OpenAIKey != "" {
		handlers.Summarizer = summarize.NewSummarizer(cfg.OpenAIKey)
	} else {
		log.Println("OPENAI_API_KEY not set, summarization disabled")
	}

	router := apigateway.SetupRouter(handlers)
	log.Printf("Starting server on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildProviders registers every provider whose configuration is
// present. The mock provider is always available.
func buildProviders(cfg *config.Config) []providers.Provider {
	list := []providers.Provider{providers.NewMockProvider()}

	if cfg.ElevenLabsAPIKey != "" {
		list = append(list, providers.NewElevenLabsProvider(cfg.ElevenLabsAPIKey))
	} else {
		log.Println("ELEVENLABS_API_KEY not set, elevenlabs provider disabled")
	}

	if cfg.GoogleCredentials != "" {
		list = append(list, providers.NewGoogleSpeechProvider(cfg.GoogleCredentials))
	} else {
		log.Println("GOOGLE_APPLICATION_CREDENTIALS not set, google provider disabled")
	}

	if cfg.WhisperModel != "" {
		whisper, err := providers.NewWhisperProvider(cfg.WhisperBin, cfg.WhisperModel)
		if err != nil {
			log.Printf("Warning: whisper provider disabled: %v", err)
		} else {
			list = append(list, whisper)
		}
	} else {
		log.Println("WHISPER_MODEL not set, whisper provider disabled")
	}

	return list
}
