// Package config loads the service configuration from environment
// variables, typically populated from a .env file in development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vinh406/video-transcription-app/internal/objectstore"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        string
	DatabaseURL string

	Minio objectstore.Config

	ElevenLabsAPIKey  string
	GoogleCredentials string
	OpenAIKey         string
	WhisperBin        string
	WhisperModel      string
	YtDlpBin          string

	AdminUsername string
	AdminPassword string
}

// Load reads the configuration from environment variables. Only the
// database and object storage settings are required; provider keys are
// optional and simply leave that provider unregistered.
func Load() (*Config, error) {
	cfg := read()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Minio.Endpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}
	return cfg, nil
}

// LoadProviders reads only what is needed to talk to the transcription
// services, for tools that run without the database or object storage.
func LoadProviders() *Config {
	return read()
}

func read() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Minio: objectstore.Config{
			Endpoint:        os.Getenv("MINIO_ENDPOINT"),
			AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("MINIO_SECRET_ACCESS_KEY"),
			BucketName:      getEnv("MINIO_BUCKET_NAME", "media-assets"),
			UseSSL:          getBoolEnv("MINIO_USE_SSL", false),
		},
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		WhisperBin:        getEnv("WHISPER_BIN", "whisper-cli"),
		WhisperModel:      os.Getenv("WHISPER_MODEL"),
		YtDlpBin:          getEnv("YTDLP_BIN", "yt-dlp"),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
