package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
)

// videoIDPattern matches the 11-character YouTube video identifier.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID pulls the video identifier out of a YouTube URL. It
// accepts watch, share, shorts, and embed forms and returns a validation
// error for anything else.
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", apperrors.Validationf("unparsable source URL %q", rawURL)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	default:
		return "", apperrors.Validationf("URL %q is not a YouTube URL", rawURL)
	}

	id = strings.TrimSuffix(id, "/")
	if !videoIDPattern.MatchString(id) {
		return "", apperrors.Validationf("URL %q does not contain a video id", rawURL)
	}
	return id, nil
}

// CommandRunner abstracts external command execution so downloads can be
// faked in tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command and returns its combined output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// YouTubeDownloader fetches the audio track of a video through yt-dlp.
type YouTubeDownloader struct {
	Runner  CommandRunner
	BinPath string
}

// NewYouTubeDownloader returns a downloader using the given yt-dlp binary
// (or "yt-dlp" from PATH when empty).
func NewYouTubeDownloader(binPath string) *YouTubeDownloader {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YouTubeDownloader{Runner: ExecRunner{}, BinPath: binPath}
}

// DownloadAudio fetches the audio-only stream of the video into dir and
// returns the file path. The file is transient: the caller must remove it
// on every exit path.
func (d *YouTubeDownloader) DownloadAudio(ctx context.Context, videoID, dir string) (string, error) {
	outPath := filepath.Join(dir, videoID+".m4a")
	args := []string{
		"-f", "bestaudio[ext=m4a]/bestaudio",
		"--no-playlist",
		"-o", outPath,
		"https://www.youtube.com/watch?v=" + videoID,
	}

	output, err := d.Runner.Run(ctx, d.BinPath, args...)
	if err != nil {
		return "", fmt.Errorf("failed to download audio for video %s: %w (output: %s)", videoID, err, strings.TrimSpace(string(output)))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("audio download for video %s produced no file: %w", videoID, err)
	}
	return outPath, nil
}
