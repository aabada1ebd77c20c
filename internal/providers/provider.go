// Package providers contains the transcription service adapters. Each
// adapter takes a local audio file and returns diarized segments in the
// common segment model; callers never see vendor wire formats.
package providers

import (
	"context"
	"sort"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

// Transcription is the normalized output of any provider.
type Transcription struct {
	Segments []segment.Segment `json:"segments"`
	Language string            `json:"language"`
}

// Provider transcribes a local audio file. Implementations must be safe
// for concurrent use; the job worker calls them from its own goroutine.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, language string) (*Transcription, error)
}

// Registry holds the configured providers by name. It is built once at
// startup and read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry returns a registry over the given providers. Later entries
// with the same name replace earlier ones.
func NewRegistry(list ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(list))}
	for _, p := range list {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider registered under name, or a validation error
// naming the unknown provider.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, apperrors.Validationf("unknown provider %q", name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
