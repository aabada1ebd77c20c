package providers

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
)

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(NewMockProvider())

	p, err := reg.Get("mock")
	if err != nil {
		t.Fatalf("Get(mock): %v", err)
	}
	if p.Name() != "mock" {
		t.Fatalf("got provider %q", p.Name())
	}

	_, err = reg.Get("nonexistent")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Get(nonexistent) err = %v, want validation error", err)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry(NewMockProvider(), NewElevenLabsProvider("k"))
	want := []string{"elevenlabs", "mock"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestMockProviderTranscribe(t *testing.T) {
	p := NewMockProvider()
	result, err := p.Transcribe(context.Background(), "/tmp/anything.wav", "auto")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Language != "en" {
		t.Fatalf("language = %q, want en", result.Language)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(result.Segments))
	}
	if result.Segments[0].Speaker == result.Segments[1].Speaker {
		t.Fatal("mock output should contain a speaker change")
	}
	for _, seg := range result.Segments {
		if len(seg.Words) == 0 {
			t.Fatalf("segment %q has no words", seg.Text)
		}
		if seg.Start != seg.Words[0].Start || seg.End != seg.Words[len(seg.Words)-1].End {
			t.Fatalf("segment span not derived from words: %+v", seg)
		}
	}
}
