package inference

import (
	"context"
	"strconv"
)

// Backend is a speech-recognition implementation. Load prepares the model,
// Transcribe must be safe for concurrent use once Load has returned, and
// Close releases resources.
type Backend interface {
	Name() string
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, req BackendRequest) ([]RawSegment, error)
	Close() error
}

// BackendRequest describes one chunk handed to a backend.
type BackendRequest struct {
	Chunk     int
	AudioPath string
	// Duration is the chunk length in seconds.
	Duration float64
	Language string
	BeamSize int
}

// RawSegment is a backend's unnormalized output, in chunk-relative seconds.
type RawSegment struct {
	Text       string
	Start      float64
	End        float64
	Confidence float64
}

// Identity describes the decoding configuration for cache keys and reports.
type Identity struct {
	Backend  string
	Model    string
	Language string
	BeamSize int
}

// String renders the identity as a stable key.
func (id Identity) String() string {
	lang := id.Language
	if lang == "" {
		lang = "auto"
	}
	return id.Backend + "/" + id.Model + "/" + lang + "/beam" + strconv.Itoa(id.BeamSize)
}
