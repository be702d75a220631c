package interfaces

import (
	"context"
)

// ImageInput carries raw image bytes and their MIME type into a vision call.
type ImageInput struct {
	Data     []byte
	MimeType string // e.g. "image/png"
}

// VisionService defines the contract for vision-capable model invocations.
// The model itself is an opaque external capability: image plus instructions
// in, free text out. Implementations wrap cloud APIs (Gemini, Claude).
type VisionService interface {
	// AnalyzeImage sends the image with a user prompt and optional system
	// prompt to a vision-capable model and returns the raw text reply.
	AnalyzeImage(ctx context.Context, image ImageInput, prompt, systemPrompt string) (string, error)

	// HealthCheck verifies the service is operational.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the service.
	Close() error
}

// EmbeddingService generates fixed-dimension embedding vectors for text.
// May be unavailable (nil) when the configured vision provider has no
// embedding API; callers must tolerate absence.
type EmbeddingService interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
