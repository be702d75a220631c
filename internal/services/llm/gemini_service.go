package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements vision analysis and embedding generation
// using the Google Gemini API. A single service instance serves both
// roles: diagram analysis via multimodal GenerateContent and semantic
// search vectors via EmbedContent.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGeminiService creates a new Gemini service instance.
//
// The service initialization includes:
//  1. Validating the API key is present
//  2. Setting default model names if not specified
//  3. Parsing timeout and rate limit durations from configuration
//  4. Initializing the genai client
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set via GEMINI_API_KEY, NECOMPLY_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	// Set default model names if not specified
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.EmbedModel == "" {
		config.EmbedModel = "gemini-embedding-001"
	}
	if config.EmbedDimension <= 0 {
		config.EmbedDimension = 768
	}

	// Parse timeout duration
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	// Parse rate limit interval
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	// Initialize genai client
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		timeout: timeout,
	}

	logger.Info().
		Str("model", config.Model).
		Str("embed_model", config.EmbedModel).
		Int("embed_dimension", config.EmbedDimension).
		Dur("timeout", timeout).
		Dur("rate_limit", interval).
		Msg("Gemini service initialized successfully")

	return service, nil
}

// AnalyzeImage sends an image together with a text prompt to the vision
// model and returns the generated text response.
func (s *GeminiService) AnalyzeImage(ctx context.Context, image interfaces.ImageInput, prompt, systemPrompt string) (string, error) {
	if len(image.Data) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	// Respect the minimum interval between API calls
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Str("mime_type", image.MimeType).
		Int("image_bytes", len(image.Data)).
		Int("prompt_length", len(prompt)).
		Msg("Starting vision analysis")

	mimeType := image.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromBytes(image.Data, mimeType),
				genai.NewPartFromText(prompt),
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if s.config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.config.MaxTokens)
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("image_bytes", len(image.Data)).
			Msg("Vision analysis failed")
		return "", fmt.Errorf("vision analysis failed: %w", err)
	}

	// Extract text from response, trying candidates until one yields text
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from vision model")
	}

	duration := time.Since(startTime)
	s.logger.Info().
		Int("response_length", response.Len()).
		Dur("duration", duration).
		Msg("Vision analysis completed successfully")

	return response.String(), nil
}

// Embed generates an embedding vector for the given text using the
// configured embedding model and output dimensionality.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("text_length", len(text)).
		Msg("Starting embedding generation")

	outputDim := int32(s.config.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Embedding generation failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	// Validate embedding dimension
	if len(embedding) != s.config.EmbedDimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.EmbedDimension, len(embedding))
	}

	duration := time.Since(startTime)
	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", duration).
		Msg("Embedding generation completed")

	return embedding, nil
}

// HealthCheck verifies the Gemini service is operational. It exercises
// the embedding model with a lightweight probe since that is the
// cheapest call that proves both auth and connectivity.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	s.logger.Debug().Msg("Running Gemini service health check")

	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	embedding, err := s.Embed(healthCheckCtx, "health check probe")
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	s.logger.Info().
		Str("model", s.config.Model).
		Str("embed_model", s.config.EmbedModel).
		Msg("Gemini service health check passed")

	return nil
}

// Close releases resources. The genai.Client doesn't require explicit
// cleanup beyond clearing the reference.
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini service")
	s.client = nil
	return nil
}
