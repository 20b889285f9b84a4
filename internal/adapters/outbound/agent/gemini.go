package agent

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Gemini uses Google's Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGemini creates a Gemini agent. cfg.APIKey is required.
func NewGemini(ctx context.Context, cfg domain.AgentConfig, httpClient *http.Client, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = domain.DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Complete generates a single response for req.
func (g *Gemini) Complete(ctx context.Context, req domain.AgentRequest) (string, error) {
	temperature := float32(0)
	config := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var finish genai.FinishReason
	if len(result.Candidates) > 0 {
		finish = result.Candidates[0].FinishReason
	}
	text := result.Text()
	g.logger.Debug("Gemini generation finished",
		zap.String("model", g.model),
		zap.Int("chars", len(text)),
		zap.String("finish_reason", string(finish)))

	if finish == genai.FinishReasonMaxTokens {
		return "", fmt.Errorf("gemini generate: %w", domain.ErrTruncatedCompletion)
	}
	if text == "" {
		return "", ErrNoChoices
	}
	return text, nil
}
