// Package gemini provides an LLM service adapter for Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// LLMConfig holds configuration for the Gemini LLM service.
type LLMConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model name (default: gemini-2.5-flash).
	Model string
}

// request is a single provider call.
type request struct {
	System      string
	History     []*genai.Content
	Parts       []genai.Part
	Temperature float64
	MaxTokens   int
	JSON        bool
}

type sendFunc func(ctx context.Context, req request) (*genai.GenerateContentResponse, error)

// LLMService provides LLM operations using Gemini.
type LLMService struct {
	client *genai.Client
	model  string
	send   sendFunc
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	s := &LLMService{client: client, model: cfg.Model}
	s.send = s.sendChat
	return s, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.call(ctx, request{
		Parts:       []genai.Part{genai.Text(prompt)},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
}

// Chat conducts a multi-turn conversation.
// System messages become the system instruction. The final message is sent
// and everything before it is replayed as history.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := request{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		JSON:        opts.JSON,
	}

	var system []string
	var turns []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("gemini: %w: no user message", domain.ErrInvalidInput)
	}

	req.System = strings.Join(system, "\n\n")
	req.History = turns[:len(turns)-1]
	req.Parts = turns[len(turns)-1].Parts
	return s.call(ctx, req)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key with a minimal generation request.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.call(ctx, request{Parts: []genai.Part{genai.Text("ping")}, MaxTokens: 1})
	return err
}

// Close releases resources.
func (s *LLMService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *LLMService) call(ctx context.Context, req request) (string, error) {
	resp, err := s.send(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if isRateLimit(err) {
			return "", fmt.Errorf("gemini: %w: %v", domain.ErrRateLimited, err)
		}
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return responseText(resp)
}

func (s *LLMService) sendChat(ctx context.Context, req request) (*genai.GenerateContentResponse, error) {
	model := s.client.GenerativeModel(s.model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	cs := model.StartChat()
	cs.History = req.History
	return cs.SendMessage(ctx, req.Parts...)
}

// responseText joins the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini: empty response")
	}
	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
	}
	if len(parts) == 0 {
		return "", errors.New("gemini: no text in response")
	}
	return strings.Join(parts, ""), nil
}

func isRateLimit(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource exhausted")
}
