// Package ai provides factory functions for creating OCR and LLM service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/readwell/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/readwell/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/readwell/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/readwell/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/readwell/internal/adapters/driven/llm/throttle"
	"github.com/custodia-labs/readwell/internal/adapters/driven/ocr/jsonfile"
	"github.com/custodia-labs/readwell/internal/adapters/driven/ocr/mistral"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	OCRService driven.OCRService
	LLMService driven.LLMService
	Warnings   []string // Non-fatal issues; the affected service is left nil.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.OCRService != nil {
		r.OCRService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates the OCR and LLM services without contacting them.
// Unconfigured or broken providers are reported as warnings so that read-only
// commands keep working. Processing refuses to run with a nil service.
func Init(ctx context.Context, settings *domain.AppSettings) *InitResult {
	result := &InitResult{}

	ocr, err := CreateOCRService(&settings.OCR)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("OCR disabled: %v", err))
	case ocr == nil:
		result.Warnings = append(result.Warnings, "OCR disabled: provider not configured")
	default:
		result.OCRService = ocr
	}

	llm, err := CreateLLMService(ctx, &settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM disabled: %v", err))
	case llm == nil:
		result.Warnings = append(result.Warnings, "LLM disabled: provider not configured")
	default:
		result.LLMService = llm
	}

	return result
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'readwell settings set llm.provider <name>' to fix",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check llm.base_url and llm.api_key",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(pingCtx)
}

// CreateLLMService creates the appropriate LLM service based on settings,
// throttled to settings.RequestsPerMinute when set.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaLLM(settings)
	case domain.AIProviderOpenAI:
		svc, err = createOpenAILLM(settings, "", "")
	case domain.AIProviderGroq:
		svc, err = createOpenAILLM(settings, openaillm.GroqBaseURL, "groq")
	case domain.AIProviderAnthropic:
		svc, err = createAnthropicLLM(settings)
	case domain.AIProviderGemini:
		svc, err = createGeminiLLM(ctx, settings)
	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return throttle.Wrap(svc, settings.RequestsPerMinute), nil
}

// CreateOCRService creates the OCR service named by settings.
// Returns nil if the provider is not configured.
func CreateOCRService(settings *domain.OCRSettings) (driven.OCRService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.OCRProviderMistral:
		return mistral.New(mistral.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.OCRProviderJSONFile:
		return jsonfile.New(settings.BaseURL), nil
	default:
		return nil, fmt.Errorf("%w: OCR provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI-compatible LLM service.
// defaultBaseURL applies when settings leave the base URL empty.
func createOpenAILLM(settings *domain.LLMSettings, defaultBaseURL, name string) (driven.LLMService, error) {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: baseURL,
		Model:   settings.Model,
		Name:    name,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createGeminiLLM creates a Gemini LLM service.
func createGeminiLLM(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	return geminillm.NewLLMService(ctx, geminillm.LLMConfig{
		APIKey: settings.APIKey,
		Model:  settings.Model,
	})
}
