package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
	"github.com/custodia-labs/readwell/internal/logger"
)

// Ensure Explainer implements the interfaces.
var (
	_ driving.Explainer       = (*Explainer)(nil)
	_ driven.PromptStoreAware = (*Explainer)(nil)
)

// Explanation generation parameters.
const (
	explainTemperature = 0.5
	explainMaxTokens   = 400
)

const defaultExplainSystemPrompt = `You are a helpful assistant that always responds with valid JSON.`

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultExplainPrompt = `You are an expert at making complex text accessible. For the following text, provide three different explanations in valid JSON format:

1. "eli5" - Explain as if to a 5-year-old (2-3 sentences max)
2. "summary" - A brief, professional summary (1-2 sentences)
3. "jargon" - Rewrite without jargon or technical terms, accessible to general audience (2-3 sentences max)

Text to explain:
%s

Respond ONLY with valid JSON in this exact format:
{
  "eli5": "...",
  "summary": "...",
  "jargon": "..."
}`

// Explainer produces ELI5, summary and jargon-free explanations of a text selection.
type Explainer struct {
	llm         driven.LLMService
	cache       driven.Cache
	ttl         time.Duration
	promptStore driven.PromptStore
}

// NewExplainer creates an explainer. cache may be nil to disable caching.
func NewExplainer(llm driven.LLMService, cache driven.Cache, ttl time.Duration) *Explainer {
	return &Explainer{
		llm:   llm,
		cache: cache,
		ttl:   ttl,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (e *Explainer) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// Explain returns explanations for text, serving repeated selections from cache.
func (e *Explainer) Explain(ctx context.Context, text string) (*domain.Explanation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text required", domain.ErrInvalidInput)
	}
	if e.llm == nil {
		return nil, domain.ErrMissingCredentials
	}

	key := explainCacheKey(text)
	if cached, ok := e.fromCache(ctx, key); ok {
		return cached, nil
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: e.loadPrompt(driven.PromptExplainSystem, defaultExplainSystemPrompt)},
		{Role: "user", Content: fmt.Sprintf(e.loadPrompt(driven.PromptExplain, defaultExplainPrompt), text)},
	}
	completion, err := e.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: explainTemperature,
		MaxTokens:   explainMaxTokens,
		JSON:        true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: generate explanation: %w", domain.ErrLLMUnavailable, err)
	}

	explanation, err := ParseExplanation(completion)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if raw, err := json.Marshal(explanation); err == nil {
			if err := e.cache.Set(ctx, key, string(raw), e.ttl); err != nil {
				logger.Warn("explain: cache write failed: %v", err)
			}
		}
	}
	return explanation, nil
}

func (e *Explainer) fromCache(ctx context.Context, key string) (*domain.Explanation, bool) {
	if e.cache == nil {
		return nil, false
	}
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("explain: cache read failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var cached domain.Explanation
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	logger.Debug("explain: cache hit %s", key)
	return &cached, true
}

func (e *Explainer) loadPrompt(name, fallback string) string {
	if e.promptStore == nil {
		return fallback
	}
	prompt, err := e.promptStore.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// ParseExplanation decodes a model response into an Explanation.
// Markdown code fences and text around the JSON object are tolerated.
func ParseExplanation(completion string) (*domain.Explanation, error) {
	body := strings.TrimSpace(completion)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: explanation is not a JSON object", domain.ErrLLMUnavailable)
	}

	var out domain.Explanation
	if err := json.Unmarshal([]byte(body[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("%w: decode explanation: %w", domain.ErrLLMUnavailable, err)
	}
	if out.ELI5 == "" && out.Summary == "" && out.Jargon == "" {
		return nil, fmt.Errorf("%w: explanation is empty", domain.ErrLLMUnavailable)
	}
	return &out, nil
}

func explainCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "explain:" + hex.EncodeToString(sum[:])
}
