// Package refiner cleans up OCR markdown chunks with an LLM.
//
// The model is only allowed to fix formatting. Image references are masked
// before the call and restored afterwards, and any provider failure falls
// back to the unrefined chunk so a run never stalls on a flaky model.
package refiner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/logger"
	"github.com/custodia-labs/readwell/internal/normalisers/textclean"
	"github.com/custodia-labs/readwell/internal/postprocessors/placeholder"
)

// Defaults for refinement calls.
const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2048
)

// Ensure Refiner implements the interfaces.
var (
	_ driven.Refiner          = (*Refiner)(nil)
	_ driven.PromptStoreAware = (*Refiner)(nil)
)

// DefaultPrompt is the fallback system prompt when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultPrompt = `You are a markdown formatting specialist. Your ONLY job is to fix formatting issues in OCR-extracted markdown while preserving ALL original content exactly as written.
First consider the document type, what it actually is and then proceed.

CRITICAL RULES:
1. DO NOT change, rephrase, summarize, or rewrite ANY content
2. DO NOT add, remove, or modify any words, sentences, or paragraphs
3. DO NOT correct spelling, grammar, or factual errors
4. DO NOT translate or interpret anything
5. ONLY fix markdown syntax and formatting issues

ALLOWED FIXES ONLY:
- Fix broken markdown headers (add missing # symbols, fix spacing after #)
- Fix list formatting (ensure proper - or * with space, correct indentation)
- Fix table syntax (add missing | separators, add alignment row |---|---|)
- Fix LaTeX and its delimiters (ensure $ for inline, $$ for block equations)
- Remove OCR artifacts such as zero-width spaces and invisible characters
- Fix line breaks that split words incorrectly (rejoin hyphenated words at line breaks)
- Preserve __IMAGE_PLACEHOLDER_N__ tokens exactly as they appear

FORBIDDEN ACTIONS:
- DO NOT abbreviate or shorten table headers
- DO NOT split tables into multiple tables
- DO NOT reword table contents
- DO NOT change number formats or data values
- DO NOT add markdown features that weren't there (like bold, italic, links)
- DO NOT restructure sections or change heading levels

OUTPUT FORMAT:
Return ONLY the corrected markdown text. No explanations, no comments, no metadata. Start your response immediately with the corrected markdown.`

// Refiner sends chunks to an LLM for formatting-only cleanup.
type Refiner struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	cache       driven.Cache

	maxAttempts int
	backoff     time.Duration
	temperature float64
	maxTokens   int
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures the refiner.
type Option func(*Refiner)

// WithMaxAttempts sets the number of LLM calls made per chunk before falling back.
func WithMaxAttempts(n int) Option {
	return func(r *Refiner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between attempts. It doubles on each retry.
func WithBackoff(d time.Duration) Option {
	return func(r *Refiner) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *Refiner) {
		if t >= 0 {
			r.temperature = t
		}
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(r *Refiner) {
		if n > 0 {
			r.maxTokens = n
		}
	}
}

// WithPromptStore sets the store the system prompt is loaded from.
func WithPromptStore(store driven.PromptStore) Option {
	return func(r *Refiner) {
		r.promptStore = store
	}
}

// WithCache enables response caching keyed by the masked chunk.
func WithCache(cache driven.Cache) Option {
	return func(r *Refiner) {
		r.cache = cache
	}
}

// WithSleeper replaces the backoff wait. Intended for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Refiner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// New creates a refiner backed by llm.
func New(llm driven.LLMService, opts ...Option) *Refiner {
	r := &Refiner{
		llm:         llm,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (r *Refiner) SetPromptStore(store driven.PromptStore) {
	r.promptStore = store
}

// Refine returns a formatting-only cleanup of chunk.
// After all attempts fail the original chunk is returned unchanged.
// The only error returned is context cancellation.
func (r *Refiner) Refine(ctx context.Context, chunk string) (string, error) {
	if strings.TrimSpace(chunk) == "" {
		return chunk, nil
	}

	masked := placeholder.Mask(chunk)
	key := cacheKey(masked.Text)

	if r.cache != nil {
		if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			return r.finish(masked, cached), nil
		}
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: r.loadPrompt()},
		{Role: "user", Content: masked.Text},
	}

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		completion, err := r.llm.Chat(ctx, messages, driven.ChatOptions{
			Temperature: r.temperature,
			MaxTokens:   r.maxTokens,
		})
		if err == nil && strings.TrimSpace(completion) != "" {
			if r.cache != nil {
				if cacheErr := r.cache.Set(ctx, key, completion, 0); cacheErr != nil {
					logger.Debug("refiner: cache write failed: %v", cacheErr)
				}
			}
			return r.finish(masked, completion), nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err == nil {
			logger.Debug("refiner: empty completion on attempt %d/%d", attempt+1, r.maxAttempts)
		} else {
			logger.Debug("refiner: attempt %d/%d failed: %v", attempt+1, r.maxAttempts, err)
		}

		if attempt < r.maxAttempts-1 {
			if err := r.sleep(ctx, r.backoff<<attempt); err != nil {
				return "", err
			}
		}
	}

	logger.Warn("refiner: giving up after %d attempts, keeping original chunk", r.maxAttempts)
	return chunk, nil
}

func (r *Refiner) finish(masked *placeholder.Masked, completion string) string {
	return textclean.DedupeRepeatedLines(masked.Restore(completion))
}

// loadPrompt loads the system prompt from the store, falling back to the default.
func (r *Refiner) loadPrompt() string {
	if r.promptStore == nil {
		return DefaultPrompt
	}
	prompt, err := r.promptStore.Load(driven.PromptRefine)
	if err != nil || prompt == "" {
		return DefaultPrompt
	}
	return prompt
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "refine:" + hex.EncodeToString(sum[:])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
