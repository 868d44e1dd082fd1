// Package throttle wraps an LLM service with a client-side request rate limit.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// LLMService delays calls to the wrapped service so that no more than the
// configured number of requests per minute leave the process.
type LLMService struct {
	next    driven.LLMService
	limiter *rate.Limiter
}

// Wrap returns next limited to requestsPerMinute calls.
// A non-positive limit returns next unchanged.
func Wrap(next driven.LLMService, requestsPerMinute int) driven.LLMService {
	if next == nil || requestsPerMinute <= 0 {
		return next
	}
	return &LLMService{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

// Generate waits for a token then delegates.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.next.Generate(ctx, prompt, opts)
}

// Chat waits for a token then delegates.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.next.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

// Ping is not rate limited.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.next.Close()
}
