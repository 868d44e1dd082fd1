package driven

import "context"

// Refiner rewrites a chunk of markdown for readability without changing its content.
type Refiner interface {
	// Refine returns the refined chunk.
	// Provider failures degrade to returning the input; only cancellation is an error.
	Refine(ctx context.Context, chunk string) (string, error)
}

// RefinerFactory builds a Refiner for a single processing run.
// Each run gets its own instance so response caches do not outlive the run.
type RefinerFactory func() Refiner
