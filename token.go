package qagen

import "context"

// TokenCounter counts tokens in text for a specific model.
// Used to size segments against the generation service's context budget.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
