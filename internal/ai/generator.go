// Package ai wraps the upstream text-generation provider behind a
// small interface so workers and tests never talk HTTP directly.
package ai

import (
	"context"
	"errors"
)

var ErrGenerationFailed = errors.New("generation_failed")

// Request describes one content generation.
type Request struct {
	Topic string
	Tone  string
	Model string
}

// Result carries the generated text plus the provider's token counts,
// which feed the usage ledger.
type Result struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// ModelPicker maps a subject's tier to the provider model. Unmetered
// subscribers get the premium model.
type ModelPicker struct {
	Standard string
	Premium  string
}

func (p ModelPicker) For(unmetered bool) string {
	if unmetered {
		return p.Premium
	}
	return p.Standard
}
