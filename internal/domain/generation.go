package domain

import (
	"context"
	"fmt"
	"sync"
)

// Chat message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat turn sent to the generative model.
type Message struct {
	Role    string
	Content string
}

// Generator produces free text from a chat prompt. Output is not guaranteed
// to be valid JSON; the answer synthesizer owns recovery. The maximum output
// length configured on the provider is the only backpressure device.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// SerialGenerator is a decorator that serializes Generate calls with a mutex.
// Same rationale as SerialEmbedder: one non-thread-safe runtime, many requests.
type SerialGenerator struct {
	mu    sync.Mutex
	inner Generator
}

// NewSerialGenerator creates a serializing decorator around inner.
func NewSerialGenerator(inner Generator) *SerialGenerator {
	return &SerialGenerator{inner: inner}
}

// Generate delegates to the inner generator under the mutex.
func (g *SerialGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, err := g.inner.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("serial generate: %w", err)
	}
	return out, nil
}
