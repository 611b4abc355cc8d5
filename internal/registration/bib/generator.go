// Package bib formats per-race bib numbers from a store-held sequence.
package bib

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	dErrors "marathon/pkg/domain-errors"
)

const (
	DefaultPrefix         = "RACE"
	DefaultFallbackPrefix = "RACEF"
	minDigits             = 3
)

// Sequencer advances a race's bib sequence inside the race transaction.
type Sequencer interface {
	NextBibSequence(ctx context.Context) (int, error)
}

// Generator turns sequence values into bib numbers. Bibs issued by the
// fallback store carry their own prefix so they never collide with bibs the
// durable store issues once it is back.
type Generator struct {
	prefix         string
	fallbackPrefix string
}

type Option func(*Generator)

func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		if prefix != "" {
			g.prefix = prefix
		}
	}
}

func WithFallbackPrefix(prefix string) Option {
	return func(g *Generator) {
		if prefix != "" {
			g.fallbackPrefix = prefix
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{prefix: DefaultPrefix, fallbackPrefix: DefaultFallbackPrefix}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next advances the sequence and returns the formatted bib.
func (g *Generator) Next(ctx context.Context, seq Sequencer, fallback bool) (string, error) {
	n, err := seq.NextBibSequence(ctx)
	if err != nil {
		return "", err
	}
	if n <= 0 {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "bib sequence must be positive")
	}
	prefix := g.prefix
	if fallback {
		prefix = g.fallbackPrefix
	}
	return Format(prefix, n), nil
}

// Format renders prefix plus a sequence zero-padded to at least three digits.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, minDigits, n)
}

// Parse splits a bib into its sequence value. The prefix must match exactly.
func Parse(prefix, bib string) (int, error) {
	digits, ok := strings.CutPrefix(bib, prefix)
	if !ok || len(digits) < minDigits {
		return 0, fmt.Errorf("bib %q does not match prefix %q", bib, prefix)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bib %q has no valid sequence", bib)
	}
	return n, nil
}
