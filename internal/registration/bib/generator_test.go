package bib

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type counter struct {
	n   int
	err error
}

func (c *counter) NextBibSequence(context.Context) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.n++
	return c.n, nil
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "RACE001", Format("RACE", 1))
	assert.Equal(t, "RACE042", Format("RACE", 42))
	assert.Equal(t, "RACE999", Format("RACE", 999))
	assert.Equal(t, "RACE1000", Format("RACE", 1000))
}

func TestGeneratorNext(t *testing.T) {
	ctx := context.Background()

	t.Run("durable prefix", func(t *testing.T) {
		g := New()
		seq := &counter{}
		first, err := g.Next(ctx, seq, false)
		require.NoError(t, err)
		second, err := g.Next(ctx, seq, false)
		require.NoError(t, err)
		assert.Equal(t, "RACE001", first)
		assert.Equal(t, "RACE002", second)
	})

	t.Run("fallback prefix", func(t *testing.T) {
		g := New(WithFallbackPrefix("TMP"))
		bib, err := g.Next(ctx, &counter{n: 9}, true)
		require.NoError(t, err)
		assert.Equal(t, "TMP010", bib)
	})

	t.Run("sequencer error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := New().Next(ctx, &counter{err: boom}, false)
		assert.ErrorIs(t, err, boom)
	})
}

func TestFormatParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.SampledFrom([]string{DefaultPrefix, DefaultFallbackPrefix}).Draw(t, "prefix")
		n := rapid.IntRange(1, 1_000_000).Draw(t, "n")

		got, err := Parse(prefix, Format(prefix, n))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got != n {
			t.Fatalf("round trip: got %d want %d", got, n)
		}
	})
}

func TestFormatPreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(1, 999).Draw(t, "a")
		b := rapid.IntRange(1, 999).Draw(t, "b")
		if a < b && !(Format("RACE", a) < Format("RACE", b)) {
			t.Fatalf("%d < %d but %s >= %s", a, b, Format("RACE", a), Format("RACE", b))
		}
	})
}
