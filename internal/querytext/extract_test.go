package querytext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRatersBlock(t *testing.T) {
	t.Parallel()

	raw := "Target Sentence\nRaters' Comments\nTask Questions\n\n\nHello world\n\n\nrest"
	got, ok := Extract(raw, DefaultPhrases())
	require.True(t, ok)
	require.Equal(t, "Hello world", got)
}

func TestExtractRatersBlockMissingAnchors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "no header block", raw: "Raters' Comments only\n\n\nHello"},
		{name: "no terminator", raw: "Target Sentence\nRaters' Comments\nTask Questions\n\n\nHello world\n\nrest"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Extract(tt.raw, DefaultPhrases())
			require.False(t, ok)
			require.Empty(t, got)
		})
	}
}

func TestExtractRatersBlockWinsOverReviewMarker(t *testing.T) {
	t.Parallel()

	raw := "Target Sentence from the above response:\n" +
		"Target Sentence\nRaters' Comments\nTask Questions\n\n\n  Inner sentence  \n\n\nQuestion A x A. To what extent is the Target Sentence"
	got, ok := Extract(raw, DefaultPhrases())
	require.True(t, ok)
	require.Equal(t, "Inner sentence", got)
}

func TestExtractBetweenPhrases(t *testing.T) {
	t.Parallel()

	raw := "Target Sentence from the above response:\nQUESTION a\n  The cat sat.\n" +
		"a. to what extent is the target sentence accurate?"
	got, ok := Extract(raw, DefaultPhrases())
	require.True(t, ok)
	require.Equal(t, "The cat sat.", got)
}

func TestExtractBetweenCustomPhrases(t *testing.T) {
	t.Parallel()

	raw := "Target Sentence from the above response: <<Ünïcode café>> end"
	got, ok := Extract(raw, Phrases{Start: "<<", End: ">>"})
	require.True(t, ok)
	require.Equal(t, "Ünïcode café", got)
}

func TestExtractBetweenMissingPhrase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing start":        "Target Sentence from the above response: body A. To what extent is the Target Sentence",
		"missing end":          "Target Sentence from the above response: Question A body",
		"end before the start": "Target Sentence from the above response: A. To what extent is the Target Sentence Question A",
	}
	for name, raw := range tests {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, ok := Extract(raw, DefaultPhrases())
			require.False(t, ok)
		})
	}
}

func TestExtractPassThrough(t *testing.T) {
	t.Parallel()

	raw := "  just a plain query\n"
	got, ok := Extract(raw, DefaultPhrases())
	require.True(t, ok)
	require.Equal(t, raw, got)
}

func TestIndexFold(t *testing.T) {
	t.Parallel()

	start, end := indexFold("abc STRASSE def", "strasse")
	require.Equal(t, 4, start)
	require.Equal(t, 11, end)

	start, end = indexFold("abc", "zz")
	require.Equal(t, -1, start)
	require.Equal(t, -1, end)
}
