package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractHeadings_ATXHeadings(t *testing.T) {
	src := []byte("# Adding Routes\n\nIntro text.\n\n## Your first route\n")

	headings, err := ExtractHeadings(src, Options{})
	require.NoError(t, err)
	require.Len(t, headings, 2)

	require.Equal(t, 1, headings[0].Level)
	require.Equal(t, "Adding Routes", headings[0].Text)
	require.Equal(t, 1, headings[0].Line)

	require.Equal(t, 2, headings[1].Level)
	require.Equal(t, "Your first route", headings[1].Text)
	require.Equal(t, 5, headings[1].Line)
}

func TestExtractHeadings_IgnoresFencedCode(t *testing.T) {
	src := []byte("# Real\n\n```\n# not a heading\n```\n")

	headings, err := ExtractHeadings(src, Options{})
	require.NoError(t, err)
	require.Len(t, headings, 1)
	require.Equal(t, "Real", headings[0].Text)
}

func TestExtractHeadings_Empty(t *testing.T) {
	headings, err := ExtractHeadings([]byte("plain text only\n"), Options{})
	require.NoError(t, err)
	require.Empty(t, headings)
}
