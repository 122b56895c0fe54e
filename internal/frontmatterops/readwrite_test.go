package frontmatterops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
)

func TestRead(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		input := []byte("# Setting Breakpoints\n\nHello\n")
		fields, body, had, style, err := Read(input)
		require.NoError(t, err)
		require.False(t, had)
		require.NotNil(t, fields)
		require.Empty(t, fields)
		require.Equal(t, input, body)
		require.Equal(t, "\n", style.Newline)
	})

	t.Run("empty block", func(t *testing.T) {
		fields, body, had, _, err := Read([]byte("---\n---\n# Setting Breakpoints\n"))
		require.NoError(t, err)
		require.True(t, had)
		require.Empty(t, fields)
		require.Equal(t, "# Setting Breakpoints\n", string(body))
	})

	t.Run("fields parsed", func(t *testing.T) {
		fields, body, had, _, err := Read([]byte("---\nuid: abc\ntags:\n  - debugging\n---\n# Setting Breakpoints\n"))
		require.NoError(t, err)
		require.True(t, had)
		require.Equal(t, "abc", fields["uid"])
		require.Equal(t, []any{"debugging"}, fields["tags"])
		require.Equal(t, "# Setting Breakpoints\n", string(body))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, _, _, _, err := Read([]byte("---\n: not yaml\n---\n# Setting Breakpoints\n"))
		require.Error(t, err)
	})

	t.Run("unclosed block", func(t *testing.T) {
		_, _, had, _, err := Read([]byte("---\nkey: value\n# Setting Breakpoints\n"))
		require.ErrorIs(t, err, frontmatter.ErrMissingClosingDelimiter)
		require.False(t, had)
	})
}

func TestWrite(t *testing.T) {
	body := []byte("# Setting Breakpoints\n")

	t.Run("had false passes body through", func(t *testing.T) {
		out, err := Write(map[string]any{"uid": "abc"}, body, false, frontmatter.Style{Newline: "\n"})
		require.NoError(t, err)
		require.Equal(t, body, out)
	})

	t.Run("fields serialized sorted", func(t *testing.T) {
		out, err := Write(map[string]any{"uid": "abc", "position": 4}, body, true, frontmatter.Style{Newline: "\n"})
		require.NoError(t, err)
		require.Equal(t, "---\nposition: 4\nuid: abc\n---\n# Setting Breakpoints\n", string(out))
	})

	t.Run("empty fields keep the block", func(t *testing.T) {
		out, err := Write(map[string]any{}, body, true, frontmatter.Style{Newline: "\n"})
		require.NoError(t, err)
		require.Equal(t, "---\n---\n# Setting Breakpoints\n", string(out))
	})

	t.Run("crlf style", func(t *testing.T) {
		out, err := Write(map[string]any{"uid": "abc"}, []byte("# Setting Breakpoints\r\n"), true, frontmatter.Style{Newline: "\r\n"})
		require.NoError(t, err)
		require.Equal(t, "---\r\nuid: abc\r\n---\r\n# Setting Breakpoints\r\n", string(out))
	})
}
