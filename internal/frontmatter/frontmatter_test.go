package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantFM  string
		wantBod string
		wantHad bool
	}{
		{
			name:    "no frontmatter",
			input:   "# Setting Breakpoints\n\nHello\n",
			wantBod: "# Setting Breakpoints\n\nHello\n",
		},
		{
			name:    "frontmatter and body",
			input:   "---\ntitle: Setting Breakpoints\n---\n# Setting Breakpoints\n",
			wantFM:  "title: Setting Breakpoints\n",
			wantBod: "# Setting Breakpoints\n",
			wantHad: true,
		},
		{
			name:    "crlf",
			input:   "---\r\ntitle: Setting Breakpoints\r\n---\r\n# Setting Breakpoints\r\n",
			wantFM:  "title: Setting Breakpoints\r\n",
			wantBod: "# Setting Breakpoints\r\n",
			wantHad: true,
		},
		{
			name:    "empty block",
			input:   "---\n---\n# Setting Breakpoints\n",
			wantFM:  "",
			wantBod: "# Setting Breakpoints\n",
			wantHad: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, _, err := Split([]byte(tt.input))
			require.NoError(t, err)
			require.Equal(t, tt.wantHad, had)
			require.Equal(t, tt.wantFM, string(fm))
			require.Equal(t, tt.wantBod, string(body))
		})
	}
}

func TestSplitUnclosedBlock(t *testing.T) {
	_, _, had, _, err := Split([]byte("---\ntitle: Setting Breakpoints\n# body without closing\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestJoinRoundTrip(t *testing.T) {
	inputs := []string{
		"# Setting Breakpoints\n\nHello\n",
		"---\ntitle: Setting Breakpoints\n---\n# Setting Breakpoints\n",
		"---\n---\n# Setting Breakpoints\n",
		"---\r\ntitle: Setting Breakpoints\r\n---\r\n# Setting Breakpoints\r\n",
	}
	for _, input := range inputs {
		fm, body, had, style, err := Split([]byte(input))
		require.NoError(t, err)
		require.Equal(t, input, string(Join(fm, body, had, style)))
	}
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("uid: abc\ntags:\n  - debugging\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", fields["uid"])
	require.Equal(t, []any{"debugging"}, fields["tags"])

	fields, err = ParseYAML(nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	require.Empty(t, fields)

	_, err = ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}
