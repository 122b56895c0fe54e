package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIAL_FullAnnotation(t *testing.T) {
	attr, err := parseIAL(`{: .choose_best #day_one title="Day One" points="2" answer="3" }`)
	require.NoError(t, err)

	assert.Equal(t, []string{"choose_best"}, attr.classes)
	assert.Equal(t, "day_one", attr.id)
	assert.Equal(t, "Day One", attr.attrs["title"])
	assert.Equal(t, "2", attr.attrs["points"])
	assert.Equal(t, "3", attr.attrs["answer"])
	assert.Equal(t, ClassChooseBest, attr.quizClass())
}

func TestParseIAL_NoSpaceBeforeClosingBrace(t *testing.T) {
	attr, err := parseIAL(`{: .free_text #own_words points="8"}`)
	require.NoError(t, err)

	assert.Equal(t, "own_words", attr.id)
	assert.Equal(t, "8", attr.attrs["points"])
	assert.Equal(t, ClassFreeText, attr.quizClass())
}

func TestParseIAL_SingleQuotedValue(t *testing.T) {
	attr, err := parseIAL(`{: .choose_all title='Pick all that apply' answer='[1,3]' }`)
	require.NoError(t, err)

	assert.Equal(t, "Pick all that apply", attr.attrs["title"])
	assert.Equal(t, "[1,3]", attr.attrs["answer"])
}

func TestParseIAL_UnquotedValue(t *testing.T) {
	attr, err := parseIAL(`{: .choose_best answer=2 points=1 }`)
	require.NoError(t, err)

	assert.Equal(t, "2", attr.attrs["answer"])
	assert.Equal(t, "1", attr.attrs["points"])
}

func TestParseIAL_QuotedValueKeepsSpaces(t *testing.T) {
	attr, err := parseIAL(`{: .choose_best title="What does params contain?" answer="1" }`)
	require.NoError(t, err)

	assert.Equal(t, "What does params contain?", attr.attrs["title"])
}

func TestParseIAL_MultipleClasses_PicksQuizClass(t *testing.T) {
	attr, err := parseIAL(`{: .spaced .choose_all #q1 answer="1,2" }`)
	require.NoError(t, err)

	assert.Equal(t, []string{"spaced", "choose_all"}, attr.classes)
	assert.Equal(t, ClassChooseAll, attr.quizClass())
}

func TestParseIAL_NonQuizClasses(t *testing.T) {
	attr, err := parseIAL(`{: .mark_as_read }`)
	require.NoError(t, err)

	assert.Empty(t, attr.quizClass())
}

func TestParseIAL_BareWordPreserved(t *testing.T) {
	attr, err := parseIAL(`{: .choose_best regrade }`)
	require.NoError(t, err)

	_, ok := attr.attrs["regrade"]
	assert.True(t, ok)
}

func TestParseIAL_MissingClosingBrace_Errors(t *testing.T) {
	_, err := parseIAL(`{: .choose_best #q1 answer="1"`)
	require.Error(t, err)
}

func TestParseIAL_UnterminatedQuote_Errors(t *testing.T) {
	_, err := parseIAL(`{: .choose_best title="Oops }`)
	require.Error(t, err)
}

func TestParseIAL_EmptyClassToken_Errors(t *testing.T) {
	_, err := parseIAL(`{: . }`)
	require.Error(t, err)
}

func TestIsIALLine(t *testing.T) {
	assert.True(t, isIALLine(`{: .choose_best }`))
	assert.False(t, isIALLine(`{::options parse_block_html="true" /}`))
	assert.False(t, isIALLine(`plain text`))
	assert.False(t, isIALLine(`{ .brace-but-not-ial }`))
}
