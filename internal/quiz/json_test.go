package quiz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords_NormalizedShape(t *testing.T) {
	body := []byte("" +
		"- Which command resumes execution?\n" +
		"- `step`\n" +
		"    - Not quite.\n" +
		"- `continue`\n" +
		"{: .choose_best #continue_cmd title=\"Continue\" points=\"2\" answer=\"2\" }\n")

	doc := Parse(body)
	records := Records(doc)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "continue_cmd", rec.ID)
	assert.Equal(t, ClassChooseBest, rec.Class)
	assert.Equal(t, 2.0, rec.Points)
	assert.Equal(t, []int{2}, rec.Answers)
	require.Len(t, rec.Choices, 2)
	assert.Equal(t, "Not quite.", rec.Choices[0].Feedback)
}

func TestRecords_FreeTextDropsAnswerAttribute(t *testing.T) {
	body := []byte("" +
		"- Describe a breakpoint.\n" +
		"{: .free_text #own_words points=\"8\" answer=\"1\" }\n")

	doc := Parse(body)
	records := Records(doc)
	require.Len(t, records, 1)
	assert.Equal(t, ClassFreeText, records[0].Class)
	assert.Empty(t, records[0].Answers)
}

func TestMarshalRecords_RoundTrip(t *testing.T) {
	body := []byte("" +
		"- Describe a breakpoint.\n" +
		"{: .free_text #own_words points=\"8\" }\n")

	doc := Parse(body)
	data, err := MarshalRecords(Records(doc))
	require.NoError(t, err)

	var decoded []Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "own_words", decoded[0].ID)
	assert.Equal(t, ClassFreeText, decoded[0].Class)
	assert.Empty(t, decoded[0].Choices)
	assert.Empty(t, decoded[0].Answers)
}
