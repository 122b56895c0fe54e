package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/lessonmodel"
)

func TestParse_ChooseBestBlock(t *testing.T) {
	body := []byte("" +
		"- Which command resumes execution until the next breakpoint?\n" +
		"- `step`\n" +
		"    - Not quite. `step` moves one line at a time.\n" +
		"- `continue`\n" +
		"    - Correct! `continue` resumes until the next breakpoint.\n" +
		"- `next`\n" +
		"    - Not quite. `next` steps over method calls.\n" +
		"{: .choose_best #continue_cmd title=\"Continue command\" points=\"2\" answer=\"2\" }\n")

	doc := Parse(body)
	require.Empty(t, doc.Findings)
	require.Len(t, doc.Quizzes, 1)

	q := doc.Quizzes[0]
	assert.Equal(t, "continue_cmd", q.ID)
	assert.Equal(t, ClassChooseBest, q.Class)
	assert.Equal(t, "Continue command", q.Title)
	assert.Equal(t, 2.0, q.Points)
	assert.Equal(t, []int{2}, q.Answers)
	assert.Equal(t, "Which command resumes execution until the next breakpoint?", q.Stem)
	assert.Equal(t, 8, q.Line)
	assert.Equal(t, 1, q.ListStartLine)

	require.Len(t, q.Choices, 3)
	assert.Equal(t, "`step`", q.Choices[0].Text)
	assert.Equal(t, "Not quite. `step` moves one line at a time.", q.Choices[0].Feedback)
	assert.Equal(t, "`continue`", q.Choices[1].Text)
	assert.Equal(t, "Correct! `continue` resumes until the next breakpoint.", q.Choices[1].Feedback)
}

func TestParse_ChooseAllBlock(t *testing.T) {
	body := []byte("" +
		"- Which of these stop execution?\n" +
		"- `debugger`\n" +
		"- `puts`\n" +
		"- `binding.irb`\n" +
		"{: .choose_all #stoppers answer=\"[1,3]\" }\n")

	doc := Parse(body)
	require.Empty(t, doc.Findings)
	require.Len(t, doc.Quizzes, 1)

	q := doc.Quizzes[0]
	assert.Equal(t, ClassChooseAll, q.Class)
	assert.Equal(t, []int{1, 3}, q.Answers)
	require.Len(t, q.Choices, 3)
	assert.Empty(t, q.Choices[1].Feedback)
}

func TestParse_FreeTextBlock(t *testing.T) {
	body := []byte("" +
		"- Describe in your own words what a breakpoint is.\n" +
		"{: .free_text #breakpoint_own_words title=\"Breakpoints\" points=\"8\" }\n")

	doc := Parse(body)
	require.Empty(t, doc.Findings)
	require.Len(t, doc.Quizzes, 1)

	q := doc.Quizzes[0]
	assert.Equal(t, ClassFreeText, q.Class)
	assert.Equal(t, "Describe in your own words what a breakpoint is.", q.Stem)
	assert.Empty(t, q.Choices)
	assert.False(t, q.HasAnswer())
	assert.Equal(t, 8.0, q.Points)
}

func TestParse_MissingPoints_AppliesDefault(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"- B\n" +
		"{: .choose_best #q1 answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)

	q := doc.Quizzes[0]
	assert.False(t, q.HasPoints())
	assert.Equal(t, DefaultPoints, q.Points)
}

func TestParse_UnparseablePoints_Finding(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"{: .choose_best #q1 points=\"lots\" answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	require.Len(t, doc.Findings, 1)
	assert.Equal(t, FindingBadPoints, doc.Findings[0].Code)
	assert.Equal(t, "q1", doc.Findings[0].QuizID)
}

func TestParse_UnparseableAnswer_Finding(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"{: .choose_best #q1 answer=\"first\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	require.Len(t, doc.Findings, 1)
	assert.Equal(t, FindingBadAnswer, doc.Findings[0].Code)
	assert.Nil(t, doc.Quizzes[0].Answers)
	assert.Equal(t, "first", doc.Quizzes[0].RawAnswer)
}

func TestParse_OrphanAnnotation_BlankLineAbove(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"\n" +
		"{: .choose_best #q1 answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	require.Len(t, doc.Findings, 1)
	assert.Equal(t, FindingOrphanIAL, doc.Findings[0].Code)
	assert.Empty(t, doc.Quizzes[0].Stem)
	assert.Zero(t, doc.Quizzes[0].ListStartLine)
}

func TestParse_AnnotationAfterParagraph_OrphanFinding(t *testing.T) {
	body := []byte("" +
		"This is prose, not a list.\n" +
		"{: .choose_best #q1 answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	require.Len(t, doc.Findings, 1)
	assert.Equal(t, FindingOrphanIAL, doc.Findings[0].Code)
}

func TestParse_MalformedAnnotation_Finding(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"{: .choose_best #q1 answer=\"1\"\n")

	doc := Parse(body)
	assert.Empty(t, doc.Quizzes)
	require.Len(t, doc.Findings, 1)
	assert.Equal(t, FindingMalformedIAL, doc.Findings[0].Code)
	assert.Equal(t, 3, doc.Findings[0].Line)
}

func TestParse_AnnotationInsideFence_Ignored(t *testing.T) {
	body := []byte("" +
		"```markdown\n" +
		"- Stem?\n" +
		"- A\n" +
		"{: .choose_best #in_fence answer=\"1\" }\n" +
		"```\n")

	doc := Parse(body)
	assert.Empty(t, doc.Quizzes)
	assert.Empty(t, doc.Findings)
}

func TestParse_AnnotationInIndentedCode_Ignored(t *testing.T) {
	body := []byte("" +
		"Example:\n" +
		"\n" +
		"    {: .choose_best #in_code answer=\"1\" }\n")

	doc := Parse(body)
	assert.Empty(t, doc.Quizzes)
	assert.Empty(t, doc.Findings)
}

func TestParse_NonQuizAnnotation_Ignored(t *testing.T) {
	body := []byte("" +
		"Some aside text.\n" +
		"{: .alert .alert-info }\n")

	doc := Parse(body)
	assert.Empty(t, doc.Quizzes)
	assert.Empty(t, doc.Findings)
}

func TestParse_MultipleQuizzes(t *testing.T) {
	body := []byte("" +
		"- First stem?\n" +
		"- A\n" +
		"- B\n" +
		"{: .choose_best #first answer=\"1\" }\n" +
		"\n" +
		"Some prose between quizzes.\n" +
		"\n" +
		"- Second stem?\n" +
		"- C\n" +
		"- D\n" +
		"{: .choose_best #second answer=\"2\" }\n")

	doc := Parse(body)
	require.Empty(t, doc.Findings)
	require.Len(t, doc.Quizzes, 2)
	assert.Equal(t, "first", doc.Quizzes[0].ID)
	assert.Equal(t, "second", doc.Quizzes[1].ID)
	assert.Equal(t, "Second stem?", doc.Quizzes[1].Stem)
}

func TestParse_BackToBackQuizLists(t *testing.T) {
	body := []byte("" +
		"- First stem?\n" +
		"- A\n" +
		"{: .choose_best #first answer=\"1\" }\n" +
		"- Second stem?\n" +
		"- B\n" +
		"{: .choose_best #second answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 2)
	// The second run must stop at the first annotation line.
	assert.Equal(t, "Second stem?", doc.Quizzes[1].Stem)
	require.Len(t, doc.Quizzes[1].Choices, 1)
	assert.Equal(t, "B", doc.Quizzes[1].Choices[0].Text)
}

func TestParse_WrappedChoiceText_Joined(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A choice that wraps\n" +
		"  onto the next line\n" +
		"{: .choose_best #wrap answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	require.Len(t, doc.Quizzes[0].Choices, 1)
	assert.Equal(t, "A choice that wraps onto the next line", doc.Quizzes[0].Choices[0].Text)
}

func TestParse_OrderedListMarkers(t *testing.T) {
	body := []byte("" +
		"1. Stem?\n" +
		"2. A\n" +
		"3. B\n" +
		"{: .choose_best #ordered answer=\"2\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	assert.Equal(t, "Stem?", doc.Quizzes[0].Stem)
	require.Len(t, doc.Quizzes[0].Choices, 2)
	assert.Equal(t, "B", doc.Quizzes[0].Choices[1].Text)
}

func TestParse_MultipleFeedbackItems_JoinedWithNewline(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"    - First hint.\n" +
		"    - Second hint.\n" +
		"{: .choose_best #hints answer=\"1\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	require.Len(t, doc.Quizzes[0].Choices, 1)
	assert.Equal(t, "First hint.\nSecond hint.", doc.Quizzes[0].Choices[0].Feedback)
}

func TestParse_CRLFBody(t *testing.T) {
	body := []byte("- Stem?\r\n- A\r\n- B\r\n{: .choose_best #crlf answer=\"1\" }\r\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 1)
	assert.Equal(t, "Stem?", doc.Quizzes[0].Stem)
	require.Len(t, doc.Quizzes[0].Choices, 2)
	assert.Equal(t, "A", doc.Quizzes[0].Choices[0].Text)
}

func TestParseLesson_MapsFileLines(t *testing.T) {
	content := []byte("" +
		"---\n" +
		"title: Debugging\n" +
		"---\n" +
		"- Stem?\n" +
		"- A\n" +
		"{: .choose_best #q1 answer=\"1\" }\n")

	lesson, err := lessonmodel.Parse(content, lessonmodel.Options{})
	require.NoError(t, err)

	doc, err := ParseLesson(lesson)
	require.NoError(t, err)
	require.Len(t, doc.Quizzes, 1)

	// Annotation is on body line 3, file line 6.
	assert.Equal(t, 3, doc.Quizzes[0].Line)
	assert.Equal(t, 6, doc.Quizzes[0].FileLine)
}

func TestDocument_Helpers(t *testing.T) {
	body := []byte("" +
		"- Stem?\n" +
		"- A\n" +
		"{: .choose_best #q1 points=\"2\" answer=\"1\" }\n" +
		"\n" +
		"- Stem two.\n" +
		"{: .free_text #q2 points=\"3\" }\n")

	doc := Parse(body)
	require.Len(t, doc.Quizzes, 2)

	assert.NotNil(t, doc.QuizByID("q2"))
	assert.Nil(t, doc.QuizByID("missing"))
	assert.Equal(t, 5.0, doc.TotalPoints())
}
