package linkcheck

import (
	"testing"

	"git.home.luguber.info/inful/coursebuilder/internal/course"
	"git.home.luguber.info/inful/coursebuilder/internal/lessonmodel"
)

// makeLesson parses content into a Lesson the way course.LoadLessons does,
// including the frontmatter title/uid mapping.
func makeLesson(t *testing.T, content string) *course.Lesson {
	t.Helper()
	doc, err := lessonmodel.Parse([]byte(content), lessonmodel.Options{})
	if err != nil {
		t.Fatalf("parse lesson: %v", err)
	}
	fields, err := doc.Fields()
	if err != nil {
		t.Fatalf("parse lesson frontmatter: %v", err)
	}

	lesson := &course.Lesson{
		File: course.LessonFile{
			Path:         "/repo/lessons/intro/getting-started.md",
			RelativePath: "intro/getting-started.md",
			Repository:   "repo",
			Section:      "intro",
			Name:         "getting-started",
			Extension:    ".md",
			Content:      []byte(content),
		},
		Doc:    doc,
		Fields: fields,
	}
	if title, ok := fields["title"].(string); ok {
		lesson.Title = title
	}
	if uid, ok := fields["uid"].(string); ok {
		lesson.UID = uid
	}
	return lesson
}

func TestExtractLessonLinksMarkdown(t *testing.T) {
	lesson := makeLesson(t, `---
title: Test
---
See [the docs](https://example.com/docs) and ![diagram](images/arch.png).

Auto link: <https://example.org/>
`)
	links, err := ExtractLessonLinks(lesson)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	byURL := map[string]Link{}
	for _, l := range links {
		byURL[l.URL] = l
	}
	if l, ok := byURL["https://example.com/docs"]; !ok || !l.IsExternal {
		t.Errorf("expected external docs link, got %+v", byURL)
	}
	if l, ok := byURL["images/arch.png"]; !ok || l.IsExternal {
		t.Errorf("expected internal image link, got %+v", byURL)
	}
	if _, ok := byURL["https://example.org/"]; !ok {
		t.Errorf("expected auto link extracted, got %+v", byURL)
	}
}

func TestExtractLessonLinksHTMLFragments(t *testing.T) {
	lesson := makeLesson(t, `---
title: Video lesson
---
Watch the walkthrough:

<iframe src="https://player.example.com/v/123"></iframe>

<img src="https://cdn.example.com/pic.png" alt="pic">
`)
	links, err := ExtractLessonLinks(lesson)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	found := map[string]string{}
	for _, l := range links {
		found[l.URL] = l.Source
	}
	if found["https://player.example.com/v/123"] != "iframe" {
		t.Errorf("expected iframe link, got %v", found)
	}
	if found["https://cdn.example.com/pic.png"] != "img" {
		t.Errorf("expected img link, got %v", found)
	}
}

func TestExtractLessonLinksDedupes(t *testing.T) {
	lesson := makeLesson(t, "[a](https://example.com/x)\n\n[b](https://example.com/x)\n")
	links, err := ExtractLessonLinks(lesson)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	count := 0
	for _, l := range links {
		if l.URL == "https://example.com/x" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected deduped link, got %d occurrences", count)
	}
}

func TestShouldVerify(t *testing.T) {
	cases := []struct {
		link Link
		want bool
	}{
		{Link{URL: "https://example.com", IsExternal: true}, true},
		{Link{URL: "#anchor", IsExternal: false}, false},
		{Link{URL: "mailto:x@example.com"}, false},
		{Link{URL: "tel:+123"}, false},
		{Link{URL: "javascript:void(0)"}, false},
		{Link{URL: "data:image/png;base64,xxx"}, false},
		{Link{URL: ""}, false},
		{Link{URL: "images/pic.png", IsExternal: false}, false},
	}
	for _, c := range cases {
		if got := ShouldVerify(c.link); got != c.want {
			t.Errorf("ShouldVerify(%q) = %v, want %v", c.link.URL, got, c.want)
		}
	}
}
