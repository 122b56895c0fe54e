package course

import (
	"testing"
)

func TestComputeContentHashConsistency(t *testing.T) {
	files := []LessonFile{
		{
			Path:         "/repo/lessons/intro.md",
			RelativePath: "intro.md",
			Repository:   "course-go",
			Section:      "",
			Content:      []byte("# Intro"),
			Metadata:     map[string]string{"track": "backend"},
		},
		{
			Path:         "/repo/lessons/01-basics/variables.md",
			RelativePath: "01-basics/variables.md",
			Repository:   "course-go",
			Section:      "01-basics",
			Content:      []byte("# Variables"),
		},
	}

	hash1, err := ComputeContentHash(files)
	if err != nil {
		t.Fatalf("ComputeContentHash failed: %v", err)
	}

	hash2, err := ComputeContentHash(files)
	if err != nil {
		t.Fatalf("ComputeContentHash failed: %v", err)
	}

	if hash1 != hash2 {
		t.Errorf("Hash not consistent: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Expected 64-char SHA256 hash, got %d chars", len(hash1))
	}
}

func TestComputeContentHashOrderIndependent(t *testing.T) {
	a := LessonFile{Path: "/repo/lessons/a.md", Repository: "course-go", Content: []byte("Content A")}
	b := LessonFile{Path: "/repo/lessons/b.md", Repository: "course-go", Content: []byte("Content B")}

	hash1, _ := ComputeContentHash([]LessonFile{a, b})
	hash2, _ := ComputeContentHash([]LessonFile{b, a})

	if hash1 != hash2 {
		t.Error("Hash should be order-independent (after sorting)")
	}
}

func TestComputeContentHashChangesWithContent(t *testing.T) {
	v1 := []LessonFile{{Path: "/repo/lessons/intro.md", Repository: "course-go", Content: []byte("Version 1")}}
	v2 := []LessonFile{{Path: "/repo/lessons/intro.md", Repository: "course-go", Content: []byte("Version 2")}}

	hash1, _ := ComputeContentHash(v1)
	hash2, _ := ComputeContentHash(v2)

	if hash1 == hash2 {
		t.Error("Hash should change when content changes")
	}
}

func TestComputeContentHashEmptySet(t *testing.T) {
	hash1, err := ComputeContentHash(nil)
	if err != nil {
		t.Fatalf("ComputeContentHash failed: %v", err)
	}

	hash2, _ := ComputeContentHash([]LessonFile{})
	if hash1 != hash2 {
		t.Error("Empty set hash should be stable")
	}
	if len(hash1) != 64 {
		t.Errorf("Expected 64-char SHA256 hash, got %d chars", len(hash1))
	}
}

func TestLessonFileContentHash(t *testing.T) {
	lf := LessonFile{Content: []byte("# Lesson")}
	if h := lf.ContentHash(); len(h) != 64 {
		t.Errorf("Expected 64-char hash, got %q", h)
	}

	empty := LessonFile{}
	if h := empty.ContentHash(); h != "" {
		t.Errorf("Expected empty hash for unloaded content, got %q", h)
	}
}
