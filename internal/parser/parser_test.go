package parser

import (
	"strings"
	"testing"
)

func TestParse_DailyNote(t *testing.T) {
	input := []byte("---\ntype: daily\nstatus: active\ndate: \"2025-01-01\"\n---\n# 2025-01-01\n\n## 🎙️ Captures\n\n- **14:30** Buy milk #errands\n  #📼 42\n")
	n := Parse(input)
	if n.Kind != "daily" {
		t.Errorf("kind = %q, want daily", n.Kind)
	}
	if n.Title != "2025-01-01" {
		t.Errorf("title = %q", n.Title)
	}
	if len(n.Tags) != 1 || n.Tags[0] != "errands" {
		t.Errorf("tags = %v, want [errands]", n.Tags)
	}
	if !strings.HasPrefix(n.Body, "# 2025-01-01") {
		t.Errorf("body = %q", n.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	n := Parse([]byte("# Just a heading\nSome text.\n"))
	if n.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", n.Frontmatter)
	}
	if n.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", n.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	n := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if n.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestLinks_AliasesAndDuplicates(t *testing.T) {
	got := links("- 📅 [[Meetings/2025-01-01 1430 Standup|Standup]]\nsee [[Note A]] and [[Note A]] and [[ ]]")
	if len(got) != 2 || got[0] != "Meetings/2025-01-01 1430 Standup" || got[1] != "Note A" {
		t.Errorf("links = %v", got)
	}
}

func TestTags_FrontmatterFirst(t *testing.T) {
	fm := map[string]any{"tags": []any{"alpha"}}
	got := tags("Some text #beta and #alpha again.", fm)
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", got)
	}
}

func TestTitle_FrontmatterOverH1(t *testing.T) {
	if got := title(map[string]any{"title": "FM Title"}, "# H1 Title\ntext"); got != "FM Title" {
		t.Errorf("title = %q, want %q", got, "FM Title")
	}
}

func TestRender_RoundTrip(t *testing.T) {
	fm := struct {
		Type string `yaml:"type"`
		Date string `yaml:"date"`
	}{Type: "meeting", Date: "2025-01-01"}

	out, err := Render(fm, "# Standup\n")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(out, "---\ntype: meeting\n") {
		t.Errorf("unexpected frontmatter order: %q", out)
	}
	n := Parse([]byte(out))
	if n.Kind != "meeting" || n.Title != "Standup" {
		t.Errorf("round trip = %+v", n)
	}
}
