package section

import (
	"strings"
	"testing"
)

const (
	captures   = "## 🎙️ Captures"
	todos      = "## ✅ Todos"
	automation = "## 🤖 Automation"
)

func TestAppendUnder_AfterHeader(t *testing.T) {
	doc := captures + "\n"
	frag := "- **14:30** Buy milk\n  #📼 42"

	got, changed := AppendUnder(doc, captures, frag)
	if !changed {
		t.Fatal("expected change")
	}
	want := captures + "\n\n- **14:30** Buy milk\n  #📼 42\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	again, changed := AppendUnder(got, captures, frag)
	if changed || again != got {
		t.Errorf("second append mutated document: %q", again)
	}
}

func TestAppendUnder_LegacyMarkerDedup(t *testing.T) {
	doc := captures + "\n\n- **14:30** Buy milk\n<!-- echo-id:42 -->\n"
	got, changed := AppendUnder(doc, captures, "- **14:30** Buy milk\n  #📼 42")
	if changed || got != doc {
		t.Errorf("legacy marker not honoured: %q", got)
	}
}

func TestAppendUnder_DedupAnywhereInDocument(t *testing.T) {
	doc := "## Other\n\n#📼42\n\n" + captures + "\n"
	if _, changed := AppendUnder(doc, captures, "- x\n  #📼 42"); changed {
		t.Error("marker elsewhere in the document should block the insert")
	}
}

func TestAppendUnder_StopsAtNextSection(t *testing.T) {
	doc := "# Day\n\n" + captures + "\n\n- a\n  #📼 1\n\n## Notes\n\nkeep me\n### Sub\nx\n"
	got, _ := AppendUnder(doc, captures, "- b\n  #📼 2")
	want := "# Day\n\n" + captures + "\n\n- a\n  #📼 1\n\n- b\n  #📼 2\n\n## Notes\n\nkeep me\n### Sub\nx\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAppendUnder_DoesNotTouchEarlierSections(t *testing.T) {
	prefix := "## Notes\nkeep\n### Deep\nd\n"
	doc := prefix + captures + "\n"
	got, _ := AppendUnder(doc, captures, "- b\n  #📼 2")
	if !strings.HasPrefix(got, prefix+captures) {
		t.Errorf("earlier section modified: %q", got)
	}
	if !strings.HasSuffix(got, "- b\n  #📼 2\n") {
		t.Errorf("fragment not at end: %q", got)
	}
}

func TestAppendUnder_MissingHeader(t *testing.T) {
	got, changed := AppendUnder("# Day\n", captures, "- b\n  #📼 2\n")
	if !changed {
		t.Fatal("expected change")
	}
	want := "# Day\n\n" + captures + "\n\n- b\n  #📼 2\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got, _ = AppendUnder("", captures, "- b\n  #📼 2")
	if got != captures+"\n\n- b\n  #📼 2\n" {
		t.Errorf("empty doc: got %q", got)
	}
}

func TestAppendUnder_HeaderMustBeWholeLine(t *testing.T) {
	doc := "mentions " + captures + " inline\n"
	got, _ := AppendUnder(doc, captures, "- b\n  #📼 2")
	if !strings.HasPrefix(got, doc) || !strings.Contains(got, "\n\n"+captures+"\n\n- b") {
		t.Errorf("inline text treated as header: %q", got)
	}
}

func TestReplace_IsTotal(t *testing.T) {
	doc := todos + "\n\nstale text\nmore stale\n\n" + automation + "\n"

	first := Replace(doc, todos, "- [ ] Deploy #📼t 5", automation)
	want := todos + "\n\n- [ ] Deploy #📼t 5\n\n" + automation + "\n"
	if first != want {
		t.Fatalf("first replace: got %q, want %q", first, want)
	}

	second := Replace(first, todos, "- [ ] Other #📼t 6\n", automation)
	want = todos + "\n\n- [ ] Other #📼t 6\n\n" + automation + "\n"
	if second != want {
		t.Fatalf("second replace: got %q, want %q", second, want)
	}
	if strings.Contains(second, "Deploy") || strings.Contains(second, "stale") {
		t.Errorf("residue left behind: %q", second)
	}
}

func TestReplace_RemovesDeeperSubsections(t *testing.T) {
	doc := todos + "\n### old\nx\n## Next\nkept\n"
	got := Replace(doc, todos, "y", "")
	want := todos + "\n\ny\n\n## Next\nkept\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplace_MissingHeaderGoesBeforeAnchor(t *testing.T) {
	doc := "# Day\n\n" + captures + "\n\n" + automation + "\n"
	got := Replace(doc, todos, "- [ ] a", automation)
	want := "# Day\n\n" + captures + "\n\n" + todos + "\n\n- [ ] a\n\n" + automation + "\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplace_MissingHeaderNoAnchor(t *testing.T) {
	got := Replace("# Day\n", todos, "- [ ] a", automation)
	want := "# Day\n\n" + todos + "\n\n- [ ] a\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplace_EmptyBody(t *testing.T) {
	doc := todos + "\n\nold\n\n## Next\n"
	got := Replace(doc, todos, "", "")
	want := todos + "\n\n## Next\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBody(t *testing.T) {
	doc := "# Day\n\n" + todos + "\n\n- [ ] a\n- [ ] b\n\n" + automation + "\n"
	got, ok := Body(doc, todos)
	if !ok || got != "- [ ] a\n- [ ] b" {
		t.Errorf("Body = %q, %v", got, ok)
	}
	if _, ok := Body(doc, "## Missing"); ok {
		t.Error("expected missing header")
	}
}

func TestDepth(t *testing.T) {
	cases := map[string]int{"# A": 1, "## A": 2, "#### A": 4, "plain": 4, "###### A": 4}
	for in, want := range cases {
		if got := Depth(in); got != want {
			t.Errorf("Depth(%q) = %d, want %d", in, got, want)
		}
	}
}
