package printview

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cvcraft/internal/testutil"
)

func TestRender_Content(t *testing.T) {
	doc := testutil.SampleDocument()
	doc.Sections[0].Entries[0].Description = "<script>alert(1)</script>"

	out, err := Render(doc, nil, "#123456")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"Jane Roe",
		"--theme-color: #123456",
		`class="personal-info-section"`,
		`data-section-id="work"`,
		`data-section-id="skills"`,
		"Spanish",
		`data-level="3"`,
		"&lt;script&gt;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("entry text was not escaped")
	}
	if n := strings.Count(html, `class="cv-page-section"`); n != 3 {
		t.Errorf("sections rendered = %d, want 3", n)
	}
	if strings.Contains(html, `class="page-break"`) {
		t.Error("unexpected page break")
	}
}

func TestRender_Breaks(t *testing.T) {
	out, err := Render(testutil.SampleDocument(), []int{1, 2}, DefaultThemeColor)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if n := strings.Count(html, `class="page-break"`); n != 2 {
		t.Fatalf("page breaks = %d, want 2", n)
	}
	brk := strings.Index(html, `data-before="1"`)
	edu := strings.Index(html, `data-section-id="edu"`)
	if brk < 0 || edu < brk {
		t.Error("break 1 should precede the second section")
	}
}

func TestRender_SkillColumns(t *testing.T) {
	out, err := Render(testutil.SampleDocument(), nil, DefaultThemeColor)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	langs := html[strings.Index(html, `class="languages"`):strings.Index(html, `class="pc-skills"`)]
	if !strings.Contains(langs, "German") || strings.Contains(langs, "SQL") {
		t.Errorf("language column = %q", langs)
	}
}

func TestRender_InvalidThemeFallsBack(t *testing.T) {
	out, err := Render(testutil.SampleDocument(), nil, "red; background:url(x)")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "--theme-color: "+DefaultThemeColor) {
		t.Error("invalid theme was not replaced")
	}
}

func TestValidThemeColor(t *testing.T) {
	for c, want := range map[string]bool{
		"#9C1C38": true,
		"#abcdef": true,
		"9C1C38":  false,
		"#abc":    false,
		"#GGGGGG": false,
		"":        false,
	} {
		if got := ValidThemeColor(c); got != want {
			t.Errorf("ValidThemeColor(%q) = %v", c, got)
		}
	}
}

func TestThemeColorRule(t *testing.T) {
	if err := validation.Validate("#12ab9F", ThemeColorRule); err != nil {
		t.Errorf("valid colour rejected: %v", err)
	}
	err := validation.Validate("crimson", ThemeColorRule)
	if err == nil || err.Error() != "must be a #RRGGBB colour" {
		t.Errorf("err = %v, want colour format error", err)
	}
}
