package reconciling

import (
	"strings"
	"testing"
)

func TestSanitizeDescription_StripsCodeFences(t *testing.T) {
	in := "A good book.\n```json\n{\"title\": \"x\"}\n```\nReally good."
	got := SanitizeDescription(in)
	if strings.Contains(got, "```") || strings.Contains(got, "json") {
		t.Errorf("code fence survived: %q", got)
	}
	if !strings.Contains(got, "A good book.") {
		t.Errorf("prose lost: %q", got)
	}
}

func TestSanitizeDescription_RejectsPureJSON(t *testing.T) {
	if got := SanitizeDescription(`{"description": "not prose"}`); got != "" {
		t.Errorf("expected empty result for JSON blob, got %q", got)
	}
}

func TestSanitizeDescription_DropsGeneratorChatter(t *testing.T) {
	in := "Here is a summary of the book:\nA detective solves a murder."
	got := SanitizeDescription(in)
	if strings.Contains(got, "Here is") {
		t.Errorf("generator line survived: %q", got)
	}
	if got != "A detective solves a murder." {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestSanitizeDescription_StripsHTMLAndCollapsesWhitespace(t *testing.T) {
	got := SanitizeDescription("<p>One   two</p>")
	if got != "One two" {
		t.Errorf("expected %q, got %q", "One two", got)
	}
}

func TestSanitizeDescription_KeepsPlainProse(t *testing.T) {
	in := "An epic tale of survival."
	if got := SanitizeDescription(in); got != in {
		t.Errorf("expected unchanged prose, got %q", got)
	}
}
