package files

import (
	"strings"
	"testing"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

func parserWithTemplate(template string) *TemplatePathParser {
	return NewTemplatePathParser(config.NewManager(&config.Config{
		Rename: config.Rename{Template: template},
	}))
}

func TestRenderFilename_SeriesTemplate(t *testing.T) {
	p := parserWithTemplate(`%if{$series,%asciify{$series} #$sequence - }%asciify{$title}`)
	md := &book.Metadata{
		Title:    book.Str("The Final Empire"),
		Series:   book.Str("Mistborn"),
		Sequence: book.Str("1"),
	}

	got, err := p.RenderFilename(md)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Mistborn #1 - The Final Empire" {
		t.Errorf("got %q", got)
	}
}

func TestRenderFilename_NoSeriesFallsToTitle(t *testing.T) {
	p := parserWithTemplate(`%if{$series,%asciify{$series} #$sequence - }%asciify{$title}`)
	md := &book.Metadata{Title: book.Str("The Martian")}

	got, err := p.RenderFilename(md)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "The Martian" {
		t.Errorf("got %q", got)
	}
}

func TestRenderFilename_AsciifyTransliterates(t *testing.T) {
	p := parserWithTemplate(`%asciify{$title}`)
	md := &book.Metadata{Title: book.Str("Pérez à Tokyo")}

	got, err := p.RenderFilename(md)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Perez a Tokyo" {
		t.Errorf("got %q", got)
	}
}

func TestRenderFilename_IfElseBranch(t *testing.T) {
	p := parserWithTemplate(`%if{$narrator,$narrator,unknown}`)
	md := &book.Metadata{}

	got, err := p.RenderFilename(md)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "unknown" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeComponent(t *testing.T) {
	got := SanitizeComponent(`What If?: Serious * Answers <to> "Questions"`)
	for _, bad := range []string{"/", "\\", "*", "?", "<", ">", "\""} {
		if strings.Contains(got, bad) {
			t.Errorf("sanitized value %q still contains %q", got, bad)
		}
	}
}
