package book

import "testing"

func TestStr_BlankIsNil(t *testing.T) {
	if Str("") != nil || Str("   ") != nil {
		t.Error("blank strings must map to nil")
	}
	if v := Str(" x "); v == nil || *v != "x" {
		t.Error("values should be trimmed")
	}
}

func TestFillFrom_OnlyFillsUnknown(t *testing.T) {
	m := &Metadata{Title: Str("Known")}
	m.FillFrom(&Metadata{
		Title:    Str("Other"),
		Narrator: Str("Jane Reader"),
		Genres:   []string{"Fantasy"},
	})

	if Val(m.Title) != "Known" {
		t.Errorf("known title overwritten: %q", Val(m.Title))
	}
	if Val(m.Narrator) != "Jane Reader" {
		t.Errorf("unknown narrator not filled: %q", Val(m.Narrator))
	}
	if len(m.Genres) != 1 {
		t.Errorf("unknown genres not filled: %v", m.Genres)
	}
}

func TestFillFrom_NilOtherIsNoOp(t *testing.T) {
	m := &Metadata{Title: Str("Known")}
	m.FillFrom(nil)
	if Val(m.Title) != "Known" {
		t.Error("nil source must not change anything")
	}
}

func TestSeriesAlbum(t *testing.T) {
	m := &Metadata{Series: Str("Mistborn"), Sequence: Str(" 1 ")}
	if got := m.SeriesAlbum(); got != "Mistborn #1" {
		t.Errorf("got %q", got)
	}

	m = &Metadata{Series: Str("Mistborn")}
	if got := m.SeriesAlbum(); got != "Mistborn" {
		t.Errorf("series without sequence: %q", got)
	}

	m = &Metadata{}
	if got := m.SeriesAlbum(); got != "" {
		t.Errorf("no series should render empty, got %q", got)
	}
}

func TestGroupKey_NormalizesCaseAndSpace(t *testing.T) {
	if GroupKey("J.R.R.  Tolkien", "The Hobbit") != GroupKey("j.r.r. tolkien", "the  hobbit") {
		t.Error("keys should match across case and whitespace")
	}
	if GroupKey("A", "B") == GroupKey("A", "C") {
		t.Error("different titles must not collide")
	}
}

func TestSeriesGroupKey_SequenceDistinguishesEntries(t *testing.T) {
	a := SeriesGroupKey("Author", "Mistborn", "1")
	b := SeriesGroupKey("Author", "Mistborn", "2")
	if a == b {
		t.Error("series entries with different sequences must not collide")
	}
}
