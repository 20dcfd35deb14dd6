package reconciling

import (
	"reflect"
	"testing"

	"tomekeeper/src/features/config"
)

func TestNormalizeGenres_FoldsAliases(t *testing.T) {
	policy := config.Genres{
		Enforcement: true,
		Approved:    []string{"Science Fiction", "Fantasy"},
		Aliases: map[string][]string{
			"sci-fi": {"Science Fiction"},
			"sff":    {"Science Fiction", "Fantasy"},
		},
	}

	got := NormalizeGenres([]string{"Sci-Fi", "SFF", "Polka"}, policy)
	want := []string{"Science Fiction", "Fantasy"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeGenres_CaseInsensitiveApprovedMatch(t *testing.T) {
	policy := config.Genres{
		Enforcement: true,
		Approved:    []string{"Mystery"},
	}

	got := NormalizeGenres([]string{"mystery", "MYSTERY"}, policy)
	if len(got) != 1 || got[0] != "Mystery" {
		t.Errorf("expected canonical [Mystery], got %v", got)
	}
}

func TestNormalizeGenres_PassthroughWithoutEnforcement(t *testing.T) {
	policy := config.Genres{Enforcement: false}

	got := NormalizeGenres([]string{"Polka", " Polka ", "Jazz"}, policy)
	want := []string{"Polka", "Jazz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeGenres_CapLimitsOutput(t *testing.T) {
	policy := config.Genres{Cap: 2}

	got := NormalizeGenres([]string{"A", "B", "C", "D"}, policy)
	if len(got) != 2 {
		t.Errorf("expected 2 genres, got %v", got)
	}
}

func TestNormalizeGenres_ZeroCapMeansUncapped(t *testing.T) {
	policy := config.Genres{Cap: 0}

	got := NormalizeGenres([]string{"A", "B", "C", "D"}, policy)
	if len(got) != 4 {
		t.Errorf("expected all genres kept, got %v", got)
	}
}

func TestNormalizeGenres_AmpersandMatchesAnd(t *testing.T) {
	policy := config.Genres{
		Enforcement: true,
		Approved:    []string{"Mystery and Thriller"},
	}

	got := NormalizeGenres([]string{"Mystery & Thriller"}, policy)
	if len(got) != 1 || got[0] != "Mystery and Thriller" {
		t.Errorf("expected [Mystery and Thriller], got %v", got)
	}
}
