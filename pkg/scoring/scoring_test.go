package scoring

import (
	"reflect"
	"strings"
	"testing"
)

func defaultScorer() *Scorer {
	return NewScorer(DefaultKeywords(), DefaultWeights())
}

func TestScore_PrimaryInName(t *testing.T) {
	s := defaultScorer()

	score, matches := s.Score(Input{Name: "Necromancer's Rise"})
	if score != 10 {
		t.Fatalf("expected score 10, got %d", score)
	}
	if len(matches) != 1 || !strings.Contains(matches[0], "PRIMARY in name") {
		t.Fatalf("expected one primary-in-name match, got %v", matches)
	}
}

func TestScore_NameBeforeDescription(t *testing.T) {
	s := defaultScorer()

	// The same term in both name and description must contribute only the
	// name weight.
	score, matches := s.Score(Input{
		Name:        "Necromancer Simulator",
		Description: "Play as a necromancer.",
	})
	if score != 10 {
		t.Fatalf("expected score 10 (name match only), got %d", score)
	}
	if len(matches) != 1 {
		t.Fatalf("expected a single match, got %v", matches)
	}
}

func TestScore_GenreBonusCountedOnce(t *testing.T) {
	s := defaultScorer()

	score, matches := s.Score(Input{
		Name:   "Bland Game",
		Genres: []string{"RPG", "Strategy", "Roguelike"},
	})
	if score != 1 {
		t.Fatalf("expected genre bonus of exactly 1, got %d", score)
	}
	if len(matches) != 1 || !strings.HasPrefix(matches[0], "Genre:") {
		t.Fatalf("expected single genre match, got %v", matches)
	}
}

func TestScore_CategoriesCountForGenreBonus(t *testing.T) {
	s := defaultScorer()

	score, _ := s.Score(Input{
		Name:       "Bland Game",
		Categories: []string{"Dungeon Crawler"},
	})
	if score != 1 {
		t.Fatalf("expected genre bonus from category, got %d", score)
	}
}

func TestScore_EmptyMetadata(t *testing.T) {
	s := defaultScorer()

	score, matches := s.Score(Input{})
	if score != 0 || matches != nil {
		t.Fatalf("expected zero score and no matches, got %d %v", score, matches)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := defaultScorer()
	in := Input{
		Name:        "Bone Lich RPG",
		Description: "Raise dead in the crypt and command your undead army.",
		Genres:      []string{"RPG"},
	}

	score1, matches1 := s.Score(in)
	score2, matches2 := s.Score(in)
	if score1 != score2 || !reflect.DeepEqual(matches1, matches2) {
		t.Fatalf("scoring not deterministic: (%d, %v) vs (%d, %v)", score1, matches1, score2, matches2)
	}
}

func TestScore_MonotonicOnAddedKeyword(t *testing.T) {
	s := defaultScorer()

	base := Input{
		Name:        "Dungeon Game",
		Description: "Explore the crypt.",
	}
	richer := base
	richer.Description = base.Description + " Master necromancy."

	baseScore, _ := s.Score(base)
	richerScore, _ := s.Score(richer)
	if richerScore <= baseScore {
		t.Fatalf("adding a primary keyword must not lower the score: %d -> %d", baseScore, richerScore)
	}
}

func TestScore_EvaluationOrder(t *testing.T) {
	s := defaultScorer()

	_, matches := s.Score(Input{
		Name:        "Skeleton King",
		Description: "A necromancer raises an undead horde.",
		Genres:      []string{"Strategy"},
	})

	// Primary terms come before secondary terms, which come before the genre
	// bonus, regardless of weight.
	var kinds []string
	for _, m := range matches {
		switch {
		case strings.HasPrefix(m, "PRIMARY"):
			kinds = append(kinds, "primary")
		case strings.HasPrefix(m, "SECONDARY"):
			kinds = append(kinds, "secondary")
		default:
			kinds = append(kinds, "genre")
		}
	}

	sawSecondary, sawGenre := false, false
	for _, k := range kinds {
		switch k {
		case "primary":
			if sawSecondary || sawGenre {
				t.Fatalf("primary match after secondary/genre: %v", matches)
			}
		case "secondary":
			sawSecondary = true
			if sawGenre {
				t.Fatalf("secondary match after genre: %v", matches)
			}
		case "genre":
			sawGenre = true
		}
	}
	if !sawSecondary || !sawGenre {
		t.Fatalf("expected secondary and genre matches, got %v", matches)
	}
}

func TestScore_KnownCatalogSample(t *testing.T) {
	s := defaultScorer()

	cases := []struct {
		name string
		in   Input
		min  int
		max  int
	}{
		{
			name: "lich game qualifies",
			in: Input{
				Name:        "Bone Lich RPG",
				Description: "Raise dead in the crypt.",
			},
			min: 10, max: 100,
		},
		{
			name: "puzzle game scores zero",
			in: Input{
				Name:        "Puzzle Garden",
				Description: "Match colors.",
			},
			min: 0, max: 0,
		},
		{
			name: "necromancer in name qualifies",
			in: Input{
				Name:        "Necromancer's Rise",
				Description: "Become a necromancer.",
			},
			min: 10, max: 100,
		},
	}

	for _, tc := range cases {
		score, _ := s.Score(tc.in)
		if score < tc.min || score > tc.max {
			t.Errorf("%s: score %d outside [%d, %d]", tc.name, score, tc.min, tc.max)
		}
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	s := NewScorer(Keywords{Primary: []string{"NECROMANCER"}}, DefaultWeights())

	score, _ := s.Score(Input{Name: "necromancer saga"})
	if score != 10 {
		t.Fatalf("expected case-insensitive match, got score %d", score)
	}
}
