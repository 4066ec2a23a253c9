// Package scoring implements the necromancy relevance heuristic: tiered
// weighted keyword matching over an app's name, description and genre tags.
package scoring

import (
	"fmt"
	"strings"
)

// Weights are the per-signal score contributions. They are tuning values, not
// behavior: callers may override any of them from configuration.
type Weights struct {
	PrimaryName   int
	PrimaryDesc   int
	SecondaryName int
	SecondaryDesc int
	GenreBonus    int
}

// DefaultWeights reflect the tuning the keyword lists were built around.
func DefaultWeights() Weights {
	return Weights{
		PrimaryName:   10,
		PrimaryDesc:   5,
		SecondaryName: 3,
		SecondaryDesc: 2,
		GenreBonus:    1,
	}
}

// Keywords holds the two confidence tiers plus the supporting genre list.
type Keywords struct {
	// Primary terms are high-confidence: a match is strong evidence on its own.
	Primary []string
	// Secondary terms are weak without context (plenty of zombies outside
	// necromancy games), hence the lower weights.
	Secondary []string
	// Genres that commonly host the theme; their presence adds one small
	// bonus no matter how many match.
	Genres []string
}

// DefaultKeywords returns the built-in keyword strategy.
func DefaultKeywords() Keywords {
	return Keywords{
		Primary: []string{
			"necromancer", "necromancy", "necromantic",
			"raise dead", "summon undead", "summon skeleton",
			"death magic", "dark magic",
		},
		Secondary: []string{
			"skeleton", "undead", "zombie", "lich", "bone",
			"corpse", "graveyard", "crypt", "tomb",
			"minion", "summoner", "summoning",
			"reanimation", "resurrection",
		},
		Genres: []string{
			"RPG", "Action RPG", "Strategy", "Indie",
			"Fantasy", "Dark Fantasy", "Action",
			"Roguelike", "Roguelite", "Card Game",
			"Turn-Based", "Tactical", "Dungeon Crawler",
		},
	}
}

// Input is the scorable slice of an app's metadata. Nil slices and empty
// strings are fine; they score as empty.
type Input struct {
	Name        string
	Description string
	Genres      []string
	Categories  []string
}

// Scorer evaluates apps against one keyword strategy. It is pure and does no
// I/O, so a single instance can be shared across a whole run.
type Scorer struct {
	keywords Keywords
	weights  Weights
}

func NewScorer(keywords Keywords, weights Weights) *Scorer {
	return &Scorer{keywords: keywords, weights: weights}
}

// Score returns the summed relevance score and the matched signals in
// evaluation order: primary terms before secondary, name before description.
// A term that matches the name is not checked against the description, so a
// single term contributes at most once.
func (s *Scorer) Score(in Input) (int, []string) {
	name := strings.ToLower(in.Name)
	desc := strings.ToLower(in.Description)

	score := 0
	var matches []string

	for _, kw := range s.keywords.Primary {
		kwLower := strings.ToLower(kw)
		if strings.Contains(name, kwLower) {
			score += s.weights.PrimaryName
			matches = append(matches, fmt.Sprintf("PRIMARY in name: '%s'", kw))
		} else if strings.Contains(desc, kwLower) {
			score += s.weights.PrimaryDesc
			matches = append(matches, fmt.Sprintf("PRIMARY in desc: '%s'", kw))
		}
	}

	for _, kw := range s.keywords.Secondary {
		kwLower := strings.ToLower(kw)
		if strings.Contains(name, kwLower) {
			score += s.weights.SecondaryName
			matches = append(matches, fmt.Sprintf("SECONDARY in name: '%s'", kw))
		} else if strings.Contains(desc, kwLower) {
			score += s.weights.SecondaryDesc
			matches = append(matches, fmt.Sprintf("SECONDARY in desc: '%s'", kw))
		}
	}

	// One bonus regardless of how many genres match.
	allGenres := strings.ToLower(strings.Join(in.Genres, " ") + " " + strings.Join(in.Categories, " "))
	for _, genre := range s.keywords.Genres {
		if strings.Contains(allGenres, strings.ToLower(genre)) {
			score += s.weights.GenreBonus
			matches = append(matches, fmt.Sprintf("Genre: %s", genre))
			break
		}
	}

	return score, matches
}
