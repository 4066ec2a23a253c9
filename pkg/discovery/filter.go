package discovery

import (
	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/steam"
)

// DefaultSkipKeywords reject obvious non-games by name alone, before any
// remote lookup is spent on them.
var DefaultSkipKeywords = []string{
	"soundtrack", "ost", "artbook", "art book",
	" dlc", "demo", "beta", "test",
	"trailer", "wallpaper", "avatar",
	"tool", "sdk", "editor", "server",
	"content creator pack", "upgrade pack",
}

// BuildWorkQueue computes the entries still worth evaluating: the catalog
// minus the processed ledger, minus ids already tracked in the database,
// minus names matching the cheap reject heuristics. Order is preserved.
func BuildWorkQueue(catalog []steam.AppEntry, processed, tracked map[int64]struct{}, skipKeywords []string) []steam.AppEntry {
	var queue []steam.AppEntry

	for _, app := range catalog {
		if _, ok := processed[app.AppID]; ok {
			continue
		}
		if _, ok := tracked[app.AppID]; ok {
			continue
		}
		if matchesSkipKeyword(app.Name, skipKeywords) {
			continue
		}
		queue = append(queue, app)
	}

	return queue
}

func matchesSkipKeyword(name string, skipKeywords []string) bool {
	for _, kw := range skipKeywords {
		if utils.ContainsFold(name, kw) {
			return true
		}
	}
	return false
}
