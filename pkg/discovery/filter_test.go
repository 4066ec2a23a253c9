package discovery

import (
	"testing"

	"github.com/necroscout/necroscout/pkg/steam"
)

func TestBuildWorkQueue_ExcludesProcessedAndTracked(t *testing.T) {
	catalog := []steam.AppEntry{
		{AppID: 1, Name: "One"},
		{AppID: 2, Name: "Two"},
		{AppID: 3, Name: "Three"},
		{AppID: 4, Name: "Four"},
	}
	processed := map[int64]struct{}{2: {}}
	tracked := map[int64]struct{}{3: {}}

	queue := BuildWorkQueue(catalog, processed, tracked, nil)
	if len(queue) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(queue), queue)
	}
	if queue[0].AppID != 1 || queue[1].AppID != 4 {
		t.Fatalf("wrong entries or order: %v", queue)
	}
}

func TestBuildWorkQueue_SkipKeywords(t *testing.T) {
	catalog := []steam.AppEntry{
		{AppID: 1, Name: "Necromancer Saga"},
		{AppID: 2, Name: "Necromancer Saga Soundtrack"},
		{AppID: 3, Name: "Necromancer Saga - Expansion DLC"},
		{AppID: 4, Name: "Dedicated Server Tool"},
	}

	queue := BuildWorkQueue(catalog, nil, nil, DefaultSkipKeywords)
	if len(queue) != 1 || queue[0].AppID != 1 {
		t.Fatalf("expected only the base game, got %v", queue)
	}
}

func TestBuildWorkQueue_SkipKeywordsCaseInsensitive(t *testing.T) {
	catalog := []steam.AppEntry{
		{AppID: 1, Name: "Epic Game SOUNDTRACK"},
	}

	queue := BuildWorkQueue(catalog, nil, nil, DefaultSkipKeywords)
	if len(queue) != 0 {
		t.Fatalf("expected uppercase soundtrack to be skipped, got %v", queue)
	}
}

func TestBuildWorkQueue_EmptyCatalog(t *testing.T) {
	queue := BuildWorkQueue(nil, map[int64]struct{}{1: {}}, nil, DefaultSkipKeywords)
	if len(queue) != 0 {
		t.Fatalf("expected empty queue, got %v", queue)
	}
}
