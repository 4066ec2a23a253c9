package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/necroscout/necroscout/pkg/scoring"
	"github.com/necroscout/necroscout/pkg/steam"
)

// fakeFetcher serves scripted per-id outcomes and can trigger a cancellation
// after a fixed number of lookups.
type fakeFetcher struct {
	apps        map[int64]*steam.App
	errs        map[int64]error
	tags        map[int64][]steam.Tag
	calls       int
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fakeFetcher) AppDetails(ctx context.Context, appID int64) (*steam.App, error) {
	f.calls++
	if f.cancel != nil && f.calls >= f.cancelAfter {
		f.cancel()
	}
	if err, ok := f.errs[appID]; ok {
		return nil, err
	}
	if app, ok := f.apps[appID]; ok {
		return app, nil
	}
	return nil, steam.ErrNotFound
}

func (f *fakeFetcher) AppTags(ctx context.Context, appID int64) []steam.Tag {
	return f.tags[appID]
}

func game(id int64, name, desc string) *steam.App {
	return &steam.App{AppID: id, Name: name, Type: "game", ShortDescription: desc}
}

func runPipeline(t *testing.T, queue []steam.AppEntry, fetcher *fakeFetcher, store *fakeStore, ctx context.Context) (*Result, *Ledger) {
	t.Helper()

	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.txt"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ledger.Close() })

	res, err := Run(ctx, Config{
		Queue:   queue,
		Details: fetcher,
		Scorer:  scoring.NewScorer(scoring.DefaultKeywords(), scoring.DefaultWeights()),
		Writer:  NewWriter(store, "auto_discovery", 5, 10),
		Ledger:  ledger,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res, ledger
}

func ledgerIDs(t *testing.T, l *Ledger) map[int64]struct{} {
	t.Helper()
	ids, err := l.Load()
	if err != nil {
		t.Fatalf("ledger load: %v", err)
	}
	return ids
}

func TestRun_ScoresAndPersists(t *testing.T) {
	queue := []steam.AppEntry{
		{AppID: 1, Name: "Bone Lich RPG"},
		{AppID: 2, Name: "Puzzle Garden"},
		{AppID: 3, Name: "Necromancer's Rise"},
	}
	fetcher := &fakeFetcher{apps: map[int64]*steam.App{
		1: game(1, "Bone Lich RPG", "Raise dead in the crypt."),
		2: game(2, "Puzzle Garden", "Match colors."),
		3: game(3, "Necromancer's Rise", "Become a necromancer."),
	}}
	store := newFakeStore()

	res, ledger := runPipeline(t, queue, fetcher, store, context.Background())

	if res.Processed != 3 || res.Qualifying != 2 || res.Persisted != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("expected 2 durable candidates, got %d", len(store.inserted))
	}

	ids := ledgerIDs(t, ledger)
	for _, id := range []int64{1, 2, 3} {
		if _, ok := ids[id]; !ok {
			t.Fatalf("ledger missing id %d", id)
		}
	}
}

func TestRun_RateLimitedNotRecorded(t *testing.T) {
	queue := []steam.AppEntry{
		{AppID: 5, Name: "Throttled Game"},
		{AppID: 6, Name: "Necromancer Quest"},
	}
	fetcher := &fakeFetcher{
		apps: map[int64]*steam.App{6: game(6, "Necromancer Quest", "")},
		errs: map[int64]error{5: steam.ErrRateLimited},
	}
	store := newFakeStore()

	res, ledger := runPipeline(t, queue, fetcher, store, context.Background())

	if res.RateLimited != 1 {
		t.Fatalf("expected 1 rate-limited entry, got %d", res.RateLimited)
	}

	ids := ledgerIDs(t, ledger)
	if _, ok := ids[5]; ok {
		t.Fatal("rate-limited id must stay out of the ledger")
	}
	if _, ok := ids[6]; !ok {
		t.Fatal("evaluated id missing from ledger")
	}

	// The next run's work queue must still include the throttled id.
	next := BuildWorkQueue(queue, ids, nil, nil)
	if len(next) != 1 || next[0].AppID != 5 {
		t.Fatalf("expected id 5 to stay eligible, got %v", next)
	}
}

func TestRun_PermanentFailuresRecorded(t *testing.T) {
	queue := []steam.AppEntry{
		{AppID: 7, Name: "Gone Game"},
		{AppID: 8, Name: "Broken Game"},
	}
	fetcher := &fakeFetcher{errs: map[int64]error{
		7: steam.ErrNotFound,
		8: errors.New("malformed response"),
	}}
	store := newFakeStore()

	res, ledger := runPipeline(t, queue, fetcher, store, context.Background())

	if res.Errors != 2 {
		t.Fatalf("expected 2 errors, got %d", res.Errors)
	}

	ids := ledgerIDs(t, ledger)
	if len(ids) != 2 {
		t.Fatalf("permanent failures must be recorded, got %v", ids)
	}
}

func TestRun_NonGameRecordedNotScored(t *testing.T) {
	queue := []steam.AppEntry{{AppID: 9, Name: "Necromancer OST"}}
	fetcher := &fakeFetcher{apps: map[int64]*steam.App{
		9: {AppID: 9, Name: "Necromancer OST", Type: "music"},
	}}
	store := newFakeStore()

	res, ledger := runPipeline(t, queue, fetcher, store, context.Background())

	if res.Processed != 0 || res.Qualifying != 0 {
		t.Fatalf("non-game must not be scored: %+v", res)
	}
	if _, ok := ledgerIDs(t, ledger)[9]; !ok {
		t.Fatal("non-game outcome is terminal and must be recorded")
	}
}

func TestRun_CancellationFlushesBuffer(t *testing.T) {
	// 1000 entries, every 15th one qualifies; cancel after 50 lookups with 3
	// qualifying candidates buffered (batch size 10, so none flushed yet).
	var queue []steam.AppEntry
	apps := make(map[int64]*steam.App)
	for i := int64(1); i <= 1000; i++ {
		name := fmt.Sprintf("Game %d", i)
		if i%15 == 0 {
			name = fmt.Sprintf("Necromancer %d", i)
		}
		queue = append(queue, steam.AppEntry{AppID: i, Name: name})
		apps[i] = game(i, name, "")
	}

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{apps: apps, cancelAfter: 50, cancel: cancel}
	store := newFakeStore()

	res, ledger := runPipeline(t, queue, fetcher, store, ctx)

	if !res.Interrupted {
		t.Fatal("expected interrupted result")
	}
	if res.Processed != 50 {
		t.Fatalf("expected exactly 50 evaluated entries, got %d", res.Processed)
	}
	if len(store.inserted) != 3 {
		t.Fatalf("buffered candidates must be flushed on cancellation, got %d durable", len(store.inserted))
	}
	if got := len(ledgerIDs(t, ledger)); got != 50 {
		t.Fatalf("ledger must hold exactly the 50 evaluated ids, got %d", got)
	}
}

func TestRun_IncompleteConfig(t *testing.T) {
	if _, err := Run(context.Background(), Config{}); err == nil {
		t.Fatal("expected setup error for empty config")
	}
}

func TestRun_TagsMergedIntoScoring(t *testing.T) {
	queue := []steam.AppEntry{{AppID: 11, Name: "Moody Dungeon"}}
	fetcher := &fakeFetcher{
		apps: map[int64]*steam.App{11: game(11, "Moody Dungeon", "")},
		tags: map[int64][]steam.Tag{11: {{Name: "Dark Fantasy", Votes: 120}}},
	}
	store := newFakeStore()

	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()

	res, err := Run(context.Background(), Config{
		Queue:     queue,
		Details:   fetcher,
		Scorer:    scoring.NewScorer(scoring.DefaultKeywords(), scoring.DefaultWeights()),
		Writer:    NewWriter(store, "auto_discovery", 1, 10),
		Ledger:    ledger,
		FetchTags: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	// The genre bonus from the tag side-channel is the only signal here.
	if res.Qualifying != 1 {
		t.Fatalf("expected tag-driven genre bonus to qualify the app: %+v", res)
	}
}
