package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/storage"
)

// CandidateStore is the slice of durable storage the writer needs: a
// per-id existence check and an insert.
type CandidateStore interface {
	CandidateExists(ctx context.Context, appID int64) (bool, error)
	InsertCandidate(ctx context.Context, c storage.Candidate) error
}

// ScoredCandidate is a scored app that met the promotion threshold, buffered
// until the next flush.
type ScoredCandidate struct {
	AppID       int64
	Name        string
	Score       int
	Matches     []string
	Description string
	Genres      []string
	PriceUSD    *float64
}

// Writer buffers qualifying candidates and flushes them to the store in
// fixed-size batches, so memory stays bounded over a multi-hour run and an
// unclean shutdown can lose at most one batch.
type Writer struct {
	store     CandidateStore
	source    string
	minScore  int
	batchSize int

	buf   []ScoredCandidate
	saved int
}

func NewWriter(store CandidateStore, source string, minScore, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Writer{
		store:     store,
		source:    source,
		minScore:  minScore,
		batchSize: batchSize,
	}
}

// AddIfQualifying buffers c when its score meets the threshold, flushing
// automatically once the buffer is full. Returns whether c qualified.
func (w *Writer) AddIfQualifying(ctx context.Context, c ScoredCandidate) (bool, error) {
	if c.Score < w.minScore {
		return false, nil
	}

	w.buf = append(w.buf, c)
	if len(w.buf) >= w.batchSize {
		if _, err := w.Flush(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Flush writes every buffered candidate, skipping ids the store already
// holds, so flushing the same or overlapping batches twice never duplicates
// a record. Each row is written independently; rows that fail stay buffered
// for the next flush and the first error is returned.
func (w *Writer) Flush(ctx context.Context) (int, error) {
	if len(w.buf) == 0 {
		return 0, nil
	}

	saved := 0
	var retained []ScoredCandidate
	var firstErr error

	for _, c := range w.buf {
		exists, err := w.store.CandidateExists(ctx, c.AppID)
		if err != nil {
			retained = append(retained, c)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if exists {
			continue
		}

		err = w.store.InsertCandidate(ctx, storage.Candidate{
			AppID:         c.AppID,
			Name:          c.Name,
			Source:        w.source,
			Justification: w.justification(c),
			Status:        "pending",
		})
		if err != nil {
			retained = append(retained, c)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}

	w.buf = retained
	w.saved += saved
	if saved > 0 {
		utils.Log.Infof("Saved %d candidates to database", saved)
	}
	return saved, firstErr
}

// Pending reports how many candidates are buffered but not yet durable.
func (w *Writer) Pending() int { return len(w.buf) }

// Saved reports how many candidates this writer has persisted in total.
func (w *Writer) Saved() int { return w.saved }

func (w *Writer) justification(c ScoredCandidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Score: %d\n", c.Score)
	topMatches := c.Matches
	if len(topMatches) > 5 {
		topMatches = topMatches[:5]
	}
	fmt.Fprintf(&b, "Matches: %s\n\n", strings.Join(topMatches, ", "))
	fmt.Fprintf(&b, "Description: %s\n\n", utils.Truncate(c.Description, 200))
	fmt.Fprintf(&b, "Genres: %s\n", strings.Join(c.Genres, ", "))

	if c.PriceUSD != nil {
		if *c.PriceUSD > 0 {
			fmt.Fprintf(&b, "Price: $%.2f", *c.PriceUSD)
		} else {
			b.WriteString("Price: Free")
		}
	}

	return b.String()
}
