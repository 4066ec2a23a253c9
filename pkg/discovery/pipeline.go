package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/necroscout/necroscout/pkg/scoring"
	"github.com/necroscout/necroscout/pkg/steam"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// DetailFetcher is the slice of the Steam client the pipeline needs.
type DetailFetcher interface {
	AppDetails(ctx context.Context, appID int64) (*steam.App, error)
	AppTags(ctx context.Context, appID int64) []steam.Tag
}

// Config holds everything Run needs for a single discovery pass.
type Config struct {
	Queue   []steam.AppEntry
	Details DetailFetcher
	Scorer  *scoring.Scorer
	Writer  *Writer
	Ledger  *Ledger

	// FetchTags pulls the SteamSpy tag side-channel for every evaluated game
	// and merges it into the genre set before scoring. Doubles the request
	// budget per app, so off by default.
	FetchTags bool

	ProgressEvery int    // defaults to 10 if <= 0
	Log           Logger // optional; nil = no logging
}

// Result holds the outcome of one discovery pass.
type Result struct {
	Total       int
	Processed   int // games fully evaluated (scored)
	Qualifying  int
	Persisted   int
	RateLimited int
	Errors      int
	Interrupted bool
	Elapsed     time.Duration
}

// Run evaluates the work queue one entry at a time: remote lookup, scoring,
// buffering, ledger write. One entry finishes before the next begins; the
// remote rate limit is the binding constraint, so there is nothing to gain
// from concurrency here.
//
// Cancellation is cooperative and checked between entries. Buffered
// candidates are flushed on normal completion, on cancellation, and from a
// deferred catch-all, so an unclean exit loses at most one unfinished entry.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	if cfg.Details == nil || cfg.Scorer == nil || cfg.Writer == nil || cfg.Ledger == nil {
		return nil, errors.New("discovery: incomplete pipeline configuration")
	}
	progressEvery := cfg.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 10
	}

	res := &Result{Total: len(cfg.Queue)}
	start := time.Now()

	// Catch-all: whatever path leaves this function, buffered candidates
	// reach the database. The run context may already be cancelled here, so
	// flush on a fresh one.
	flushed := false
	defer func() {
		if !flushed {
			if _, err := cfg.Writer.Flush(context.Background()); err != nil {
				log.Errorf("Final candidate flush failed: %v", err)
			}
			res.Persisted = cfg.Writer.Saved()
		}
	}()

	for i, entry := range cfg.Queue {
		if ctx.Err() != nil {
			log.Infof("Cancellation requested, stopping after %d entries", i)
			res.Interrupted = true
			break
		}

		if i > 0 && i%progressEvery == 0 {
			logProgress(log, res, i, start)
		}

		app, err := cfg.Details.AppDetails(ctx, entry.AppID)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			res.Interrupted = true
		case errors.Is(err, steam.ErrRateLimited):
			// Deliberately not recorded in the ledger: the id stays in the
			// work set for the next run.
			log.Warnf("Rate limited on %d (%s), will retry next run", entry.AppID, entry.Name)
			res.RateLimited++
			continue
		case errors.Is(err, steam.ErrNotFound):
			res.Errors++
			if lerr := cfg.Ledger.Record(entry.AppID); lerr != nil {
				return res, fmt.Errorf("ledger write for %d: %w", entry.AppID, lerr)
			}
			continue
		case err != nil:
			// Permanent from the ledger's point of view; retrying a
			// structurally broken entry forever helps nobody.
			log.Errorf("Error evaluating %d (%s): %v", entry.AppID, entry.Name, err)
			res.Errors++
			if lerr := cfg.Ledger.Record(entry.AppID); lerr != nil {
				return res, fmt.Errorf("ledger write for %d: %w", entry.AppID, lerr)
			}
			continue
		}
		if res.Interrupted {
			break
		}

		// Non-games (DLC, soundtracks that slipped the name filter) are
		// terminal: record and move on.
		if app.Type != "game" {
			if lerr := cfg.Ledger.Record(entry.AppID); lerr != nil {
				return res, fmt.Errorf("ledger write for %d: %w", entry.AppID, lerr)
			}
			continue
		}

		categories := app.Categories
		if cfg.FetchTags {
			for _, tag := range cfg.Details.AppTags(ctx, entry.AppID) {
				categories = append(categories, tag.Name)
			}
		}

		score, matches := cfg.Scorer.Score(scoring.Input{
			Name:        app.Name,
			Description: app.ShortDescription,
			Genres:      app.Genres,
			Categories:  categories,
		})

		added, err := cfg.Writer.AddIfQualifying(ctx, ScoredCandidate{
			AppID:       app.AppID,
			Name:        app.Name,
			Score:       score,
			Matches:     matches,
			Description: app.ShortDescription,
			Genres:      app.Genres,
			PriceUSD:    app.PriceUSD,
		})
		if err != nil {
			// The candidate is still buffered; skip the ledger write so the
			// app is re-evaluated if this run dies before the next flush.
			log.Errorf("Buffering candidate %d failed: %v", app.AppID, err)
			res.Errors++
			continue
		}
		if added {
			res.Qualifying++
			log.Infof("  CANDIDATE (%d): %s", score, app.Name)
		}

		if lerr := cfg.Ledger.Record(entry.AppID); lerr != nil {
			return res, fmt.Errorf("ledger write for %d: %w", entry.AppID, lerr)
		}
		res.Processed++
	}

	if _, err := cfg.Writer.Flush(context.Background()); err != nil {
		log.Errorf("Candidate flush failed: %v", err)
	}
	flushed = true
	res.Persisted = cfg.Writer.Saved()
	res.Elapsed = time.Since(start)

	return res, nil
}

func logProgress(log Logger, res *Result, done int, start time.Time) {
	elapsed := time.Since(start)
	rate := float64(done) / elapsed.Seconds()

	eta := "?"
	if rate > 0 {
		remaining := time.Duration(float64(res.Total-done)/rate) * time.Second
		eta = remaining.Round(time.Minute).String()
	}

	log.Infof("Progress: %d/%d (%.1f%%) | Candidates: %d | Rate limited: %d | Rate: %.2f/s | ETA: %s",
		done, res.Total, float64(done)/float64(res.Total)*100,
		res.Qualifying, res.RateLimited, rate, eta)
}
