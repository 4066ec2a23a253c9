package storage

import "time"

// Candidate is a durable discovery result awaiting human review.
type Candidate struct {
	AppID         int64
	Name          string
	Source        string // e.g. "auto_discovery", "keyword_search"
	Justification string
	Status        string // pending | approved | rejected | skipped
	SubmittedAt   time.Time
}

// Stats summarizes the database for the stats command.
type Stats struct {
	TrackedGames      int
	TotalCandidates   int
	PendingCandidates int
	AutoDiscovered    int
}
