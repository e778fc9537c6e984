package domain

import (
	"fmt"
	"time"
)

// TargetKind selects how a retrieval query is scoped.
type TargetKind string

const (
	// TargetAccount scopes a query to posts authored by one account.
	TargetAccount TargetKind = "account"
	// TargetKeyword scopes a query to posts matching a free-text keyword.
	TargetKeyword TargetKind = "keyword"
)

// Target identifies what a retrieval operation queries: exactly one of an
// account username or a free-text keyword.
type Target struct {
	Kind  TargetKind
	Value string
}

// AccountTarget returns a target scoped to posts from the given username.
func AccountTarget(username string) Target {
	return Target{Kind: TargetAccount, Value: username}
}

// KeywordTarget returns a target scoped to posts matching the keyword.
func KeywordTarget(keyword string) Target {
	return Target{Kind: TargetKeyword, Value: keyword}
}

// Validate checks that exactly one target kind is set and non-empty.
func (t Target) Validate() error {
	if t.Value == "" {
		return fmt.Errorf("%w: empty target value", ErrInvalidSelector)
	}
	switch t.Kind {
	case TargetAccount, TargetKeyword:
		return nil
	}
	return fmt.Errorf("%w: unknown target kind %q", ErrInvalidSelector, t.Kind)
}

func (t Target) String() string {
	if t.Kind == TargetAccount {
		return "@" + t.Value
	}
	return t.Value
}

// DateInterval is a half-open range [Start, End). Start and End are UTC
// instants; Start <= End always holds for validated intervals.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// NewDateInterval validates and returns a half-open interval.
func NewDateInterval(start, end time.Time) (DateInterval, error) {
	if start.After(end) {
		return DateInterval{}, fmt.Errorf("%w: start %s after end %s",
			ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return DateInterval{Start: start.UTC(), End: end.UTC()}, nil
}

// Contains reports whether t falls inside the half-open interval.
func (i DateInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns End - Start.
func (i DateInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i DateInterval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// Post is one retrieved social-media post. Immutable once fetched;
// Sentiment is nil until the annotator has run.
type Post struct {
	ID        string
	AuthorID  string
	Username  string
	Target    Target
	Text      string
	CreatedAt time.Time
	IsRepost  bool
	Sentiment *float64
}

// Account maps a normalized company name to a platform account.
type Account struct {
	CompanyNormalized string
	AccountID         string
	Username          string
	Name              string
	Verified          bool
}

// BatchRow is one unit of batch work. Created when the batch input is
// loaded and never mutated afterwards; outcomes are recorded separately.
type BatchRow struct {
	Company  string
	Target   Target
	Anchor   time.Time
	Interval *DateInterval // set instead of Anchor for explicit-interval rows
}

// RowStatus classifies the outcome of one batch row.
type RowStatus string

const (
	RowOK      RowStatus = "ok"
	RowPartial RowStatus = "partial"
	RowFailed  RowStatus = "failed"
)

// RowResult pairs a batch row with its retrieval outcome. For count
// operations Count is set; for content operations Posts is set. Err is
// non-nil for failed and partial rows.
type RowResult struct {
	Row      BatchRow
	Interval DateInterval
	Status   RowStatus
	Count    int
	DayCount int
	Posts    []Post
	Err      error
}
