package domain

import (
	"context"
	"time"
)

// SearchPage is one page of raw post records plus the cursor for the next
// page. An empty NextToken means pagination is exhausted.
type SearchPage struct {
	Posts     []Post
	NextToken string
}

// SearchAPI is the external search collaborator. Recent and full-archive
// search share the same page shape; CountPosts hits the dedicated counts
// endpoint when the platform provides one.
type SearchAPI interface {
	SearchPage(ctx context.Context, target Target, interval DateInterval, includeReposts bool, nextToken string) (SearchPage, error)
	CountPosts(ctx context.Context, target Target, interval DateInterval) (int, error)
	LookupUser(ctx context.Context, username string) (Account, error)
}

// Scorer attaches a signed sentiment score to post text. Pure: no network,
// no state.
type Scorer interface {
	Score(text string) float64
}

// AccountResolver turns a company name into a platform account.
type AccountResolver interface {
	Resolve(ctx context.Context, companyName string) (Account, error)
}

// WindowSelector picks one way of producing a date interval. Exactly one
// field group may be set; see window.Resolve.
type WindowSelector struct {
	Start  *time.Time
	End    *time.Time
	Preset string
	Recent string
	Anchor *time.Time
	Radius int // days; 0 means the default radius
}
