package twitter

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/metrics"
)

// ErrDone is returned by Pages.Next when the query is exhausted.
var ErrDone = errors.New("no more pages")

// Pages drives one logical query through cursor pagination. It is lazy
// (nothing is fetched until Next is called), single-pass, and owned by one
// caller; re-reading from the start means calling Paginate again.
type Pages struct {
	client         *Client
	target         domain.Target
	interval       domain.DateInterval
	includeReposts bool

	next  string
	seen  map[string]struct{}
	pages int
	items int
	done  bool
}

// Paginate prepares lazy pagination for the target and interval. The
// capability check runs here so a full-archive query without the capability
// fails before any network call.
func (c *Client) Paginate(target domain.Target, interval domain.DateInterval, includeReposts bool) (*Pages, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if _, err := c.searchPath(interval); err != nil {
		return nil, err
	}
	return &Pages{
		client:         c,
		target:         target,
		interval:       interval,
		includeReposts: includeReposts,
		seen:           make(map[string]struct{}),
	}, nil
}

// Next fetches the next page of posts. It returns ErrDone when the cursor
// is exhausted. A page-level failure after earlier pages succeeded comes
// back as a *domain.TruncatedError so the caller can keep what it already
// consumed. A cursor repeating within this invocation aborts pagination
// rather than looping forever.
func (p *Pages) Next(ctx context.Context) ([]domain.Post, error) {
	if p.done {
		return nil, ErrDone
	}

	page, err := p.client.SearchPage(ctx, p.target, p.interval, p.includeReposts, p.next)
	if err != nil {
		p.done = true
		if p.pages > 0 {
			return nil, &domain.TruncatedError{PagesRead: p.pages, Posts: p.items, Err: err}
		}
		return nil, err
	}

	p.pages++
	p.items += len(page.Posts)
	metrics.PostsRetrievedTotal.Add(float64(len(page.Posts)))

	if page.NextToken == "" {
		p.done = true
		return page.Posts, nil
	}
	if _, dup := p.seen[page.NextToken]; dup {
		p.done = true
		return page.Posts, &domain.MalformedResponseError{
			Err: fmt.Errorf("pagination cursor %q repeated after page %d", page.NextToken, p.pages),
		}
	}
	p.seen[page.NextToken] = struct{}{}
	p.next = page.NextToken

	return page.Posts, nil
}

// PagesRead returns the number of pages consumed so far.
func (p *Pages) PagesRead() int { return p.pages }

// Items returns the number of posts produced so far.
func (p *Pages) Items() int { return p.items }
