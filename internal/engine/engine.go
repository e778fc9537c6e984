// Package engine composes the throttled paginator and the sentiment scorer
// into the single-target retrieval operations.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/twitter"
)

// Pager yields pages of posts until twitter.ErrDone.
type Pager interface {
	Next(ctx context.Context) ([]domain.Post, error)
}

// API is the slice of the search client the engine needs.
type API interface {
	Paginate(target domain.Target, interval domain.DateInterval, includeReposts bool) (Pager, error)
	CountPosts(ctx context.Context, target domain.Target, interval domain.DateInterval) (int, error)
}

// clientAPI adapts *twitter.Client to the API interface.
type clientAPI struct {
	c *twitter.Client
}

func (a clientAPI) Paginate(target domain.Target, interval domain.DateInterval, includeReposts bool) (Pager, error) {
	pages, err := a.c.Paginate(target, interval, includeReposts)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (a clientAPI) CountPosts(ctx context.Context, target domain.Target, interval domain.DateInterval) (int, error) {
	return a.c.CountPosts(ctx, target, interval)
}

// Engine runs single-target retrieval operations over one (target, interval)
// pair. Failures are always surfaced: an empty result carries a nil error, a
// failure never comes back as an empty success.
type Engine struct {
	api    API
	scorer domain.Scorer
	log    *slog.Logger
}

// New creates an engine over any API implementation.
func New(api API, scorer domain.Scorer, log *slog.Logger) *Engine {
	return &Engine{api: api, scorer: scorer, log: log}
}

// NewWithClient wires the engine to the concrete search client.
func NewWithClient(c *twitter.Client, scorer domain.Scorer, log *slog.Logger) *Engine {
	return New(clientAPI{c: c}, scorer, log)
}

// FetchPosts retrieves all posts for the target inside the interval, in the
// API's reverse-chronological order. Reposts are dropped unless
// includeReposts is set. Every returned post carries a sentiment score,
// annotated exactly once. On mid-pagination truncation the posts already
// retrieved are returned together with the truncation error.
func (e *Engine) FetchPosts(ctx context.Context, target domain.Target, interval domain.DateInterval, includeReposts bool) ([]domain.Post, error) {
	pager, err := e.api.Paginate(target, interval, includeReposts)
	if err != nil {
		return nil, err
	}

	var posts []domain.Post
	for {
		if err := ctx.Err(); err != nil {
			return posts, err
		}

		page, err := pager.Next(ctx)
		posts = append(posts, e.annotate(page, includeReposts)...)
		if err != nil {
			if errors.Is(err, twitter.ErrDone) {
				return posts, nil
			}
			e.log.Warn("pagination stopped early",
				"target", target.String(), "interval", interval.String(), "error", err)
			return posts, err
		}
	}
}

// FetchContents retrieves posts including reposts, always with text and
// sentiment. Used by batch content queries.
func (e *Engine) FetchContents(ctx context.Context, target domain.Target, interval domain.DateInterval) ([]domain.Post, error) {
	return e.FetchPosts(ctx, target, interval, true)
}

// CountPosts counts posts for the target inside the interval. The dedicated
// counts endpoint is preferred; when the access tier does not expose it the
// count falls back to full pagination, producing the same value.
func (e *Engine) CountPosts(ctx context.Context, target domain.Target, interval domain.DateInterval) (int, error) {
	n, err := e.api.CountPosts(ctx, target, interval)
	if err == nil {
		return n, nil
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) &&
		(upstream.StatusCode == http.StatusNotFound || upstream.StatusCode == http.StatusForbidden) {
		e.log.Debug("counts endpoint unavailable, counting via pagination",
			"target", target.String(), "status", upstream.StatusCode)
		posts, err := e.FetchPosts(ctx, target, interval, true)
		if err != nil {
			return 0, err
		}
		return len(posts), nil
	}

	return 0, err
}

// annotate scores each post once and applies the repost filter. Order is
// preserved; the API already returns reverse-chronological pages.
func (e *Engine) annotate(page []domain.Post, includeReposts bool) []domain.Post {
	out := make([]domain.Post, 0, len(page))
	for _, p := range page {
		if p.IsRepost && !includeReposts {
			continue
		}
		score := e.scorer.Score(p.Text)
		p.Sentiment = &score
		out = append(out, p)
	}
	return out
}
