// Package batch iterates the retrieval engine over many (company, anchor)
// rows with per-row fault isolation: one bad row never aborts the run.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/metrics"
	"github.com/lk479o000/twitter-crawler-app/internal/window"
)

// Retriever is the slice of the engine the orchestrator drives.
type Retriever interface {
	CountPosts(ctx context.Context, target domain.Target, interval domain.DateInterval) (int, error)
	FetchContents(ctx context.Context, target domain.Target, interval domain.DateInterval) ([]domain.Post, error)
}

// Options configure one batch run.
type Options struct {
	// RadiusDays is the half-width of the anchor window. 0 means the default.
	RadiusDays int
	// OnResult, when set, receives each row result as soon as the row
	// finishes, in input order, so partial progress is observable.
	OnResult func(domain.RowResult) error
}

// Orchestrator runs batch operations sequentially. Sequential on purpose:
// the external API's global rate limit is the binding constraint, so
// parallel rows would only move the waiting around.
type Orchestrator struct {
	engine   Retriever
	resolver domain.AccountResolver
	clock    clockwork.Clock
	log      *slog.Logger
}

// New creates an orchestrator. The resolver may be nil when every row
// already carries a resolved target.
func New(engine Retriever, resolver domain.AccountResolver, clock clockwork.Clock, log *slog.Logger) *Orchestrator {
	return &Orchestrator{engine: engine, resolver: resolver, clock: clock, log: log}
}

// RunCounts counts posts per row inside the anchor window and on the anchor
// day itself. Output order matches input order; a row failure is recorded
// on that row's entry and the run continues. Cancellation is observed
// between rows: rows already processed are returned with ctx.Err().
func (o *Orchestrator) RunCounts(ctx context.Context, rows []domain.BatchRow, opts Options) ([]domain.RowResult, error) {
	return o.run(ctx, rows, opts, o.countRow)
}

// RunContents retrieves annotated posts per row inside the anchor window.
func (o *Orchestrator) RunContents(ctx context.Context, rows []domain.BatchRow, opts Options) ([]domain.RowResult, error) {
	return o.run(ctx, rows, opts, o.contentRow)
}

type rowFunc func(ctx context.Context, row domain.BatchRow, interval domain.DateInterval, res *domain.RowResult) error

func (o *Orchestrator) run(ctx context.Context, rows []domain.BatchRow, opts Options, fn rowFunc) ([]domain.RowResult, error) {
	runID := uuid.New()
	log := o.log.With("run_id", runID.String(), "rows", len(rows))
	log.Info("batch run started")

	results := make([]domain.RowResult, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			log.Warn("batch run cancelled", "processed", i)
			return results, err
		}

		res := o.processRow(ctx, row, opts, fn)
		metrics.BatchRowsTotal.WithLabelValues(string(res.Status)).Inc()
		results = append(results, res)

		if opts.OnResult != nil {
			if err := opts.OnResult(res); err != nil {
				log.Error("result sink failed, aborting run", "row", i, "error", err)
				return results, err
			}
		}
	}

	log.Info("batch run finished")
	return results, nil
}

func (o *Orchestrator) processRow(ctx context.Context, row domain.BatchRow, opts Options, fn rowFunc) domain.RowResult {
	res := domain.RowResult{Row: row, Status: domain.RowOK}

	interval, err := o.rowInterval(row, opts.RadiusDays)
	if err != nil {
		return failed(res, err)
	}
	res.Interval = interval

	target := row.Target
	if target.Value == "" {
		if o.resolver == nil {
			return failed(res, domain.ErrTargetNotFound)
		}
		account, err := o.resolver.Resolve(ctx, row.Company)
		if err != nil {
			return failed(res, err)
		}
		target = domain.AccountTarget(account.Username)
	}
	res.Row.Target = target

	if err := fn(ctx, res.Row, interval, &res); err != nil {
		var truncated *domain.TruncatedError
		if errors.As(err, &truncated) {
			res.Status = domain.RowPartial
			res.Err = err
			return res
		}
		return failed(res, err)
	}
	return res
}

func (o *Orchestrator) countRow(ctx context.Context, row domain.BatchRow, interval domain.DateInterval, res *domain.RowResult) error {
	count, err := o.engine.CountPosts(ctx, row.Target, interval)
	if err != nil {
		return err
	}
	res.Count = count

	if row.Interval == nil {
		day := domain.DateInterval{Start: dayStart(row.Anchor), End: dayStart(row.Anchor).AddDate(0, 0, 1)}
		dayCount, err := o.engine.CountPosts(ctx, row.Target, day)
		if err != nil {
			return err
		}
		res.DayCount = dayCount
	}
	return nil
}

func (o *Orchestrator) contentRow(ctx context.Context, row domain.BatchRow, interval domain.DateInterval, res *domain.RowResult) error {
	posts, err := o.engine.FetchContents(ctx, row.Target, interval)
	res.Posts = posts
	res.Count = len(posts)
	return err
}

// rowInterval resolves the row's window: an explicit interval wins,
// otherwise the anchor date with the configured radius.
func (o *Orchestrator) rowInterval(row domain.BatchRow, radiusDays int) (domain.DateInterval, error) {
	if row.Interval != nil {
		return *row.Interval, nil
	}
	if row.Anchor.IsZero() {
		return domain.DateInterval{}, domain.ErrInvalidSelector
	}
	anchor := row.Anchor
	return window.Resolve(domain.WindowSelector{Anchor: &anchor, Radius: radiusDays}, o.clock.Now())
}

func failed(res domain.RowResult, err error) domain.RowResult {
	res.Status = domain.RowFailed
	res.Err = err
	return res
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
