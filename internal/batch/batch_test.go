package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine maps target values to canned counts, posts, or errors.
type fakeEngine struct {
	counts map[string]int
	posts  map[string][]domain.Post
	errs   map[string]error

	countCalls   []domain.DateInterval
	contentCalls int
}

func (f *fakeEngine) CountPosts(ctx context.Context, target domain.Target, interval domain.DateInterval) (int, error) {
	f.countCalls = append(f.countCalls, interval)
	if err := f.errs[target.Value]; err != nil {
		return 0, err
	}
	return f.counts[target.Value], nil
}

func (f *fakeEngine) FetchContents(ctx context.Context, target domain.Target, interval domain.DateInterval) ([]domain.Post, error) {
	f.contentCalls++
	return f.posts[target.Value], f.errs[target.Value]
}

type fakeResolver struct {
	accounts map[string]domain.Account
}

func (f *fakeResolver) Resolve(ctx context.Context, name string) (domain.Account, error) {
	account, ok := f.accounts[name]
	if !ok {
		return domain.Account{}, domain.ErrTargetNotFound
	}
	return account, nil
}

func anchoredRow(company, username string, anchor time.Time) domain.BatchRow {
	return domain.BatchRow{
		Company: company,
		Target:  domain.AccountTarget(username),
		Anchor:  anchor,
	}
}

var anchor = time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)

func TestRunCounts_FaultIsolation(t *testing.T) {
	eng := &fakeEngine{
		counts: map[string]int{"A": 10, "B": 20, "D": 40, "E": 50},
		errs:   map[string]error{"C": errors.New("upstream exploded")},
	}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{
		anchoredRow("Alpha", "A", anchor),
		anchoredRow("Beta", "B", anchor),
		anchoredRow("Gamma", "C", anchor),
		anchoredRow("Delta", "D", anchor),
		anchoredRow("Epsilon", "E", anchor),
	}

	results, err := orch.RunCounts(context.Background(), rows, Options{})
	require.NoError(t, err, "a row failure never aborts the run")
	require.Len(t, results, 5)

	for i, res := range results {
		assert.Equal(t, rows[i].Company, res.Row.Company, "output order matches input order")
	}

	assert.Equal(t, domain.RowOK, results[0].Status)
	assert.Equal(t, 10, results[0].Count)
	assert.Equal(t, domain.RowFailed, results[2].Status)
	assert.Error(t, results[2].Err)
	assert.Equal(t, domain.RowOK, results[4].Status)
	assert.Equal(t, 50, results[4].Count)
}

func TestRunCounts_AnchorWindowAndDay(t *testing.T) {
	eng := &fakeEngine{counts: map[string]int{"A": 7}}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{anchoredRow("Alpha", "A", anchor)}
	results, err := orch.RunCounts(context.Background(), rows, Options{RadiusDays: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, anchor.AddDate(0, 0, -10), res.Interval.Start)
	assert.Equal(t, anchor.AddDate(0, 0, 10), res.Interval.End)
	assert.Equal(t, 7, res.Count)
	assert.Equal(t, 7, res.DayCount)

	require.Len(t, eng.countCalls, 2)
	day := eng.countCalls[1]
	assert.Equal(t, anchor, day.Start)
	assert.Equal(t, anchor.AddDate(0, 0, 1), day.End)
}

func TestRunCounts_ExplicitIntervalSkipsDayCount(t *testing.T) {
	eng := &fakeEngine{counts: map[string]int{"A": 3}}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	iv, err := domain.NewDateInterval(anchor, anchor.AddDate(0, 0, 7))
	require.NoError(t, err)

	rows := []domain.BatchRow{{Company: "Alpha", Target: domain.AccountTarget("A"), Interval: &iv}}
	results, err := orch.RunCounts(context.Background(), rows, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, results[0].Count)
	assert.Zero(t, results[0].DayCount)
	assert.Len(t, eng.countCalls, 1, "no anchor-day count for explicit intervals")
}

func TestRunContents_PartialOnTruncation(t *testing.T) {
	kept := []domain.Post{{ID: "1", Text: "one"}, {ID: "2", Text: "two"}}
	eng := &fakeEngine{
		posts: map[string][]domain.Post{"A": kept},
		errs: map[string]error{"A": &domain.TruncatedError{
			PagesRead: 1, Posts: 2, Err: errors.New("boom"),
		}},
	}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{anchoredRow("Alpha", "A", anchor)}
	results, err := orch.RunContents(context.Background(), rows, Options{})
	require.NoError(t, err)

	res := results[0]
	assert.Equal(t, domain.RowPartial, res.Status)
	assert.Len(t, res.Posts, 2, "posts before the truncation are kept")
	assert.Error(t, res.Err)
}

func TestRun_ResolvesMissingTargets(t *testing.T) {
	eng := &fakeEngine{counts: map[string]int{"AppleSupport": 5}}
	resolver := &fakeResolver{accounts: map[string]domain.Account{
		"APPLE": {AccountID: "42", Username: "AppleSupport", Name: "Apple"},
	}}
	orch := New(eng, resolver, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{{Company: "APPLE", Anchor: anchor}}
	results, err := orch.RunCounts(context.Background(), rows, Options{})
	require.NoError(t, err)

	res := results[0]
	assert.Equal(t, domain.RowOK, res.Status)
	assert.Equal(t, "AppleSupport", res.Row.Target.Value)
	assert.Equal(t, 5, res.Count)
}

func TestRun_UnresolvableCompanyFailsRow(t *testing.T) {
	eng := &fakeEngine{}
	resolver := &fakeResolver{accounts: map[string]domain.Account{}}
	orch := New(eng, resolver, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{{Company: "NOBODY", Anchor: anchor}}
	results, err := orch.RunCounts(context.Background(), rows, Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.RowFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, domain.ErrTargetNotFound)
	assert.Empty(t, eng.countCalls, "unresolved rows issue no queries")
}

func TestRun_MissingAnchorFailsRow(t *testing.T) {
	eng := &fakeEngine{}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{{Company: "Alpha", Target: domain.AccountTarget("A")}}
	results, err := orch.RunCounts(context.Background(), rows, Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.RowFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, domain.ErrInvalidSelector)
}

func TestRun_CancellationBetweenRows(t *testing.T) {
	eng := &fakeEngine{counts: map[string]int{"A": 1, "B": 2}}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	rows := []domain.BatchRow{
		anchoredRow("Alpha", "A", anchor),
		anchoredRow("Beta", "B", anchor),
	}

	opts := Options{OnResult: func(domain.RowResult) error {
		cancel()
		return nil
	}}

	results, err := orch.RunCounts(ctx, rows, opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1, "rows processed before cancellation are returned")
}

func TestRun_StreamsResultsInOrder(t *testing.T) {
	eng := &fakeEngine{counts: map[string]int{"A": 1, "B": 2, "C": 3}}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{
		anchoredRow("Alpha", "A", anchor),
		anchoredRow("Beta", "B", anchor),
		anchoredRow("Gamma", "C", anchor),
	}

	var streamed []string
	opts := Options{OnResult: func(res domain.RowResult) error {
		streamed = append(streamed, res.Row.Company)
		return nil
	}}

	_, err := orch.RunCounts(context.Background(), rows, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, streamed)
}

func TestRun_SinkErrorAbortsRun(t *testing.T) {
	eng := &fakeEngine{counts: map[string]int{"A": 1, "B": 2}}
	orch := New(eng, nil, clockwork.NewFakeClock(), discardLogger())

	rows := []domain.BatchRow{
		anchoredRow("Alpha", "A", anchor),
		anchoredRow("Beta", "B", anchor),
	}

	sinkErr := errors.New("disk full")
	opts := Options{OnResult: func(domain.RowResult) error { return sinkErr }}

	results, err := orch.RunCounts(context.Background(), rows, opts)
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, results, 1)
}
