package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lk479o000/twitter-crawler-app/internal/accounts"
	"github.com/lk479o000/twitter-crawler-app/internal/batch"
	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/storage"
	"github.com/lk479o000/twitter-crawler-app/internal/window"
)

// windowFlags are the selector flags shared by fetch and count.
type windowFlags struct {
	start  string
	end    string
	preset string
	recent string
}

func (f *windowFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.start, "start", "", "Window start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "Window end date (YYYY-MM-DD, exclusive)")
	fs.StringVar(&f.preset, "preset", "", "Calendar window: today, this_week, this_month, this_quarter, this_half_year, this_year")
	fs.StringVar(&f.recent, "recent", "", "Rolling window: last_day, last_week, last_month, last_quarter, last_half_year, last_year")
}

func (f *windowFlags) selector() (domain.WindowSelector, error) {
	sel := domain.WindowSelector{Preset: f.preset, Recent: f.recent}
	if f.start != "" {
		t, err := parseDate(f.start)
		if err != nil {
			return sel, err
		}
		sel.Start = &t
	}
	if f.end != "" {
		t, err := parseDate(f.end)
		if err != nil {
			return sel, err
		}
		sel.End = &t
	}
	return sel, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q (want YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func parseTarget(by, value string) (domain.Target, error) {
	switch by {
	case "account":
		return domain.AccountTarget(strings.TrimPrefix(value, "@")), nil
	case "keyword":
		return domain.KeywordTarget(value), nil
	}
	return domain.Target{}, fmt.Errorf("-by must be account or keyword")
}

func runFetch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var wf windowFlags
	wf.register(fs)
	by := fs.String("by", "account", "Query by account or keyword")
	value := fs.String("value", "", "Account username (without @) or keyword")
	includeReposts := fs.Bool("include-reposts", false, "Keep reposts in the result")
	output := fs.String("output", "tweets_with_sentiment.csv", "Output CSV path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := buildApp()
	if err != nil {
		return fail(err)
	}

	target, err := parseTarget(*by, *value)
	if err != nil {
		return fail(err)
	}
	sel, err := wf.selector()
	if err != nil {
		return fail(err)
	}
	interval, err := window.Resolve(sel, a.clock.Now())
	if err != nil {
		return fail(err)
	}

	posts, err := a.engine.FetchPosts(ctx, target, interval, *includeReposts)
	if err != nil && len(posts) == 0 {
		return fail(err)
	}

	f, ferr := os.Create(*output)
	if ferr != nil {
		return fail(ferr)
	}
	defer f.Close()

	cw, ferr := storage.NewContentsWriter(f)
	if ferr != nil {
		return fail(ferr)
	}
	status := domain.RowOK
	if err != nil {
		status = domain.RowPartial
	}
	res := domain.RowResult{
		Row:      domain.BatchRow{Company: target.Value, Target: target},
		Interval: interval,
		Status:   status,
		Posts:    posts,
		Err:      err,
	}
	if ferr := cw.Write(res); ferr != nil {
		return fail(ferr)
	}

	fmt.Printf("fetched %d posts for %s in %s -> %s\n", len(posts), target, interval, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: result truncated: %v\n", err)
		return 1
	}
	return 0
}

func runCount(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var wf windowFlags
	wf.register(fs)
	by := fs.String("by", "account", "Query by account or keyword")
	value := fs.String("value", "", "Account username (without @) or keyword")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := buildApp()
	if err != nil {
		return fail(err)
	}

	target, err := parseTarget(*by, *value)
	if err != nil {
		return fail(err)
	}
	sel, err := wf.selector()
	if err != nil {
		return fail(err)
	}
	interval, err := window.Resolve(sel, a.clock.Now())
	if err != nil {
		return fail(err)
	}

	count, err := a.engine.CountPosts(ctx, target, interval)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%s %s: %d posts\n", target, interval, count)
	return 0
}

func runAccounts(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("accounts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	names := fs.String("names", "", "Comma-separated company names")
	input := fs.String("input", "", "CSV with company names in the first column (alternative to -names)")
	output := fs.String("output", "company_account_map.csv", "Output mapping CSV path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := buildApp()
	if err != nil {
		return fail(err)
	}

	companies, err := companyList(*names, *input)
	if err != nil {
		return fail(err)
	}

	var resolved []domain.Account
	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			break
		}
		account, err := a.resolver.Resolve(ctx, company)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", company, err)
			continue
		}
		resolved = append(resolved, account)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fail(err)
	}
	defer f.Close()
	if err := storage.SaveAccounts(f, resolved); err != nil {
		return fail(err)
	}

	fmt.Printf("resolved %d of %d companies -> %s\n", len(resolved), len(companies), *output)
	return 0
}

func companyList(names, input string) ([]string, error) {
	if names != "" {
		var out []string
		for _, n := range strings.Split(names, ",") {
			if norm := accounts.Normalize(n); norm != "" {
				out = append(out, norm)
			}
		}
		return out, nil
	}
	if input == "" {
		return nil, fmt.Errorf("either -names or -input is required")
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := storage.LoadBatchRows(f)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range rows {
		out = append(out, r.Company)
	}
	return out, nil
}

func runBatchCounts(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("batch-counts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	input := fs.String("input", "", "Input CSV (company, anchor date)")
	output := fs.String("output", "batch_counts.csv", "Output CSV path")
	mapping := fs.String("accounts", "", "Optional pre-resolved account mapping CSV")
	radius := fs.Int("radius", 0, "Window half-width in days (default from WINDOW_RADIUS_DAYS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := buildApp()
	if err != nil {
		return fail(err)
	}

	rows, err := loadRows(*input, *mapping)
	if err != nil {
		return fail(err)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fail(err)
	}
	defer f.Close()
	cw, err := storage.NewCountsWriter(f)
	if err != nil {
		return fail(err)
	}

	results, runErr := a.orchestrator.RunCounts(ctx, rows, batch.Options{
		RadiusDays: radiusOrDefault(*radius, a.cfg.RadiusDays),
		OnResult:   cw.Write,
	})

	fmt.Printf("processed %d of %d rows -> %s\n", len(results), len(rows), *output)
	if runErr != nil {
		return fail(runErr)
	}
	return 0
}

func runBatchContents(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("batch-contents", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	input := fs.String("input", "", "Input CSV (company, anchor date)")
	output := fs.String("output", "batch_contents.csv", "Output CSV path")
	mapping := fs.String("accounts", "", "Optional pre-resolved account mapping CSV")
	radius := fs.Int("radius", 0, "Window half-width in days (default from WINDOW_RADIUS_DAYS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := buildApp()
	if err != nil {
		return fail(err)
	}

	rows, err := loadRows(*input, *mapping)
	if err != nil {
		return fail(err)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fail(err)
	}
	defer f.Close()
	cw, err := storage.NewContentsWriter(f)
	if err != nil {
		return fail(err)
	}

	results, runErr := a.orchestrator.RunContents(ctx, rows, batch.Options{
		RadiusDays: radiusOrDefault(*radius, a.cfg.RadiusDays),
		OnResult:   cw.Write,
	})

	fmt.Printf("processed %d of %d rows -> %s\n", len(results), len(rows), *output)
	if runErr != nil {
		return fail(runErr)
	}
	return 0
}

// loadRows reads the batch input and, when a mapping file is given,
// attaches pre-resolved targets so rows skip live account resolution.
func loadRows(input, mapping string) ([]domain.BatchRow, error) {
	if input == "" {
		return nil, errors.New("-input is required")
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := storage.LoadBatchRows(f)
	if err != nil {
		return nil, err
	}

	if mapping == "" {
		return rows, nil
	}
	mf, err := os.Open(mapping)
	if err != nil {
		return nil, err
	}
	defer mf.Close()
	list, err := storage.LoadAccounts(mf)
	if err != nil {
		return nil, err
	}
	byCompany := make(map[string]domain.Account, len(list))
	for _, acc := range list {
		byCompany[acc.CompanyNormalized] = acc
	}
	for i, r := range rows {
		if acc, ok := byCompany[r.Company]; ok {
			rows[i].Target = domain.AccountTarget(acc.Username)
		}
	}
	return rows, nil
}

func radiusOrDefault(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}
