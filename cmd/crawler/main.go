package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/lk479o000/twitter-crawler-app/internal/accounts"
	"github.com/lk479o000/twitter-crawler-app/internal/batch"
	"github.com/lk479o000/twitter-crawler-app/internal/config"
	"github.com/lk479o000/twitter-crawler-app/internal/engine"
	"github.com/lk479o000/twitter-crawler-app/internal/logging"
	"github.com/lk479o000/twitter-crawler-app/internal/sentiment"
	"github.com/lk479o000/twitter-crawler-app/internal/throttle"
	"github.com/lk479o000/twitter-crawler-app/internal/twitter"
	"github.com/lk479o000/twitter-crawler-app/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "fetch":
		os.Exit(runFetch(ctx, os.Args[2:]))
	case "count":
		os.Exit(runCount(ctx, os.Args[2:]))
	case "accounts":
		os.Exit(runAccounts(ctx, os.Args[2:]))
	case "batch-counts":
		os.Exit(runBatchCounts(ctx, os.Args[2:]))
	case "batch-contents":
		os.Exit(runBatchContents(ctx, os.Args[2:]))
	case "version":
		fmt.Println(version.Get())
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: crawler <command> [flags]

Commands:
  fetch           Fetch posts for one account or keyword with sentiment scores
  count           Count posts for one account or keyword in a date window
  accounts        Resolve company names to accounts and save the mapping
  batch-counts    Count posts per company around each anchor date
  batch-contents  Fetch posts per company around each anchor date
  version         Print build information

Run "crawler <command> -h" for command flags.

Configuration comes from the environment (.env supported):
  TWITTER_BEARER_TOKEN (required), USE_SEARCH_ALL, REQUESTS_PER_MINUTE,
  RATE_LIMIT_MAX_RETRIES, RATE_LIMIT_BASE_DELAY_SECONDS,
  RATE_LIMIT_MAX_DELAY_SECONDS, RECENT_WINDOW_DAYS, WINDOW_RADIUS_DAYS,
  LOG_LEVEL, LOG_FORMAT
`)
}

// app bundles the wired components shared by all commands.
type app struct {
	cfg          *config.Config
	client       *twitter.Client
	engine       *engine.Engine
	resolver     *accounts.Resolver
	orchestrator *batch.Orchestrator
	clock        clockwork.Clock
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	clock := clockwork.NewRealClock()
	th := throttle.New(throttle.Options{
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxRetries:        cfg.MaxRetries,
		BaseDelay:         cfg.BaseDelay,
		MaxDelay:          cfg.MaxDelay,
	}, clock)

	client, err := twitter.NewClient(twitter.Config{
		BearerToken:        cfg.BearerToken,
		FullArchiveEnabled: cfg.FullArchiveEnabled,
		RecentWindowDays:   cfg.RecentWindowDays,
	}, th, clock)
	if err != nil {
		return nil, err
	}

	eng := engine.NewWithClient(client, sentiment.New(), logging.Logger)
	resolver := accounts.NewResolver(client, logging.Logger)
	orchestrator := batch.New(eng, resolver, clock, logging.Logger)

	return &app{
		cfg:          cfg,
		client:       client,
		engine:       eng,
		resolver:     resolver,
		orchestrator: orchestrator,
		clock:        clock,
	}, nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
