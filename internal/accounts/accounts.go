// Package accounts resolves company names to platform accounts.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/singleflight"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/twitter"
)

// Normalize canonicalizes a company name: trims, collapses runs of
// whitespace (including full-width spaces), and uppercases. All resolver
// lookups and mapping files key on the normalized form.
func Normalize(name string) string {
	name = strings.ReplaceAll(name, "　", " ")
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// userAPI is the slice of the search client the resolver needs.
type userAPI interface {
	LookupUser(ctx context.Context, username string) (domain.Account, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]twitter.UserCandidate, error)
}

// Resolver finds the best platform account for a company name: a direct
// username match first, then search candidates ranked verified-first, then
// by name similarity and follower count. Results are cached per normalized
// name; concurrent lookups for the same name are collapsed.
type Resolver struct {
	api   userAPI
	log   *slog.Logger
	group singleflight.Group

	mu    sync.Mutex
	cache map[string]domain.Account
}

// NewResolver creates a resolver backed by the search client.
func NewResolver(api userAPI, log *slog.Logger) *Resolver {
	return &Resolver{
		api:   api,
		log:   log,
		cache: make(map[string]domain.Account),
	}
}

// Resolve maps a company name to an account or domain.ErrTargetNotFound.
func (r *Resolver) Resolve(ctx context.Context, companyName string) (domain.Account, error) {
	norm := Normalize(companyName)
	if norm == "" {
		return domain.Account{}, fmt.Errorf("%w: empty company name", domain.ErrInvalidSelector)
	}

	r.mu.Lock()
	if account, ok := r.cache[norm]; ok {
		r.mu.Unlock()
		return account, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(norm, func() (any, error) {
		account, err := r.resolve(ctx, norm)
		if err != nil {
			return domain.Account{}, err
		}
		r.mu.Lock()
		r.cache[norm] = account
		r.mu.Unlock()
		return account, nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return v.(domain.Account), nil
}

func (r *Resolver) resolve(ctx context.Context, norm string) (domain.Account, error) {
	var candidates []twitter.UserCandidate

	// Direct username guess: "ACME CORP" -> "AcmeCorp".
	if direct, err := r.api.LookupUser(ctx, usernameGuess(norm)); err == nil {
		candidates = append(candidates, twitter.UserCandidate{
			ID:       direct.AccountID,
			Name:     direct.Name,
			Username: direct.Username,
			Verified: direct.Verified,
		})
	} else if !errors.Is(err, domain.ErrTargetNotFound) {
		return domain.Account{}, err
	}

	found, err := r.api.SearchUsers(ctx, norm, 10)
	if err != nil {
		return domain.Account{}, err
	}
	for _, u := range found {
		if !containsID(candidates, u.ID) {
			candidates = append(candidates, u)
		}
	}

	if len(candidates) == 0 {
		return domain.Account{}, fmt.Errorf("%w: no account candidates for %q", domain.ErrTargetNotFound, norm)
	}

	best := pickBest(norm, candidates)
	r.log.Debug("company resolved",
		"company", norm, "username", best.Username, "verified", best.Verified,
		"candidates", len(candidates))

	return domain.Account{
		CompanyNormalized: norm,
		AccountID:         best.ID,
		Username:          best.Username,
		Name:              best.Name,
		Verified:          best.Verified,
	}, nil
}

// pickBest ranks candidates: verified first, then smallest edit distance of
// name or username to the company name, then follower count.
func pickBest(norm string, candidates []twitter.UserCandidate) twitter.UserCandidate {
	type scored struct {
		c    twitter.UserCandidate
		dist int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		nameDist := fuzzy.LevenshteinDistance(norm, strings.ToUpper(c.Name))
		unameDist := fuzzy.LevenshteinDistance(norm, strings.ToUpper(c.Username))
		ranked = append(ranked, scored{c: c, dist: min(nameDist, unameDist)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].c.Verified != ranked[j].c.Verified {
			return ranked[i].c.Verified
		}
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].c.Followers > ranked[j].c.Followers
	})
	return ranked[0].c
}

// usernameGuess builds the most common corporate handle form: title case
// with spaces removed.
func usernameGuess(norm string) string {
	words := strings.Fields(strings.ToLower(norm))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, "")
}

func containsID(candidates []twitter.UserCandidate, id string) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}
