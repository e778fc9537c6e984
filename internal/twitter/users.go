package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

type userResponse struct {
	Data *userJSON `json:"data"`
}

// UserCandidate is one account candidate produced by SearchUsers.
type UserCandidate struct {
	ID        string
	Name      string
	Username  string
	Verified  bool
	Followers int
}

// LookupUser fetches one account by exact username. An unknown username
// maps to domain.ErrTargetNotFound.
func (c *Client) LookupUser(ctx context.Context, username string) (domain.Account, error) {
	params := url.Values{}
	params.Set("user.fields", "id,name,username,verified,public_metrics")

	var resp userResponse
	err := c.getJSON(ctx, "/users/by/username/"+url.PathEscape(username), params, &resp)
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return domain.Account{}, fmt.Errorf("%w: username %q", domain.ErrTargetNotFound, username)
		}
		return domain.Account{}, err
	}
	if resp.Data == nil {
		return domain.Account{}, fmt.Errorf("%w: username %q", domain.ErrTargetNotFound, username)
	}

	return domain.Account{
		AccountID: resp.Data.ID,
		Username:  resp.Data.Username,
		Name:      resp.Data.Name,
		Verified:  resp.Data.Verified,
	}, nil
}

// SearchUsers approximates a user search by running a recent post search
// for the query and collecting the expanded author objects, deduplicated
// in first-seen order. The platform has no public user-search endpoint.
func (c *Client) SearchUsers(ctx context.Context, query string, limit int) ([]UserCandidate, error) {
	if limit <= 0 {
		limit = 10
	}
	now := c.clock.Now().UTC()
	interval := domain.DateInterval{Start: now.AddDate(0, 0, -c.cfg.RecentWindowDays), End: now}

	params := url.Values{}
	params.Set("query", query)
	params.Set("start_time", formatTime(interval.Start))
	params.Set("end_time", formatTime(interval.End))
	params.Set("max_results", "50")
	params.Set("tweet.fields", "id,author_id")
	params.Set("user.fields", "id,name,username,verified,public_metrics")
	params.Set("expansions", "author_id")

	var resp searchResponse
	if err := c.getJSON(ctx, "/tweets/search/recent", params, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var users []UserCandidate
	for _, u := range resp.Includes.Users {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		users = append(users, UserCandidate{
			ID:        u.ID,
			Name:      u.Name,
			Username:  u.Username,
			Verified:  u.Verified,
			Followers: u.PublicMetrics.FollowersCount,
		})
		if len(users) >= limit {
			break
		}
	}
	return users, nil
}
