package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

// Wire types for /tweets/search responses.
type tweetJSON struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	AuthorID         string `json:"author_id"`
	CreatedAt        string `json:"created_at"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type userJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Verified      bool   `json:"verified"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

type searchResponse struct {
	Data     []tweetJSON `json:"data"`
	Includes struct {
		Users []userJSON `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

// SearchPage fetches one page of posts for the target and interval.
// Pagination state lives in the caller; nextToken is empty for the first
// page. The returned NextToken is empty when the query is exhausted.
func (c *Client) SearchPage(ctx context.Context, target domain.Target, interval domain.DateInterval, includeReposts bool, nextToken string) (domain.SearchPage, error) {
	path, err := c.searchPath(interval)
	if err != nil {
		return domain.SearchPage{}, err
	}

	params := url.Values{}
	params.Set("query", buildQuery(target, includeReposts))
	params.Set("start_time", formatTime(interval.Start))
	params.Set("end_time", formatTime(interval.End))
	params.Set("max_results", strconv.Itoa(c.cfg.PageSize))
	params.Set("tweet.fields", "id,text,created_at,author_id,referenced_tweets")
	params.Set("user.fields", "id,name,username,verified,public_metrics")
	params.Set("expansions", "author_id")
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return domain.SearchPage{}, err
	}

	usersByID := make(map[string]userJSON, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		usersByID[u.ID] = u
	}

	posts := make([]domain.Post, 0, len(resp.Data))
	for _, t := range resp.Data {
		post, err := toPost(t, usersByID, target)
		if err != nil {
			return domain.SearchPage{}, err
		}
		posts = append(posts, post)
	}

	return domain.SearchPage{Posts: posts, NextToken: resp.Meta.NextToken}, nil
}

func toPost(t tweetJSON, users map[string]userJSON, target domain.Target) (domain.Post, error) {
	createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return domain.Post{}, &domain.MalformedResponseError{
			Err: fmt.Errorf("tweet %s created_at %q: %w", t.ID, t.CreatedAt, err),
		}
	}

	isRepost := false
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "retweeted" {
			isRepost = true
			break
		}
	}

	return domain.Post{
		ID:        t.ID,
		AuthorID:  t.AuthorID,
		Username:  users[t.AuthorID].Username,
		Target:    target,
		Text:      t.Text,
		CreatedAt: createdAt.UTC(),
		IsRepost:  isRepost,
	}, nil
}
