package twitter

import (
	"context"
	"fmt"
	"net/url"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

type countsResponse struct {
	Data []struct {
		Start      string `json:"start"`
		End        string `json:"end"`
		TweetCount int    `json:"tweet_count"`
	} `json:"data"`
	Meta struct {
		TotalTweetCount int    `json:"total_tweet_count"`
		NextToken       string `json:"next_token"`
	} `json:"meta"`
}

// CountPosts returns the number of posts matching the target inside the
// interval using the dedicated counts endpoint, paging through day buckets
// until the cursor is exhausted. The same cursor loop-guard as search
// pagination applies.
func (c *Client) CountPosts(ctx context.Context, target domain.Target, interval domain.DateInterval) (int, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}
	path, err := c.countsPath(interval)
	if err != nil {
		return 0, err
	}

	total := 0
	next := ""
	seen := make(map[string]struct{})

	for {
		params := url.Values{}
		params.Set("query", buildQuery(target, true))
		params.Set("start_time", formatTime(interval.Start))
		params.Set("end_time", formatTime(interval.End))
		params.Set("granularity", "day")
		if next != "" {
			params.Set("next_token", next)
		}

		var resp countsResponse
		if err := c.getJSON(ctx, path, params, &resp); err != nil {
			return 0, err
		}

		total += resp.Meta.TotalTweetCount

		if resp.Meta.NextToken == "" {
			return total, nil
		}
		if _, dup := seen[resp.Meta.NextToken]; dup {
			return 0, &domain.MalformedResponseError{
				Err: fmt.Errorf("counts cursor %q repeated", resp.Meta.NextToken),
			}
		}
		seen[resp.Meta.NextToken] = struct{}{}
		next = resp.Meta.NextToken
	}
}
