package twitter

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"roost/pkg/ratelimit"
)

// RateLimitStatus asks the server for the account's quota. The call is a
// probe: it ignores a spent quota and does not update the tracker.
func (c *Client) RateLimitStatus(ctx context.Context) (*RateLimitStatus, error) {
	o, err := c.call(ctx, PathRateLimitStatus, nil, true)
	if err != nil {
		return nil, err
	}
	var status RateLimitStatus
	if err := json.Unmarshal(o.Body, &status); err != nil {
		return nil, malformed(o, err)
	}
	return &status, nil
}

// SyncRateLimit seeds the tracker from RateLimitStatus and returns the new state.
func (c *Client) SyncRateLimit(ctx context.Context) (ratelimit.RateState, error) {
	status, err := c.RateLimitStatus(ctx)
	if err != nil {
		return ratelimit.RateState{}, err
	}
	c.tracker.Seed(status.State())
	state := c.tracker.Rate()
	c.recorder.ObserveRateLimit(state)
	return state, nil
}

// Followers returns every follower id of s.
func (c *Client) Followers(ctx context.Context, s Subject) (*Result[int64], error) {
	return c.FollowersLimit(ctx, s, 0)
}

// FollowersLimit returns at most n follower ids of s. n <= 0 means no limit.
func (c *Client) FollowersLimit(ctx context.Context, s Subject, n int) (*Result[int64], error) {
	return c.collectIDs(ctx, PathFollowerIDs, s, n)
}

// Friends returns every id s follows.
func (c *Client) Friends(ctx context.Context, s Subject) (*Result[int64], error) {
	return c.FriendsLimit(ctx, s, 0)
}

// FriendsLimit returns at most n ids s follows. n <= 0 means no limit.
func (c *Client) FriendsLimit(ctx context.Context, s Subject, n int) (*Result[int64], error) {
	return c.collectIDs(ctx, PathFriendIDs, s, n)
}

func (c *Client) collectIDs(ctx context.Context, path string, s Subject, n int) (*Result[int64], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	s.params(params)

	res := collect(ctx, c, cursorPager(path, params, n))
	return res, res.Err
}

// Profile returns the profile of s.
func (c *Client) Profile(ctx context.Context, s Subject) (*User, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	s.params(params)

	o, err := c.call(ctx, PathUserShow, params, false)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(o.Body, &u); err != nil {
		return nil, malformed(o, err)
	}
	return &u, nil
}

// UserTimeline returns up to n of the most recent posts by s, newest first.
// n <= 0 pages until the server has nothing more.
func (c *Client) UserTimeline(ctx context.Context, s Subject, n int) (*Result[Tweet], error) {
	return c.collectTimeline(ctx, PathUserTimeline, s, n)
}

// HomeTimeline returns up to n posts from the home timeline of s.
func (c *Client) HomeTimeline(ctx context.Context, s Subject, n int) (*Result[Tweet], error) {
	return c.collectTimeline(ctx, PathHomeTimeline, s, n)
}

func (c *Client) collectTimeline(ctx context.Context, path string, s Subject, n int) (*Result[Tweet], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	s.params(params)
	params.Set("trim_user", "1")
	params.Set("include_rts", "1")

	res := collect(ctx, c, pagePager[Tweet](path, params, n))
	return res, res.Err
}

// Tweet returns a single post.
func (c *Client) Tweet(ctx context.Context, id int64, includeEntities bool) (*Tweet, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	if includeEntities {
		params.Set("include_entities", "true")
	}

	o, err := c.call(ctx, PathStatusShow, params, false)
	if err != nil {
		return nil, err
	}
	var t Tweet
	if err := json.Unmarshal(o.Body, &t); err != nil {
		return nil, malformed(o, err)
	}
	return &t, nil
}
