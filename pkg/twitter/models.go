package twitter

import (
	"encoding/json"
	"time"

	"roost/pkg/ratelimit"
)

// RateLimitStatus is the body of the rate limit status endpoint.
type RateLimitStatus struct {
	HourlyLimit        int    `json:"hourly_limit"`
	RemainingHits      int    `json:"remaining_hits"`
	ResetTimeInSeconds int64  `json:"reset_time_in_seconds"`
	ResetTime          string `json:"reset_time"`
}

// State converts the status into tracker state.
func (s RateLimitStatus) State() ratelimit.RateState {
	st := ratelimit.RateState{Limit: s.HourlyLimit, Remaining: s.RemainingHits}
	if s.ResetTimeInSeconds > 0 {
		st.ResetAt = time.Unix(s.ResetTimeInSeconds, 0)
	}
	return st
}

// idPage is one page of a cursored id listing. IDs is a pointer so an absent
// field can be told apart from an empty list.
type idPage struct {
	IDs        *[]int64 `json:"ids"`
	NextCursor int64    `json:"next_cursor"`
}

// User is an account profile. Raw keeps the body as received.
type User struct {
	ID             int64  `json:"id"`
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	Protected      bool   `json:"protected"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
	StatusesCount  int    `json:"statuses_count"`
	CreatedAt      string `json:"created_at"`

	Raw json.RawMessage `json:"-"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*u = User(p)
	u.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// Tweet is a single post. User is nil when trimmed by the server.
type Tweet struct {
	ID                  int64  `json:"id"`
	IDStr               string `json:"id_str"`
	Text                string `json:"text"`
	CreatedAt           string `json:"created_at"`
	InReplyToScreenName string `json:"in_reply_to_screen_name"`
	RetweetCount        int    `json:"retweet_count"`
	User                *User  `json:"user,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (t *Tweet) UnmarshalJSON(b []byte) error {
	type plain Tweet
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = Tweet(p)
	t.Raw = append(json.RawMessage(nil), b...)
	return nil
}
