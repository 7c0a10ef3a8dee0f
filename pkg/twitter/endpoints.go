package twitter

// Resource paths relative to the configured base URL.
const (
	PathRateLimitStatus = "/account/rate_limit_status.json"
	PathFollowerIDs     = "/followers/ids.json"
	PathFriendIDs       = "/friends/ids.json"
	PathUserShow        = "/users/show.json"
	PathUserTimeline    = "/statuses/user_timeline.json"
	PathHomeTimeline    = "/statuses/home_timeline.json"
	PathStatusShow      = "/statuses/show.json"
)

const (
	// PageSize is the number of posts requested per timeline page.
	PageSize = 200

	// DefaultTimelineLimit is what the CLI collects when no count is given.
	DefaultTimelineLimit = 10

	firstCursor int64 = -1
	firstPage         = 1
)
