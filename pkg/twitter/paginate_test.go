package twitter_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "roost/pkg/errors"
	"roost/pkg/twitter"
	"roost/pkg/twitter/twittertest"
)

func idPage(next int64, ids ...int64) twittertest.Response {
	if ids == nil {
		ids = []int64{}
	}
	return twittertest.JSON(map[string]interface{}{"ids": ids, "next_cursor": next})
}

func tweetPage(first, n int) twittertest.Response {
	page := make([]map[string]interface{}, 0, n)
	for i := first; i < first+n; i++ {
		page = append(page, map[string]interface{}{"id": i, "text": fmt.Sprintf("post %d", i)})
	}
	return twittertest.JSON(page)
}

func queryValues(reqs []twittertest.Request, key string) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Query.Get(key))
	}
	return out
}

func TestCursorPagination(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathFollowerIDs, idPage(5, 1, 2), idPage(0, 3))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.Followers(context.Background(), twitter.ByHandle("jack"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, res.Items)
	assert.Equal(t, twitter.SourceExhausted, res.Termination)
	assert.Equal(t, 2, res.Requests)
	assert.Equal(t, 2, res.Pages)

	reqs := srv.Requests(twitter.PathFollowerIDs)
	assert.Equal(t, []string{"-1", "5"}, queryValues(reqs, "cursor"))
	assert.Equal(t, []string{"jack", "jack"}, queryValues(reqs, "screen_name"))
}

func TestCursorStopsWithoutIDs(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathFriendIDs, twittertest.JSON(map[string]interface{}{"next_cursor": 9}))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.Friends(context.Background(), twitter.ByID(12))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, twitter.SourceExhausted, res.Termination)
	assert.Equal(t, 1, srv.Count(twitter.PathFriendIDs))
}

func TestFollowersLimit(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathFollowerIDs, idPage(7, 1, 2, 3))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.FollowersLimit(context.Background(), twitter.ByID(12), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, res.Items)
	assert.Equal(t, twitter.ItemCapReached, res.Termination)
	assert.Equal(t, 1, srv.Count(twitter.PathFollowerIDs))
}

func TestPagePaginationStopsAtCap(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Always(twitter.PathUserTimeline, tweetPage(1, twitter.PageSize))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.UserTimeline(context.Background(), twitter.ByHandle("jack"), 250)
	require.NoError(t, err)
	assert.Len(t, res.Items, 250)
	assert.Equal(t, twitter.ItemCapReached, res.Termination)
	assert.Equal(t, 2, res.Requests)

	reqs := srv.Requests(twitter.PathUserTimeline)
	assert.Equal(t, []string{"1", "2"}, queryValues(reqs, "page"))
	assert.Equal(t, "200", reqs[0].Query.Get("count"))
	assert.Equal(t, "1", reqs[0].Query.Get("trim_user"))
	assert.Equal(t, "1", reqs[0].Query.Get("include_rts"))
}

func TestPagePaginationExhausts(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathHomeTimeline, tweetPage(1, 3), twittertest.JSON([]interface{}{}))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.HomeTimeline(context.Background(), twitter.ByID(12), 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "post 1", res.Items[0].Text)
	assert.Equal(t, int64(3), res.Items[2].ID)
	assert.Equal(t, twitter.SourceExhausted, res.Termination)
	assert.Equal(t, 2, res.Requests)
	assert.Equal(t, []string{"12", "12"}, queryValues(srv.Requests(twitter.PathHomeTimeline), "user_id"))
}

func TestUnavailableMidPagination(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := twittertest.NewServer(t)
			srv.Enqueue(twitter.PathFollowerIDs, idPage(5, 1, 2), twittertest.Status(code, ""))
			client, _ := twittertest.NewClient(t, srv)

			res, err := client.Followers(context.Background(), twitter.ByHandle("private"))
			assert.True(t, errs.IsUnavailable(err))
			require.NotNil(t, res)
			assert.Nil(t, res.Items, "collected ids are discarded")
			assert.Equal(t, twitter.Unavailable, res.Termination)
			assert.Equal(t, 2, res.Requests)
		})
	}
}

func TestFatalMidPagination(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathUserTimeline, tweetPage(1, twitter.PageSize), twittertest.Status(http.StatusNotAcceptable, "nope"))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.UserTimeline(context.Background(), twitter.ByHandle("jack"), 1000)
	require.Error(t, err)
	assert.Nil(t, res.Items)
	assert.Equal(t, twitter.Fatal, res.Termination)

	fe, ok := errs.AsFatal(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotAcceptable, fe.Code)
	assert.Equal(t, "nope", string(fe.Body))
}

func TestRetryKeepsCursor(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathFollowerIDs,
		idPage(5, 1, 2),
		twittertest.Status(http.StatusInternalServerError, "oops"),
		idPage(0, 3),
	)
	client, clock := twittertest.NewClient(t, srv)

	res, err := client.Followers(context.Background(), twitter.ByID(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, res.Items)
	assert.Equal(t, 3, res.Requests)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []string{"-1", "5", "5"}, queryValues(srv.Requests(twitter.PathFollowerIDs), "cursor"))
	assert.Len(t, clock.Sleeps(), 1)
}

func TestUnknownStatusKeepsPage(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathUserTimeline,
		tweetPage(1, 2),
		twittertest.Status(http.StatusTeapot, ""),
		tweetPage(3, 1),
		twittertest.JSON([]interface{}{}),
	)
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.UserTimeline(context.Background(), twitter.ByHandle("jack"), 0)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, []string{"1", "2", "2", "3"}, queryValues(srv.Requests(twitter.PathUserTimeline), "page"))
}

func TestMalformedPageIsFatal(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathFriendIDs, twittertest.Status(http.StatusOK, "{not json"))
	client, _ := twittertest.NewClient(t, srv)

	res, err := client.Friends(context.Background(), twitter.ByID(1))
	assert.Equal(t, twitter.Fatal, res.Termination)
	fe, ok := errs.AsFatal(err)
	require.True(t, ok)
	assert.Equal(t, "malformed response body", fe.Description)
	assert.Equal(t, "{not json", string(fe.Body))
}

func TestCancelledPagination(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Always(twitter.PathFollowerIDs, idPage(5, 1))
	client, _ := twittertest.NewClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := client.Followers(ctx, twitter.ByID(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, twitter.Cancelled, res.Termination)
	assert.Nil(t, res.Items)
}

func TestResultGet(t *testing.T) {
	res := &twitter.Result[int64]{Items: []int64{4}, Termination: twitter.SourceExhausted}
	items, err := res.Get()
	assert.NoError(t, err)
	assert.Equal(t, []int64{4}, items)

	assert.Equal(t, "item_cap_reached", twitter.ItemCapReached.String())
	assert.Equal(t, "unavailable", twitter.Unavailable.String())
	assert.Equal(t, "termination(42)", twitter.Termination(42).String())
}

func TestInvalidSubjectIsRejected(t *testing.T) {
	srv := twittertest.NewServer(t)
	client, _ := twittertest.NewClient(t, srv)

	_, err := client.Followers(context.Background(), twitter.ByHandle("@"))
	assert.ErrorIs(t, err, twitter.ErrInvalidSubject)
	_, err = client.UserTimeline(context.Background(), twitter.ByID(0), 5)
	assert.ErrorIs(t, err, twitter.ErrInvalidSubject)
	assert.Equal(t, 0, srv.Count(""))
}
