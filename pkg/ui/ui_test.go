package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roost/pkg/auth"
	"roost/pkg/ratelimit"
)

func init() {
	color.NoColor = true
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return errors.New("no display")
}

func TestStatusTracker(t *testing.T) {
	st := NewStatusTracker(4)
	st.AddCompleted(10)
	st.AddCompleted(5)
	st.AddUnavailable()

	assert.Equal(t, 3, st.Done())
	assert.Equal(t, 15, st.Items)
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 15)+strings.Repeat(ProgressEmpty, 5)+"] 3/4", st.Bar())
	assert.Equal(t, "2 collected, 1 unavailable, 15 ids", st.Summary())

	st.AddFailed()
	assert.Contains(t, st.Summary(), "1 failed")
	assert.Contains(t, st.Bar(), "4/4")
}

func TestStatusTrackerEmptyBatch(t *testing.T) {
	st := NewStatusTracker(0)
	assert.Contains(t, st.Bar(), strings.Repeat(ProgressEmpty, 20))
}

func TestProgressDisplay(t *testing.T) {
	var buf bytes.Buffer
	var d Dashboard = NewProgressDisplay(&buf, 3, false)

	d.StartJob("1", "@alice")
	d.CompleteJob("1", 42)
	d.StartJob("2", "@bob")
	d.SkipJob("2", "not authorized")
	d.StartJob("3", "12345")
	d.FailJob("3", errors.New("boom"))
	d.UpdateRateLimit(10, 150, time.Now())
	d.LogWarning("waiting %s", "60s")

	out := buf.String()
	assert.Contains(t, out, "@alice 42 ids")
	assert.Contains(t, out, "@bob not authorized")
	assert.Contains(t, out, "12345 boom")
	assert.Contains(t, out, "warn waiting 60s")
	assert.NotContains(t, out, "quota", "rate updates only show when verbose")

	status := d.(*ProgressDisplay).Status()
	assert.Equal(t, 1, status.Completed)
	assert.Equal(t, 1, status.Unavailable)
	assert.Equal(t, 1, status.Failed)
}

func TestRenderRateLimit(t *testing.T) {
	now := time.Unix(1300000000, 0)
	var buf bytes.Buffer
	RenderRateLimit(&buf, RateLimitRow{Limit: 150, Remaining: 12, ResetAt: now.Add(90 * time.Second)},
		ratelimit.CapacityState{ResumeAt: now.Add(time.Minute)}, now)

	out := buf.String()
	assert.Contains(t, out, "hourly limit")
	assert.Contains(t, out, "150")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, strings.ToLower(out), "over capacity")
}

func TestRenderRateLimitUnknownReset(t *testing.T) {
	var buf bytes.Buffer
	RenderRateLimit(&buf, RateLimitRow{Limit: 150, Remaining: 150}, ratelimit.CapacityState{}, time.Now())
	assert.Contains(t, buf.String(), "unknown")
	assert.NotContains(t, strings.ToLower(buf.String()), "over capacity")
}

func TestRenderProfilesMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	RenderProfiles(&buf, []*auth.Profile{{
		Name: "default",
		Credentials: auth.Credentials{
			ConsumerKey:  "abcdefghijkl",
			SecretKey:    "secret-secret",
			OToken:       "123456789",
			OTokenSecret: "token-secret",
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "abcd...ijkl")
	assert.NotContains(t, out, "abcdefghijkl")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	old := Output
	Output = &buf
	defer func() { Output = old }()

	sender := &recordingSender{}
	n := &Notifier{sender: sender}
	n.SendSuccess("roost", "followers collected")
	n.SendError("roost", "batch failed")

	require.Len(t, sender.titles, 2)
	assert.Contains(t, buf.String(), "followers collected")
	assert.Contains(t, buf.String(), "batch failed")

	// nil sender only prints
	(&Notifier{}).SendNotification("roost", "hello")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	n.BatchFinished("friends", 3, 1, 0)
	assert.Contains(t, buf.String(), "friends: 3 collected, 1 unavailable, 0 failed")
	n.BatchFinished("followers", 0, 0, 2)
	assert.Contains(t, buf.String(), "2 failed")
	assert.Len(t, sender.titles, 4)
}

func TestPlatformSenderArgs(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\o/"`, applescriptQuote(`say "hi" \o/`))

	args := platformSenders["darwin"].args("roost", `5 "unavailable"`)
	require.Len(t, args, 2)
	assert.Equal(t, `display notification "5 \"unavailable\"" with title "roost"`, args[1])

	assert.Equal(t, []string{"--app-name=roost", "t", "m"}, platformSenders["linux"].args("t", "m"))
}
