package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"roost/pkg/auth"
	"roost/pkg/ratelimit"
)

// RateLimitRow is what the rlimit command shows.
type RateLimitRow struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	// ResetTime is the server's own rendering of ResetAt, if any.
	ResetTime string
}

// RenderRateLimit writes the quota as a table. now is used for the
// "resets in" column.
func RenderRateLimit(w io.Writer, row RateLimitRow, capacity ratelimit.CapacityState, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})

	reset := "unknown"
	in := "-"
	if !row.ResetAt.IsZero() {
		reset = row.ResetAt.UTC().Format(time.RFC1123)
		if d := row.ResetAt.Sub(now); d > 0 {
			in = d.Truncate(time.Second).String()
		} else {
			in = "now"
		}
	}
	if row.ResetTime != "" {
		reset = row.ResetTime
	}

	t.AppendRows([]table.Row{
		{"hourly limit", strconv.Itoa(row.Limit)},
		{"remaining", strconv.Itoa(row.Remaining)},
		{"reset at", reset},
		{"resets in", in},
	})
	if !capacity.ResumeAt.IsZero() && capacity.ResumeAt.After(now) {
		t.AppendFooter(table.Row{"over capacity", fmt.Sprintf("until %s", capacity.ResumeAt.Format(time.Kitchen))})
	}
	t.Render()
}

// RenderProfiles writes saved credential profiles with masked secrets.
func RenderProfiles(w io.Writer, profiles []*auth.Profile) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Profile", "Consumer key", "Token", "Modified"})

	for _, p := range profiles {
		s := auth.Sanitize(p)
		modified := "-"
		if !s.LastModified.IsZero() {
			modified = s.LastModified.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{s.Name, s.Credentials.ConsumerKey, s.Credentials.OToken, modified})
	}
	t.AppendFooter(table.Row{"", "", "total", len(profiles)})
	t.Render()
}
