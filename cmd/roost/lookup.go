package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	errs "roost/pkg/errors"
	"roost/pkg/twitter"
	"roost/pkg/ui"
)

var (
	includeEntities bool
	printJSON       bool
)

// rlimitCmd represents the rlimit command
var rlimitCmd = &cobra.Command{
	Use:   "rlimit",
	Short: "Show the remaining request quota",
	Long: `Ask the server for the current rate limit status. The call is a probe:
it does not spend quota and is never held back by an exhausted quota.`,
	Args: cobra.NoArgs,
	RunE: runRateLimit,
}

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:     "profile <subject>",
	Short:   "Print an account's profile as JSON",
	Example: `  roost profile @jack`,
	Args:    cobra.ExactArgs(1),
	RunE:    runProfile,
}

// tweetTextCmd represents the tweet_text command
var tweetTextCmd = &cobra.Command{
	Use:     "tweet_text <subject> [count]",
	Short:   "Print the text of an account's most recent posts",
	Example: `  roost tweet_text @jack 50`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(cmd.Context(), cmd.OutOrStdout(), args, (*twitter.Client).UserTimeline)
	},
}

// homeTextCmd represents the home_text command
var homeTextCmd = &cobra.Command{
	Use:   "home_text <subject> [count]",
	Short: "Print the text of the authenticated account's home timeline",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(cmd.Context(), cmd.OutOrStdout(), args, (*twitter.Client).HomeTimeline)
	},
}

// tweetCmd represents the tweet command
var tweetCmd = &cobra.Command{
	Use:     "tweet <id>",
	Short:   "Print the text of one post",
	Example: `  roost tweet 20 --json --entities`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTweet,
}

func init() {
	rootCmd.AddCommand(rlimitCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(tweetTextCmd)
	rootCmd.AddCommand(homeTextCmd)
	rootCmd.AddCommand(tweetCmd)

	tweetCmd.Flags().BoolVar(&includeEntities, "entities", false, "ask for entities (urls, mentions, hashtags)")
	tweetCmd.Flags().BoolVar(&printJSON, "json", false, "print the raw post JSON instead of its text")
}

func runRateLimit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	creds, err := credentials()
	if err != nil {
		return err
	}
	// the status call below is the sync
	cfg.Twitter.SyncRateLimit = false
	client, err := buildClient(ctx, creds)
	if err != nil {
		return err
	}

	status, err := client.RateLimitStatus(ctx)
	if err != nil {
		return err
	}

	state := status.State()
	tracker := client.Tracker()
	ui.RenderRateLimit(cmd.OutOrStdout(), ui.RateLimitRow{
		Limit:     state.Limit,
		Remaining: state.Remaining,
		ResetAt:   state.ResetAt,
		ResetTime: status.ResetTime,
	}, tracker.Capacity(), tracker.Now())
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := parseSubject(args[0], byID, byHandle)
	if err != nil {
		return err
	}
	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	user, err := client.Profile(ctx, s)
	if errs.IsUnavailable(err) {
		unavailable(s, err)
		return nil
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", user.Raw)
	return err
}

type timelineFunc func(c *twitter.Client, ctx context.Context, s twitter.Subject, n int) (*twitter.Result[twitter.Tweet], error)

func runTimeline(ctx context.Context, w io.Writer, args []string, timeline timelineFunc) error {
	s, err := parseSubject(args[0], byID, byHandle)
	if err != nil {
		return err
	}
	n, err := parseCount(args[1:], twitter.DefaultTimelineLimit)
	if err != nil {
		return err
	}
	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	res, err := timeline(client, ctx, s, n)
	if errs.IsUnavailable(err) {
		unavailable(s, err)
		return nil
	}
	if err != nil {
		return err
	}

	tweets, _ := res.Get()
	for _, t := range tweets {
		if _, err := fmt.Fprintln(w, oneLine(t.Text)); err != nil {
			return err
		}
	}
	return nil
}

func runTweet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("%q is not a post id", args[0])
	}
	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	tweet, err := client.Tweet(ctx, id, includeEntities)
	if errs.IsUnavailable(err) {
		log.WithField("id", id).WithError(err).Warn("post unavailable")
		return nil
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if printJSON {
		_, err = fmt.Fprintf(w, "%s\n", tweet.Raw)
		return err
	}
	_, err = fmt.Fprintln(w, oneLine(tweet.Text))
	return err
}

// oneLine keeps one post per output line
func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
