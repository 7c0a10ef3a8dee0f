package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"roost/internal/batch"
	errs "roost/pkg/errors"
	"roost/pkg/storage"
	"roost/pkg/twitter"
	"roost/pkg/ui"
	"roost/pkg/ui/tui"
)

var (
	// Collect command flags
	workers   int
	limit     int
	outputDir string
	useTUI    bool
	notify    bool
)

// followersCmd represents the followers command
var followersCmd = &cobra.Command{
	Use:   "followers <subject>...",
	Short: "List the ids following one or more accounts",
	Long: `Print the ids of the accounts following each subject, one per line.

A subject is "@name" or a screen name, or a numeric user id. Several
subjects are collected concurrently with --workers clients. With
--output-dir each listing is written to <dir>/<subject>.ids and subjects
that already have a file are skipped.`,
	Example: `  roost followers @jack
  roost followers --by-id 12 783214
  roost followers @a @b @c --workers 3 --output-dir ./followers --tui`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect(cmd.Context(), cmd.OutOrStdout(), "followers", args, (*twitter.Client).FollowersLimit)
	},
}

// friendsCmd represents the friends command
var friendsCmd = &cobra.Command{
	Use:     "friends <subject>...",
	Short:   "List the ids one or more accounts follow",
	Long:    `Print the ids of the accounts each subject follows, one per line. Takes the same flags as followers.`,
	Example: `  roost friends @jack --limit 500`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect(cmd.Context(), cmd.OutOrStdout(), "friends", args, (*twitter.Client).FriendsLimit)
	},
}

func init() {
	rootCmd.AddCommand(followersCmd)
	rootCmd.AddCommand(friendsCmd)

	for _, c := range []*cobra.Command{followersCmd, friendsCmd} {
		c.Flags().IntVarP(&workers, "workers", "w", 1, "number of concurrent clients for several subjects")
		c.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many ids per subject (0 = all)")
		c.Flags().StringVarP(&outputDir, "output-dir", "o", "", "write each listing to <dir>/<subject>.ids")
		c.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI for batches")
		c.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when a batch finishes")
	}
}

type listFunc func(c *twitter.Client, ctx context.Context, s twitter.Subject, n int) (*twitter.Result[int64], error)

func runCollect(ctx context.Context, w io.Writer, listing string, args []string, list listFunc) error {
	subjects, err := parseSubjects(args)
	if err != nil {
		return err
	}

	if len(subjects) == 1 && outputDir == "" {
		return collectOne(ctx, w, subjects[0], list)
	}
	return collectBatch(ctx, w, listing, subjects, list)
}

func collectOne(ctx context.Context, w io.Writer, s twitter.Subject, list listFunc) error {
	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	// the error is the listing's own outcome; unavailable is not a failure
	res, err := list(client, ctx, s, limit)
	if errs.IsUnavailable(err) {
		unavailable(s, err)
		return nil
	}
	if err != nil {
		return err
	}

	ids, _ := res.Get()
	if _, err := fmt.Fprint(w, batch.FormatIDs(ids)); err != nil {
		return err
	}
	log.DebugWithFields("listing collected", map[string]interface{}{
		"subject":     s.String(),
		"ids":         len(ids),
		"termination": res.Termination.String(),
		"requests":    res.Requests,
	})
	return nil
}

func collectBatch(ctx context.Context, w io.Writer, listing string, subjects []twitter.Subject, list listFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	creds, err := credentials()
	if err != nil {
		return err
	}

	var (
		store   batch.Storage
		manager *storage.Manager
	)
	if outputDir != "" {
		manager, err = storage.NewManager(outputDir, ".ids")
		if err != nil {
			return err
		}
		store = manager
	}

	n := workers
	if n > len(subjects) {
		n = len(subjects)
	}

	var dash ui.Dashboard
	var terminal *tui.TUI
	if useTUI {
		terminal = tui.NewTUI(len(subjects), n)
		dash = terminal
	} else {
		dash = ui.NewProgressDisplay(ui.Output, len(subjects), cfg.Logging.Level == "debug")
	}

	// one client per worker, each with its own quota
	clients := make([]*twitter.Client, n)
	pool := batch.NewPool(n, func(id int) (batch.Fetcher, error) {
		client, err := buildClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		clients[id] = client
		return batch.FetchFunc(func(ctx context.Context, s twitter.Subject) (*twitter.Result[int64], error) {
			dash.StartJob(s.String(), s.String())
			return list(client, ctx, s, limit)
		}), nil
	}, store, log)

	if err := pool.Start(ctx); err != nil {
		return err
	}

	go func() {
		defer pool.Stop()
		for _, s := range subjects {
			if err := pool.Submit(batch.Job{Key: s.String(), Subject: s}); err != nil {
				return
			}
		}
	}()

	var (
		summary batchSummary
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		summary = report(pool.Results(), dash, clients)
	}()

	if terminal != nil {
		tuiDone := make(chan error, 1)
		go func() { tuiDone <- terminal.Start() }()
		select {
		case <-done:
			terminal.LogSuccess("%s: %d collected, %d unavailable, %d failed",
				listing, summary.collected, summary.unavailable, summary.failed)
			terminal.Done()
			time.Sleep(500 * time.Millisecond)
			terminal.Stop()
			<-tuiDone
		case err := <-tuiDone:
			// user quit: cancel the rest of the batch
			cancel()
			<-done
			if err != nil {
				return err
			}
		}
	} else {
		<-done
		dash.(*ui.ProgressDisplay).Complete()
	}

	if notify {
		ui.NewNotifier().BatchFinished(listing, summary.collected, summary.unavailable, summary.failed)
	}

	if manager != nil {
		log.WithField("dir", manager.OutputDir()).InfoWithFields("listings saved", map[string]interface{}{
			"saved": manager.SavedCount(),
		})
	} else {
		for _, r := range summary.results {
			for _, id := range r.IDs {
				fmt.Fprintf(w, "%s\t%d\n", r.Job.Key, id)
			}
		}
	}

	if ctx.Err() != nil && summary.collected+summary.unavailable+summary.failed < len(subjects) {
		return context.Canceled
	}
	if summary.failed > 0 {
		if summary.firstErr != nil && len(subjects) == 1 {
			return summary.firstErr
		}
		return fmt.Errorf("%d of %d subjects failed: %w", summary.failed, len(subjects), summary.firstErr)
	}
	return nil
}

type batchSummary struct {
	results     []batch.Result
	collected   int
	unavailable int
	failed      int
	firstErr    error
}

// report feeds results to the dashboard until the pool closes its results.
func report(results <-chan batch.Result, dash ui.Dashboard, clients []*twitter.Client) batchSummary {
	var summary batchSummary
	for r := range results {
		key := r.Job.Key
		switch {
		case r.Skipped:
			dash.StartJob(key, key)
			dash.SkipJob(key, "already saved")
			summary.collected++
		case r.Err == nil:
			dash.CompleteJob(key, len(r.IDs))
			summary.collected++
			summary.results = append(summary.results, r)
		case errs.IsUnavailable(r.Err):
			dash.SkipJob(key, r.Err.Error())
			unavailable(r.Job.Subject, r.Err)
			summary.unavailable++
		default:
			dash.FailJob(key, r.Err)
			log.WithField("subject", key).WithError(r.Err).Error("collection failed")
			summary.failed++
			if summary.firstErr == nil {
				summary.firstErr = r.Err
			}
		}

		if r.WorkerID >= 0 && r.WorkerID < len(clients) && clients[r.WorkerID] != nil {
			rate := clients[r.WorkerID].Tracker().Rate()
			if rate.Limit > 0 {
				dash.UpdateRateLimit(rate.Remaining, rate.Limit, rate.ResetAt)
			}
		}
	}
	return summary
}
