package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"roost/pkg/storage"
	"roost/pkg/stream"
	"roost/pkg/ui"
)

var (
	// Stream command flags; merged into the config by setup
	trackTerms   []string
	streamOutput string
)

// streamCmd represents the stream command
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Collect the filter stream into a file",
	Long: `Connect to the filter stream with the given track terms and append every
object to the output file as one compact JSON line.

The run ends when stream.timeout elapses (default 3h) or on Ctrl-C. Dropped
connections are re-established with backoff up to stream.max_reconnects
times. A malformed object ends the run with an error.`,
	Example: `  roost stream --track golang,rustlang --output stream.jsonl`,
	Args:    cobra.NoArgs,
	RunE:    runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().StringSliceVarP(&trackTerms, "track", "t", nil, "comma separated terms to track")
	streamCmd.Flags().StringVarP(&streamOutput, "output", "o", "", "file to append objects to")
}

func runStream(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cfg.Stream.OutputFile == "" {
		return errors.New("an output file is required (--output or stream.output_file)")
	}

	creds, err := credentials()
	if err != nil {
		return err
	}

	out, err := storage.OpenAppender(cfg.Stream.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	s, err := stream.New(creds, cfg, out,
		stream.WithLogger(log),
		stream.WithRecorder(collector),
	)
	if err != nil {
		return err
	}

	ui.PrintInfo("Tracking", fmt.Sprintf("%v", cfg.Stream.Track))
	ui.PrintInfo("Output", out.Path())

	runErr := s.Run(ctx)
	if err := out.Sync(); err != nil && runErr == nil {
		runErr = err
	}

	ui.PrintInfo("Objects collected", fmt.Sprintf("%d", out.Count()))
	if runErr != nil && ctx.Err() != nil {
		// interrupted by the user
		return nil
	}
	return runErr
}
