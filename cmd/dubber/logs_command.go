package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dubber/internal/logging"
	"dubber/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the JSON run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			runCtx := cmd.Context()

			opts := logs.TailOptions{Offset: -1, Limit: max(lines, 0)}
			if lines <= 0 || !filter.Empty() {
				// Filtering happens before the line limit, so read everything.
				opts = logs.TailOptions{Offset: 0}
			}
			result, err := logs.Tail(runCtx, path, opts)
			if err != nil {
				return fmt.Errorf("read run log: %w", err)
			}
			initial := filter.Apply(result.Lines)
			if lines > 0 && len(initial) > lines {
				initial = initial[len(initial)-lines:]
			}
			for _, line := range initial {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(initial) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			offset := result.Offset
			for {
				next, err := logs.Tail(runCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: time.Second})
				if err != nil {
					if errors.Is(err, runCtx.Err()) {
						return nil
					}
					return fmt.Errorf("follow run log: %w", err)
				}
				for _, line := range filter.Apply(next.Lines) {
					fmt.Fprintln(out, line)
				}
				offset = next.Offset
				if runCtx.Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show records whose run ID starts with this prefix")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level to show (debug, info, warn, error)")
	return cmd
}
