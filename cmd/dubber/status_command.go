package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dubber/internal/preflight"
	"dubber/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check external tools, API credentials and leftover work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			depRows := [][]string{}
			for _, status := range preflight.CheckSystemDeps(cfg, true) {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
				}
				detail := status.Command
				if status.Detail != "" && !status.Available {
					detail = status.Detail
				}
				depRows = append(depRows, []string{status.Name, state, detail})
			}
			fmt.Fprint(out, tableView{Title: "Dependencies", Headers: []string{"Tool", "Status", "Detail"}, Rows: depRows}.render())

			if err := cfg.RequireCredentials(); err != nil {
				fmt.Fprintf(out, "\nCredentials: %v\n", err)
			} else if !offline {
				checkCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				results := preflight.CheckCredentials(checkCtx, cfg)
				cancel()
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
				}
				fmt.Fprintln(out)
				fmt.Fprint(out, tableView{Title: "Credentials", Headers: []string{"Service", "OK", "Detail"}, Rows: rows}.render())
			}

			dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
			if err != nil {
				return fmt.Errorf("list work directories: %w", err)
			}
			fmt.Fprintf(out, "\nWork directory: %s\n", cfg.Paths.WorkDir)
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No leftover run directories")
				return nil
			}
			var total int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				total += dir.Size
				rows = append(rows, []string{dir.Name, formatWhen(dir.ModTime), humanize.IBytes(uint64(max(dir.Size, 0)))})
			}
			fmt.Fprint(out, tableView{
				Headers: []string{"Run", "Modified", "Size"},
				Rows:    rows,
				Align:   []columnAlignment{alignLeft, alignRight, alignRight},
				Footer:  []string{fmt.Sprintf("%d directories", len(dirs)), "", humanize.IBytes(uint64(max(total, 0)))},
			}.render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the DeepL and ElevenLabs API checks")
	return cmd
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
