package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/dubbing"
	"dubber/internal/services/whisperx"
)

type segmentView struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var input, file string
	var asJSON, keepWork bool

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Transcribe a video and print its speech segments",
		Long: `Extracts the audio track, runs WhisperX and prints the resulting segments.
With --file, an existing WhisperX JSON file is read instead; no external tools run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var segments []dubbing.Segment
			switch {
			case strings.TrimSpace(file) != "":
				loaded, err := whisperx.LoadSegments(file)
				if err != nil {
					return err
				}
				segments = dubbing.SegmentsFromTranscript(loaded)
			case strings.TrimSpace(input) != "":
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				pipeline, err := dubbing.NewPipeline(cfg, logger)
				if err != nil {
					return err
				}
				defer pipeline.Close()
				segments, err = pipeline.Transcribe(cmd.Context(), input, keepWork)
				if err != nil {
					return err
				}
			default:
				return errors.New("either --input or --file is required")
			}
			return printSegments(cmd, segments, asJSON)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Source video to transcribe")
	cmd.Flags().StringVarP(&file, "file", "f", "", "WhisperX JSON file to display")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print segments as JSON")
	cmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep the work directory with the extracted audio")
	cmd.MarkFlagsMutuallyExclusive("input", "file")
	return cmd
}

func printSegments(cmd *cobra.Command, segments []dubbing.Segment, asJSON bool) error {
	views := make([]segmentView, 0, len(segments))
	for _, seg := range segments {
		views = append(views, segmentView{Index: seg.Index, Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	if asJSON {
		return writeJSON(cmd, map[string]any{"segments": views})
	}

	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No speech segments found")
		return nil
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			fmt.Sprintf("%d", v.Index),
			formatTimestamp(v.Start),
			formatTimestamp(v.End),
			v.Text,
		})
	}
	fmt.Fprint(out, tableView{
		Headers: []string{"#", "Start", "End", "Text"},
		Rows:    rows,
		Align:   []columnAlignment{alignRight, alignRight, alignRight, alignLeft},
		Footer:  []string{"", "", "", fmt.Sprintf("%d segments", len(views))},
	}.render())
	return nil
}

// formatTimestamp renders seconds as H:MM:SS.mmm.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms%1000)
}
