package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dubber/internal/config"
	"dubber/internal/dubbing"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/notifications"
)

type dubFlags struct {
	input        string
	output       string
	voice        string
	workers      int
	gain         float64
	targetLang   string
	segments     string
	keepWork     bool
	overwrite    bool
	keepDubAudio bool
}

func newDubCommand(ctx *commandContext) *cobra.Command {
	var flags dubFlags

	cmd := &cobra.Command{
		Use:   "dub",
		Short: "Transcribe, translate, synthesize and remux a video",
		Example: `  dubber dub --input talk.mp4 --output talk.ru.mp4
  dubber dub --input talk.mp4 --output talk.de.mp4 --target-lang de --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyDubFlags(cmd, cfg, flags); err != nil {
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

			notifier := notifications.NewService(cfg)
			result, err := pipeline.Run(cmd.Context(), dubbing.Options{
				InputPath:    flags.input,
				OutputPath:   flags.output,
				SegmentsPath: flags.segments,
				KeepWork:     flags.keepWork,
				Overwrite:    flags.overwrite,
				ProgressOut:  os.Stderr,
			})
			notifyRun(cmd, logger, notifier, cfg.DeepL.TargetLang, flags.input, result, err)
			if err != nil {
				return err
			}
			printDubSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Source video")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Destination video")
	cmd.Flags().StringVar(&flags.voice, "voice", "", "ElevenLabs voice ID (overrides elevenlabs.voice_id)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Concurrent translate+synthesize units (overrides dubbing.workers)")
	cmd.Flags().Float64Var(&flags.gain, "gain", 0, "Linear gain applied to the dub track (overrides output.gain)")
	cmd.Flags().StringVarP(&flags.targetLang, "target-lang", "t", "", "Target language, e.g. RU, de, pt-BR (overrides deepl.target_lang)")
	cmd.Flags().StringVar(&flags.segments, "segments", "", "Load segments from a WhisperX JSON file instead of transcribing")
	cmd.Flags().BoolVar(&flags.keepWork, "keep-work", false, "Keep the per-run work directory")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace the output if it exists")
	cmd.Flags().BoolVar(&flags.keepDubAudio, "keep-dub-audio", false, "Also write the dub track as <output>.dub.wav")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// applyDubFlags layers explicitly set flags over cfg and revalidates.
func applyDubFlags(cmd *cobra.Command, cfg *config.Config, flags dubFlags) error {
	changed := cmd.Flags().Changed
	if changed("voice") {
		cfg.ElevenLabs.VoiceID = strings.TrimSpace(flags.voice)
	}
	if changed("workers") {
		cfg.Dubbing.Workers = flags.workers
	}
	if changed("gain") {
		cfg.Output.Gain = flags.gain
	}
	if changed("target-lang") {
		target, err := language.DeepLTarget(flags.targetLang)
		if err != nil {
			return fmt.Errorf("--target-lang: %w", err)
		}
		cfg.DeepL.TargetLang = target
	}
	if changed("keep-dub-audio") {
		cfg.Output.KeepDubAudio = flags.keepDubAudio
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func printDubSummary(cmd *cobra.Command, result dubbing.Result) {
	cache := result.Cache
	rows := [][]string{
		{"Output", result.OutputPath},
		{"Segments", fmt.Sprintf("%d", result.Segments)},
		{"Dub track", fmt.Sprintf("%.1fs", result.DubSeconds)},
		{"Translations", fmt.Sprintf("%d fetched, %d reused", cache.Calls, cache.Hits+cache.StoreHits)},
		{"Elapsed", result.Elapsed.Round(100 * time.Millisecond).String()},
	}
	if result.DubAudioPath != "" {
		rows = append(rows, []string{"Dub audio", result.DubAudioPath})
	}
	fmt.Fprint(cmd.OutOrStdout(), fieldsTable("Run "+shortRunID(result.RunID), rows))
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// notifyRun publishes the run outcome. Interrupted runs are not reported and
// notification failures only warn.
func notifyRun(cmd *cobra.Command, logger *slog.Logger, notifier notifications.Service, targetLang, input string, result dubbing.Result, runErr error) {
	if errors.Is(runErr, context.Canceled) {
		return
	}
	ctx := context.WithoutCancel(cmd.Context())
	var err error
	if runErr != nil {
		err = notifier.NotifyDubFailed(ctx, input, runErr)
	} else {
		err = notifier.NotifyDubCompleted(ctx, notifications.RunSummary{
			InputPath:  input,
			OutputPath: result.OutputPath,
			TargetLang: targetLang,
			Segments:   result.Segments,
			Elapsed:    result.Elapsed,
		})
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "run outcome not delivered to ntfy"),
		)
	}
}
