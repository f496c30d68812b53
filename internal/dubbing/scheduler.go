package dubbing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"dubber/internal/audio"
	"dubber/internal/logging"
	"dubber/internal/services"
	"dubber/internal/textutil"
)

const scheduleStage = "synthesis"

// Synthesizer renders target-language text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*audio.Buffer, error)
}

// SchedulerConfig controls the worker pool.
type SchedulerConfig struct {
	// Workers caps the number of units in flight.
	Workers int
	// SampleRate is the rate every clip is converted to.
	SampleRate int
	// UnitTimeout bounds one translate+synthesize unit; zero disables it.
	UnitTimeout time.Duration
	// ClipPath names the file a unit persists its clip to. When nil, clips
	// stay in memory.
	ClipPath func(index int) string
}

// Scheduler runs one translate, synthesize and align unit per segment on a
// bounded pool and hands finished clips to the caller in completion order.
type Scheduler struct {
	cache    *TranslationCache
	synth    Synthesizer
	cfg      SchedulerConfig
	logger   *slog.Logger
	progress Progress
	saveClip func(path string, b *audio.Buffer) error
}

// NewScheduler constructs a scheduler. Workers below one are raised to one.
func NewScheduler(cache *TranslationCache, synth Synthesizer, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scheduler{
		cache:    cache,
		synth:    synth,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		progress: noProgress{},
		saveClip: audio.SaveWAV,
	}
}

// WithProgress installs a progress reporter.
func (s *Scheduler) WithProgress(p Progress) {
	if p != nil {
		s.progress = p
	}
}

// Run produces exactly one PaddedClip per segment and passes each to emit
// from the calling goroutine. Clips arrive in completion order; ordering is
// the consumer's job. The first unit failure cancels the remaining units and
// Run returns a *SegmentError naming every failed index. An emit error also
// aborts the run and is returned as is.
func (s *Scheduler) Run(ctx context.Context, segments []Segment, emit func(PaddedClip) error) error {
	if err := ValidateSegments(segments); err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Workers)

	results := make(chan PaddedClip, s.cfg.Workers)
	var (
		mu       sync.Mutex
		failures []SegmentFailure
		started  atomic.Int64
	)

	go func() {
		defer close(results)
		for _, seg := range segments {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				started.Add(1)
				clip, err := s.runUnit(gctx, seg)
				if err != nil {
					if !aborted(gctx, err) {
						mu.Lock()
						failures = append(failures, SegmentFailure{Index: seg.Index, Err: err})
						mu.Unlock()
					}
					return err
				}
				select {
				case results <- clip:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		_ = g.Wait()
	}()

	var emitErr error
	done := 0
	for clip := range results {
		if emitErr != nil {
			continue
		}
		if err := emit(clip); err != nil {
			emitErr = err
			cancel()
			continue
		}
		done++
		s.progress.Step(done, len(segments))
	}
	s.progress.Done()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
		return &SegmentError{Failures: failures, Skipped: len(segments) - int(started.Load())}
	}
	if emitErr != nil {
		return emitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// aborted reports errors caused only by the group being cancelled, either
// after another unit or the consumer failed or because the caller gave up.
func aborted(gctx context.Context, err error) bool {
	return gctx.Err() != nil && errors.Is(err, context.Canceled)
}

// speak translates and synthesizes one segment. Segments without letters or
// digits and empty translations produce an empty buffer, which pads to silence.
func (s *Scheduler) speak(unitCtx, parent context.Context, logger *slog.Logger, seg Segment) (*audio.Buffer, error) {
	if !textutil.HasSpeech(seg.Text) {
		logger.Debug("segment has no speech; left silent", logging.String("source_text", seg.Text))
		return audio.New(s.cfg.SampleRate), nil
	}

	translated, err := s.cache.Translate(unitCtx, seg.Text)
	if err != nil {
		return nil, s.unitError(unitCtx, parent, "translate", err)
	}
	if strings.TrimSpace(translated) == "" {
		logging.WarnWithContext(logger, "translation is empty; segment left silent", "empty_translation",
			logging.String("source_text", seg.Text),
			logging.String(logging.FieldErrorHint, "check the source text and target language"),
			logging.String(logging.FieldImpact, "no dubbed speech for this segment"),
		)
		return audio.New(s.cfg.SampleRate), nil
	}

	speech, err := s.synth.Synthesize(unitCtx, translated)
	if err != nil {
		return nil, s.unitError(unitCtx, parent, "synthesize", err)
	}
	if speech == nil {
		return audio.New(s.cfg.SampleRate), nil
	}
	if speech.SampleRate != s.cfg.SampleRate {
		speech = audio.Resample(speech, s.cfg.SampleRate)
	}
	return speech, nil
}

func (s *Scheduler) runUnit(ctx context.Context, seg Segment) (PaddedClip, error) {
	unitCtx := services.WithSegmentIndex(services.WithStage(ctx, scheduleStage), seg.Index)
	if s.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(unitCtx, s.cfg.UnitTimeout)
		defer cancel()
	}
	logger := logging.WithContext(unitCtx, s.logger)
	if seg.End <= seg.Start {
		logger.Debug("segment end does not follow start",
			logging.Float64("start", seg.Start),
			logging.Float64("end", seg.End),
		)
	}

	speech, err := s.speak(unitCtx, ctx, logger, seg)
	if err != nil {
		return PaddedClip{}, err
	}

	clip := NewPaddedClip(seg.Index, seg.Start, speech)
	if s.cfg.ClipPath != nil {
		path := s.cfg.ClipPath(seg.Index)
		if err := s.saveClip(path, speech); err != nil {
			return PaddedClip{}, services.Wrap(services.ErrFilesystem, scheduleStage, "persist clip", path, err)
		}
		clip.Path = path
		clip.Audio = nil
	}

	logger.Debug("segment synthesized",
		logging.Float64("start", seg.Start),
		logging.Float64("clip_seconds", speech.Duration()),
		logging.Float64("padded_seconds", clip.Duration()),
	)
	return clip, nil
}

// unitError turns a unit's own deadline into a timeout error and leaves
// everything else as the collaborator reported it.
func (s *Scheduler) unitError(unitCtx, parent context.Context, op string, err error) error {
	if errors.Is(unitCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, scheduleStage, op,
			fmt.Sprintf("unit exceeded %s", s.cfg.UnitTimeout), err)
	}
	return err
}
