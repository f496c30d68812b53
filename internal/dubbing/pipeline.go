package dubbing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dubber/internal/audio"
	"dubber/internal/config"
	"dubber/internal/fileutil"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/media/ffprobe"
	"dubber/internal/preflight"
	"dubber/internal/services"
	"dubber/internal/services/deepl"
	"dubber/internal/services/elevenlabs"
	"dubber/internal/services/httpretry"
	"dubber/internal/services/whisperx"
	"dubber/internal/staging"
	"dubber/internal/transcache"
)

// Stage names reported in errors and logs.
const (
	StagePreflight     = "preflight"
	StageProbe         = "probe"
	StageExtract       = "extract"
	StageTranscription = "transcription"
	StageSynthesis     = scheduleStage
	StageMerge         = mergeStage
	StageLoudness      = "loudness"
	StageRemux         = "remux"
	StageVerify        = "verify"
)

// TranscriptionSampleRate is the rate WhisperX expects.
const TranscriptionSampleRate = 16000

const staleRunAge = 24 * time.Hour

// Transcriber turns extracted audio into ordered segments.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir string) ([]whisperx.Segment, error)
}

// Media runs the encoder-side steps.
type Media interface {
	ExtractAudio(ctx context.Context, source, dest string, sampleRate int) error
	Remux(ctx context.Context, req ffmpeg.RemuxRequest) error
}

// Prober inspects a media file.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Options describe one dubbing run.
type Options struct {
	InputPath  string
	OutputPath string
	// SegmentsPath loads pre-made segments instead of running WhisperX.
	SegmentsPath string
	KeepWork     bool
	Overwrite    bool
	// ProgressOut receives a progress bar when it is a terminal.
	ProgressOut *os.File
}

// Result summarizes a finished run.
type Result struct {
	RunID         string
	OutputPath    string
	DubAudioPath  string
	Segments      int
	DubSeconds    float64
	OutputSeconds float64
	Cache         CacheStats
	Elapsed       time.Duration
}

// Pipeline wires the collaborators of a dubbing run around the scheduler
// and merger. Build one with NewPipeline and release it with Close.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	translator  Translator
	synthesizer Synthesizer
	transcriber Transcriber
	media       Media
	probe       Prober
	store       TranslationStore
	closeStore  func() error
	targetLang  string
	skipChecks  bool
	usesUVX     bool
	credErr     error
}

// Option overrides a collaborator, mainly for tests.
type Option func(*Pipeline)

// WithTranslator replaces the DeepL client.
func WithTranslator(t Translator) Option { return func(p *Pipeline) { p.translator = t } }

// WithSynthesizer replaces the ElevenLabs client.
func WithSynthesizer(s Synthesizer) Option { return func(p *Pipeline) { p.synthesizer = s } }

// WithTranscriber replaces WhisperX.
func WithTranscriber(t Transcriber) Option { return func(p *Pipeline) { p.transcriber = t } }

// WithMedia replaces the ffmpeg runner.
func WithMedia(m Media) Option { return func(p *Pipeline) { p.media = m } }

// WithProber replaces ffprobe.
func WithProber(probe Prober) Option { return func(p *Pipeline) { p.probe = probe } }

// WithStore replaces the persistent translation cache.
func WithStore(s TranslationStore) Option { return func(p *Pipeline) { p.store = s } }

// WithoutBinaryChecks skips the ffmpeg/ffprobe/uvx preflight lookup. Used
// when Media and Prober are replaced.
func WithoutBinaryChecks() Option { return func(p *Pipeline) { p.skipChecks = true } }

// NewPipeline builds real clients for any collaborator not supplied through
// opts. Missing API keys do not fail construction, so Transcribe works
// offline; Run reports them before touching anything.
func NewPipeline(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, stageErr(StagePreflight, services.Wrap(services.ErrConfiguration, StagePreflight, "init", "configuration required", nil))
	}
	targetLang, err := language.DeepLTarget(cfg.DeepL.TargetLang)
	if err != nil {
		return nil, stageErr(StagePreflight, services.Wrap(services.ErrConfiguration, StagePreflight, "init", "target language", err))
	}
	p := &Pipeline{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		targetLang: targetLang,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.buildDefaults(logger); err != nil {
		_ = p.Close()
		return nil, stageErr(StagePreflight, err)
	}
	return p, nil
}

func (p *Pipeline) buildDefaults(logger *slog.Logger) error {
	cfg := p.cfg
	policy := httpretry.DefaultPolicy()
	policy.MaxAttempts = cfg.Dubbing.RetryAttempts

	if p.translator == nil || p.synthesizer == nil {
		if err := cfg.RequireCredentials(); err != nil {
			// Transcription still works; Run refuses to start.
			p.credErr = services.Wrap(services.ErrConfiguration, StagePreflight, "credentials", "API keys required", err)
		}
	}
	if p.translator == nil && p.credErr == nil {
		sourceLang := ""
		if cfg.DeepL.SourceLang != "" {
			sourceLang, _ = language.DeepLSource(cfg.DeepL.SourceLang)
		}
		p.translator = deepl.NewClient(deepl.Config{
			APIKey:         cfg.DeepL.APIKey,
			BaseURL:        cfg.DeepL.BaseURL,
			SourceLang:     sourceLang,
			TimeoutSeconds: cfg.DeepL.TimeoutSeconds,
		}, deepl.WithRetryPolicy(policy), deepl.WithLogger(logger))
	}
	if p.synthesizer == nil && p.credErr == nil {
		client, err := elevenlabs.NewClient(elevenlabs.Config{
			APIKey:          cfg.ElevenLabs.APIKey,
			BaseURL:         cfg.ElevenLabs.BaseURL,
			VoiceID:         cfg.ElevenLabs.VoiceID,
			ModelID:         cfg.ElevenLabs.ModelID,
			OutputFormat:    cfg.ElevenLabs.OutputFormat,
			Stability:       cfg.ElevenLabs.Stability,
			SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
			TimeoutSeconds:  cfg.ElevenLabs.TimeoutSeconds,
		}, elevenlabs.WithRetryPolicy(policy), elevenlabs.WithLogger(logger))
		if err != nil {
			return err
		}
		p.synthesizer = client
	}
	if p.transcriber == nil {
		p.usesUVX = true
		p.transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			Language:    cfg.WhisperX.Language,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
		}, cfg.UVXBinary(), logger)
	}
	if p.media == nil {
		p.media = ffmpeg.New(cfg.FFmpegBinary(), logger)
	}
	if p.probe == nil {
		binary := cfg.FFprobeBinary()
		p.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		}
	}
	if p.store == nil && cfg.Cache.Enabled {
		store, err := transcache.Open(cfg.Paths.CachePath)
		if err != nil {
			logging.WarnWithContext(p.logger, "translation cache unavailable", "cache_open_failed",
				logging.String("path", cfg.Paths.CachePath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the cache database or set cache.enabled = false"),
				logging.String(logging.FieldImpact, "translations are not reused across runs"),
			)
		} else {
			p.store = store
			p.closeStore = store.Close
		}
	}
	return nil
}

// Close releases the persistent cache.
func (p *Pipeline) Close() error {
	if p == nil || p.closeStore == nil {
		return nil
	}
	err := p.closeStore()
	p.closeStore = nil
	return err
}

// Run executes the full pipeline: extract, transcribe, translate and
// synthesize in parallel, merge in index order, apply gain and remux.
// The work directory is removed on every path unless KeepWork is set.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	result := Result{RunID: runID, OutputPath: opts.OutputPath}

	if p.credErr != nil {
		return result, stageErr(StagePreflight, p.credErr)
	}
	if err := p.preflight(opts); err != nil {
		return result, stageErr(StagePreflight, err)
	}

	lock := flock.New(opts.OutputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return result, stageErr(StagePreflight, services.Wrap(services.ErrFilesystem, StagePreflight, "lock output", lock.Path(), err))
	}
	if !locked {
		return result, stageErr(StagePreflight, services.Wrap(services.ErrValidation, StagePreflight, "lock output",
			fmt.Sprintf("another run is writing %s", opts.OutputPath), nil))
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	staging.CleanStale(ctx, p.cfg.Paths.WorkDir, staleRunAge, p.logger)
	ws, err := staging.NewWorkspace(p.cfg.Paths.WorkDir, shortID(runID), opts.KeepWork, p.logger)
	if err != nil {
		return result, stageErr(StagePreflight, err)
	}
	defer ws.Close()

	logger.Info("dubbing started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input", opts.InputPath),
		logging.String("output", opts.OutputPath),
		logging.String("target_lang", p.targetLang),
		logging.Int("workers", p.cfg.Dubbing.Workers),
		logging.String("work_dir", ws.Dir()),
	)

	probe, err := p.probe(services.WithStage(ctx, StageProbe), opts.InputPath)
	if err != nil {
		return result, stageErr(StageProbe, err)
	}
	if probe.VideoStreamCount() == 0 {
		return result, stageErr(StageProbe, services.Wrap(services.ErrValidation, StageProbe, "inspect input",
			"input has no video stream", nil))
	}

	segments, err := p.loadSegments(ctx, opts.InputPath, opts.SegmentsPath, ws)
	if err != nil {
		return result, err
	}
	if len(segments) == 0 {
		return result, stageErr(StageTranscription, services.Wrap(services.ErrValidation, StageTranscription, "segments",
			"no speech segments found; nothing to dub", nil))
	}
	result.Segments = len(segments)

	cache := NewTranslationCache(p.translator, p.targetLang, p.store, p.logger)
	master, err := p.synthesizeAndMerge(ctx, segments, cache, ws, opts.ProgressOut)
	result.Cache = cache.Stats()
	if err != nil {
		return result, err
	}
	result.DubSeconds = master.Duration()

	if err := audio.SaveWAV(ws.RawDubPath(), master); err != nil {
		return result, stageErr(StageMerge, services.Wrap(services.ErrFilesystem, StageMerge, "save raw dub", ws.RawDubPath(), err))
	}
	loud := audio.Gain(master, p.cfg.Output.Gain)
	if err := audio.SaveWAV(ws.LoudDubPath(), loud); err != nil {
		return result, stageErr(StageLoudness, services.Wrap(services.ErrFilesystem, StageLoudness, "save gained dub", ws.LoudDubPath(), err))
	}

	if err := p.media.Remux(services.WithStage(ctx, StageRemux), ffmpeg.RemuxRequest{
		VideoPath:  opts.InputPath,
		AudioPath:  ws.LoudDubPath(),
		OutputPath: opts.OutputPath,
		AudioCodec: p.cfg.Output.AudioCodec,
	}); err != nil {
		return result, stageErr(StageRemux, err)
	}

	verified, err := p.verify(ctx, opts.OutputPath)
	if err != nil {
		return result, stageErr(StageVerify, err)
	}
	result.OutputSeconds = verified.DurationSeconds()

	if p.cfg.Output.KeepDubAudio {
		dest := DubAudioPath(opts.OutputPath)
		if err := fileutil.CopyFileVerified(ws.LoudDubPath(), dest); err != nil {
			logging.WarnWithContext(logger, "failed to keep dubbed audio", "keep_dub_audio_failed",
				logging.String("path", dest),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the output directory permissions"),
				logging.String(logging.FieldImpact, "standalone dub track not saved"),
			)
		} else {
			result.DubAudioPath = dest
		}
	}

	result.Elapsed = time.Since(started)
	logger.Info("dubbing complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", opts.OutputPath),
		logging.Int("segments", result.Segments),
		logging.Float64("dub_seconds", result.DubSeconds),
		logging.Float64("output_seconds", result.OutputSeconds),
		logging.Int64("translation_calls", result.Cache.Calls),
		logging.Int64("cache_hits", result.Cache.Hits+result.Cache.StoreHits),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// Transcribe extracts audio from input and returns its speech segments
// without translating anything.
func (p *Pipeline) Transcribe(ctx context.Context, inputPath string, keepWork bool) ([]Segment, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	if result := preflight.CheckInputFile("Input video", inputPath); !result.Passed {
		return nil, stageErr(StagePreflight, services.Wrap(services.ErrFilesystem, StagePreflight, "input", result.Detail, nil))
	}
	ws, err := staging.NewWorkspace(p.cfg.Paths.WorkDir, shortID(runID), keepWork, p.logger)
	if err != nil {
		return nil, stageErr(StagePreflight, err)
	}
	defer ws.Close()
	return p.loadSegments(ctx, inputPath, "", ws)
}

func (p *Pipeline) preflight(opts Options) error {
	if strings.TrimSpace(opts.InputPath) == "" || strings.TrimSpace(opts.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, StagePreflight, "arguments", "input and output paths are required", nil)
	}
	if sameFile(opts.InputPath, opts.OutputPath) {
		return services.Wrap(services.ErrValidation, StagePreflight, "arguments", "output must differ from input", nil)
	}
	if opts.SegmentsPath != "" {
		if result := preflight.CheckInputFile("Segments file", opts.SegmentsPath); !result.Passed {
			return services.Wrap(services.ErrFilesystem, StagePreflight, "segments file", result.Detail, nil)
		}
	}
	req := preflight.Request{
		InputPath:    opts.InputPath,
		OutputPath:   opts.OutputPath,
		Overwrite:    opts.Overwrite || p.cfg.Output.Overwrite,
		NeedWhisperX: p.usesUVX && opts.SegmentsPath == "",
	}
	if p.skipChecks {
		for _, result := range preflight.RunAll(p.cfg, req) {
			if !result.Passed {
				return services.Wrap(services.ErrFilesystem, StagePreflight, "run", fmt.Sprintf("%s: %s", result.Name, result.Detail), nil)
			}
		}
		return nil
	}
	return preflight.Run(p.cfg, req)
}

func (p *Pipeline) loadSegments(ctx context.Context, inputPath, segmentsPath string, ws *staging.Workspace) ([]Segment, error) {
	logger := logging.WithContext(ctx, p.logger)
	if segmentsPath != "" {
		loaded, err := whisperx.LoadSegments(segmentsPath)
		if err != nil {
			return nil, stageErr(StageTranscription, err)
		}
		logger.Info("segments loaded from file",
			logging.String("path", segmentsPath),
			logging.Int("segments", len(loaded)),
		)
		return SegmentsFromTranscript(loaded), nil
	}

	if err := p.media.ExtractAudio(services.WithStage(ctx, StageExtract), inputPath, ws.AudioPath(), TranscriptionSampleRate); err != nil {
		return nil, stageErr(StageExtract, err)
	}
	transcript, err := p.transcriber.Transcribe(services.WithStage(ctx, StageTranscription), ws.AudioPath(), ws.TranscriptDir())
	if err != nil {
		return nil, stageErr(StageTranscription, err)
	}
	return SegmentsFromTranscript(transcript), nil
}

func (p *Pipeline) synthesizeAndMerge(ctx context.Context, segments []Segment, cache *TranslationCache, ws *staging.Workspace, progressOut *os.File) (*audio.Buffer, error) {
	rate := p.cfg.Dubbing.SampleRate
	scheduler := NewScheduler(cache, p.synthesizer, SchedulerConfig{
		Workers:     p.cfg.Dubbing.Workers,
		SampleRate:  rate,
		UnitTimeout: p.cfg.UnitTimeout(),
		ClipPath:    ws.ClipPath,
	}, p.logger)
	scheduler.WithProgress(NewProgress(progressOut, len(segments), p.logger))

	merger := NewMerger(len(segments), rate, p.logger)
	emit := func(clip PaddedClip) error {
		if err := merger.Add(clip); err != nil {
			return stageErr(StageMerge, err)
		}
		return nil
	}
	if err := scheduler.Run(ctx, segments, emit); err != nil {
		var stageFailure *StageError
		if errors.As(err, &stageFailure) {
			return nil, err
		}
		var segErr *SegmentError
		if errors.As(err, &segErr) {
			logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "segments failed", "segments_failed",
				logging.Any("failed_indices", segErr.Indices()),
				logging.Int("not_attempted", segErr.Skipped),
				logging.String(logging.FieldErrorHint, services.Hint(segErr.Failures[0].Err)),
			)
		}
		return nil, stageErr(StageSynthesis, err)
	}
	master, err := merger.Finish()
	if err != nil {
		return nil, stageErr(StageMerge, err)
	}
	return master, nil
}

func (p *Pipeline) verify(ctx context.Context, outputPath string) (ffprobe.Result, error) {
	result, err := p.probe(services.WithStage(ctx, StageVerify), outputPath)
	if err != nil {
		return result, err
	}
	if result.VideoStreamCount() < 1 || result.AudioStreamCount() != 1 {
		return result, services.Wrap(services.ErrExternalTool, StageVerify, "inspect output",
			fmt.Sprintf("expected video plus one audio stream, found video=%d audio=%d",
				result.VideoStreamCount(), result.AudioStreamCount()), nil)
	}
	logging.WithContext(ctx, p.logger).Debug("output verified", logging.String("probe", result.String()))
	return result, nil
}

// DubAudioPath names the standalone dub track kept next to an output video.
func DubAudioPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".dub.wav"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
