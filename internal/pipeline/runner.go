package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"murmur/internal/audio"
	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/inference"
	"murmur/internal/logging"
	"murmur/internal/merge"
	"murmur/internal/output"
	"murmur/internal/postfilter"
	"murmur/internal/segment"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// Options configures a Runner. Nil collaborators are built from Config.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	RunID   string
	Decoder audio.Decoder
	Backend BackendFactory
	// Cache is used as-is when set; the Runner does not close it.
	Cache *cache.Store
}

// Request describes one transcription run.
type Request struct {
	Input string
	// OutputDir overrides output.dir; empty falls back to the input's directory.
	OutputDir string
	// Formats overrides output.formats.
	Formats []string
	// AudioOut saves the decoded waveform as WAV when set.
	AudioOut string
	NoCache  bool
}

// Runner executes transcription runs.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	runID   string
	decoder audio.Decoder
	backend BackendFactory
	cache   *cache.Store
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "runner", "config is required", nil)
	}
	cfg := opts.Config
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	decoder := opts.Decoder
	if decoder == nil {
		decoder = audio.New(audio.Options{
			Mode:          cfg.Audio.Decoder,
			SampleRate:    cfg.Audio.SampleRate,
			FFmpegBinary:  cfg.Audio.FFmpegBinary,
			FFprobeBinary: cfg.Audio.FFprobeBinary,
			Language:      cfg.Inference.Language,
			Logger:        opts.Logger,
		})
	}
	backend := opts.Backend
	if backend == nil {
		backend = NewBackend
	}
	return &Runner{
		cfg:     cfg,
		logger:  logger,
		runID:   opts.RunID,
		decoder: decoder,
		backend: backend,
		cache:   opts.Cache,
	}, nil
}

// Run transcribes req.Input and writes the requested artifacts. The report
// is always returned; on failure it names the failed stage.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{RunID: r.runID, Input: req.Input, started: time.Now()}
	err := r.run(services.WithRunID(ctx, r.runID), req, report)
	report.ElapsedSecs = time.Since(report.started).Seconds()
	if err != nil {
		report.FailedStage = services.FailedStage(err)
		report.Error = err.Error()
		logging.ErrorWithContext(r.logger, "transcription failed", "run_failed", err,
			logging.String(logging.FieldStage, report.FailedStage),
		)
		return report, err
	}
	r.logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("segments", report.Segments),
		logging.Int("chunks", report.Chunks),
		logging.Int("cache_hits", report.CacheHits),
		logging.Int("gaps", len(report.Gaps)),
		logging.Float64("elapsed_seconds", report.ElapsedSecs),
	)
	return report, nil
}

func (r *Runner) run(ctx context.Context, req Request, report *Report) error {
	selectors := req.Formats
	if len(selectors) == 0 {
		selectors = r.cfg.Output.Formats
	}
	formats, err := output.ParseFormats(selectors)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Input) == "" {
		return services.Wrap(services.ErrValidation, services.StageDecode, "input", "input path is required", nil)
	}

	outDir := r.outputDir(req)
	lock, err := acquireOutputLock(outDir, req.Input)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Debug("output lock release failed", logging.Error(err))
		}
	}()

	var wave audio.Waveform
	if err := r.runStage(ctx, report, services.StageDecode, func(ctx context.Context, logger *slog.Logger) error {
		w, err := r.decoder.Decode(ctx, req.Input)
		if err != nil {
			return err
		}
		wave = w
		report.AudioSeconds = w.Duration()
		logger.Info("audio decoded",
			logging.Float64("audio_seconds", w.Duration()),
			logging.Int("sample_rate", w.SampleRate),
		)
		if req.AudioOut != "" {
			if err := audio.WriteWAV(req.AudioOut, w.Samples, w.SampleRate); err != nil {
				return services.Wrap(services.ErrDecode, services.StageDecode, "audio out", "write decoded audio", err)
			}
			report.AudioOut = req.AudioOut
		}
		return nil
	}); err != nil {
		return err
	}

	var chunks []segment.Chunk
	if err := r.runStage(ctx, report, services.StageSegment, func(ctx context.Context, logger *slog.Logger) error {
		planned, err := segment.Plan(wave, segment.OptionsFromConfig(r.cfg.Segmenter))
		if err != nil {
			return err
		}
		chunks = planned
		report.Chunks = len(planned)
		logger.Info("chunks planned", logging.Int("chunks", len(planned)))
		return nil
	}); err != nil {
		return err
	}

	merger := merge.New(merge.Options{Logger: r.logger})
	if err := r.runStage(ctx, report, services.StageInference, func(ctx context.Context, logger *slog.Logger) error {
		return r.transcribe(ctx, logger, req, wave, chunks, merger, report)
	}); err != nil {
		return err
	}

	var result transcript.Transcript
	if err := r.runStage(ctx, report, services.StageMerge, func(ctx context.Context, logger *slog.Logger) error {
		merged, err := merger.Transcript()
		if err != nil {
			return err
		}
		report.Merge = merger.Stats()
		if r.cfg.Output.FilterHallucinations {
			filtered := postfilter.Filter(merged)
			postfilter.LogSummary(ctx, logger, filtered)
			report.Filtered = filtered.Removals
			merged = filtered.Transcript
		}
		result = merged
		report.Segments = len(merged.Segments)
		report.Gaps = merged.Gaps
		report.LowConfidence = merged.LowConfidence(r.cfg.Output.LowConfidence)
		if n := len(report.LowConfidence); n > 0 {
			logging.WarnWithContext(logger, "low-confidence segments in transcript", "low_confidence",
				logging.Int("segments", n),
				logging.Float64("threshold", r.cfg.Output.LowConfidence),
				logging.String(logging.FieldImpact, "these passages may be misrecognized"),
				logging.String(logging.FieldErrorHint, "review them or retry with a larger model"),
			)
		}
		return nil
	}); err != nil {
		return err
	}

	return r.runStage(ctx, report, services.StageFormat, func(ctx context.Context, logger *slog.Logger) error {
		for _, f := range formats {
			path := output.Path(req.Input, outDir, f)
			if err := output.Write(path, result, f); err != nil {
				return err
			}
			report.Outputs = append(report.Outputs, Artifact{Format: f, Path: path})
			logger.Info("transcript written", logging.String("format", string(f)), logging.String("path", path))
		}
		return nil
	})
}

func (r *Runner) outputDir(req Request) string {
	if dir := strings.TrimSpace(req.OutputDir); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(r.cfg.Output.Dir); dir != "" {
		return dir
	}
	return filepath.Dir(req.Input)
}

// transcribe loads the engine and feeds every chunk result to merger in
// order.
func (r *Runner) transcribe(ctx context.Context, logger *slog.Logger, req Request, wave audio.Waveform, chunks []segment.Chunk, merger *merge.Merger, report *Report) error {
	backend, model, err := r.backend(r.cfg, logger)
	if err != nil {
		return err
	}
	workDir := filepath.Join(r.cfg.Paths.WorkDir, "run-"+r.runIDOrPID())
	engine := inference.New(backend, inference.Options{
		WorkDir:    workDir,
		SampleRate: wave.SampleRate,
		Model:      model,
		Language:   r.cfg.Inference.Language,
		BeamSize:   r.cfg.Inference.BeamSize,
		Logger:     logger,
	})
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("engine close failed", logging.Error(err))
		}
		_ = os.RemoveAll(workDir)
	}()
	identity := engine.Identity().String()
	report.Engine = identity

	store := r.openCache(ctx, logger, req.NoCache)
	if store != nil && store != r.cache {
		defer store.Close()
	}

	// Cache hits need no model, so the engine loads lazily on the first miss.
	partial := r.cfg.Inference.PartialOutput
	sampler := logging.NewProgressSampler(10)
	delivered := 0
	deliver := func(res chunkResult) error {
		delivered++
		chunkLogger := logger.With(logging.Int(logging.FieldChunkIndex, res.chunk.Index))
		if res.err != nil {
			if !partial {
				return res.err
			}
			logging.WarnWithContext(chunkLogger, "chunk failed; recorded as gap", "chunk_gap",
				logging.Error(res.err),
				logging.Float64("gap_start", res.chunk.CutStartSeconds()),
				logging.Float64("gap_end", res.chunk.CutEndSeconds()),
				logging.String(logging.FieldImpact, "the transcript has no text for this range"),
				logging.String(logging.FieldErrorHint, "rerun without partial output to fail fast, or raise inference.chunk_timeout_seconds"),
			)
			return merger.AddGap(res.chunk, gapReason(res.err))
		}
		if res.cached {
			report.CacheHits++
		}
		if err := merger.Add(res.chunk, res.segments); err != nil {
			return err
		}
		percent := float64(delivered) / float64(len(chunks)) * 100
		if sampler.ShouldLog(percent, services.StageInference) {
			chunkLogger.Info("inference progress",
				logging.String(logging.FieldEventType, "inference_progress"),
				logging.Int("completed", delivered),
				logging.Int("total", len(chunks)),
				logging.Float64("percent", percent),
			)
		}
		return nil
	}

	return dispatch(ctx, chunks, dispatchOptions{
		concurrency: r.cfg.Inference.Concurrency,
		failFast:    !partial,
	}, r.chunkWorker(engine, wave, store, identity, logger), deliver)
}

func (r *Runner) chunkWorker(engine *inference.Engine, wave audio.Waveform, store *cache.Store, identity string, logger *slog.Logger) chunkWork {
	timeout := time.Duration(r.cfg.ChunkTimeout()) * time.Second
	return func(ctx context.Context, chunk segment.Chunk) chunkResult {
		ctx = services.WithChunkIndex(ctx, chunk.Index)
		samples := chunk.Samples(wave)

		var key string
		if store != nil {
			key = cache.Key(identity, samples)
			segs, ok, err := store.Get(ctx, key)
			switch {
			case err != nil:
				logging.WithContext(ctx, logger).Warn("cache lookup failed", logging.Error(err))
			case ok:
				for i := range segs {
					segs[i].Chunk = chunk.Index
				}
				return chunkResult{chunk: chunk, segments: segs, cached: true}
			}
		}

		// model load is not charged to the chunk timeout
		if err := engine.Load(ctx); err != nil {
			return chunkResult{chunk: chunk, err: err}
		}
		runCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		segs, err := engine.Transcribe(runCtx, chunk.Index, samples)
		if err != nil {
			return chunkResult{chunk: chunk, err: err}
		}
		if store != nil {
			if err := store.Put(ctx, key, identity, chunk.Duration(), segs); err != nil {
				logging.WithContext(ctx, logger).Warn("cache store failed", logging.Error(err))
			}
		}
		return chunkResult{chunk: chunk, segments: segs}
	}
}

// openCache returns the configured cache, or nil when disabled or
// unavailable.
func (r *Runner) openCache(ctx context.Context, logger *slog.Logger, disabled bool) *cache.Store {
	if disabled || !r.cfg.Cache.Enabled {
		return nil
	}
	if r.cache != nil {
		return r.cache
	}
	store, err := cache.Open(ctx, r.cfg.Cache.Path)
	if err != nil {
		logging.WarnWithContext(logger, "chunk cache unavailable", "cache_unavailable",
			logging.Error(err),
			logging.String("path", r.cfg.Cache.Path),
			logging.String(logging.FieldImpact, "every chunk runs inference"),
			logging.String(logging.FieldErrorHint, "check cache.path or run murmur cache clear"),
		)
		return nil
	}
	return store
}

func (r *Runner) runIDOrPID() string {
	if r.runID != "" {
		return r.runID
	}
	return fmt.Sprintf("pid%d", os.Getpid())
}

func gapReason(err error) string {
	var stageErr *services.StageError
	if errors.As(err, &stageErr) && stageErr.Message != "" {
		if stageErr.Err != nil {
			return stageErr.Message + ": " + stageErr.Err.Error()
		}
		return stageErr.Message
	}
	return err.Error()
}
