package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/theohartsook/go-forth-and-measure/internal/ffmpeg"
	"github.com/theohartsook/go-forth-and-measure/internal/flightlog"
	"github.com/theohartsook/go-forth-and-measure/internal/gpmf"
	"github.com/theohartsook/go-forth-and-measure/internal/sidecar"
	"github.com/theohartsook/go-forth-and-measure/internal/storage"
	"github.com/theohartsook/go-forth-and-measure/internal/tagging"
	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

const (
	framesDir     = "frames"
	telemDir      = "telem"
	flightLogFile = "flight_log.csv"
)

// FrameDecoder is the frame decode collaborator.
type FrameDecoder interface {
	ProbeFPS(ctx context.Context, video string) (float64, error)
	Extract(ctx context.Context, video, outDir string, nth int) error
}

// TelemetryExtractor is the telemetry extraction collaborator.
type TelemetryExtractor interface {
	Extract(ctx context.Context, video, telemDir string) ([]telemetry.StreamType, error)
}

// WithStore records the run and its frame outcomes in the ledger.
func WithStore(store storage.Store) func(*Pipeline) {
	return func(p *Pipeline) {
		p.store = store
	}
}

func WithDecoder(d FrameDecoder) func(*Pipeline) {
	return func(p *Pipeline) {
		p.decoder = d
	}
}

func WithExtractor(e TelemetryExtractor) func(*Pipeline) {
	return func(p *Pipeline) {
		p.extractor = e
	}
}

func WithMetadataWriter(w tagging.MetadataWriter) func(*Pipeline) {
	return func(p *Pipeline) {
		p.metadata = w
	}
}

// WithMaxBatchSize sets how many frame outcomes are stored per ledger transaction.
func WithMaxBatchSize(size int) func(*Pipeline) {
	return func(p *Pipeline) {
		p.maxBatchSize = size
	}
}

// Pipeline runs one video through extraction, conditioning and tagging.
type Pipeline struct {
	config *Config

	store     storage.Store
	decoder   FrameDecoder
	extractor TelemetryExtractor
	metadata  tagging.MetadataWriter

	logger       *slog.Logger
	maxBatchSize int
}

func NewPipeline(config *Config, logger *slog.Logger, options ...func(*Pipeline)) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := Pipeline{
		config:       config,
		logger:       logger,
		maxBatchSize: config.Storage.MaxBatchSize,
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Run executes the whole pipeline. Per-frame failures are in the report; the error
// is for failures that stop the run.
func (p *Pipeline) Run(ctx context.Context) (report *tagging.Report, err error) {
	cfg := p.config
	nth := cfg.Pipeline.NthFrame
	projectDir := cfg.Project.Dir
	telemPath := filepath.Join(projectDir, telemDir)
	frameDir := ffmpeg.SubsampleDir(projectDir, nth)

	if err = scaffold(projectDir, telemPath, frameDir); err != nil {
		return nil, err
	}

	fps, err := p.frameRate(ctx)
	if err != nil {
		return nil, err
	}
	opts := cfg.Options(fps)
	if err = opts.Validate(); err != nil {
		return nil, err
	}
	p.logger.Info("Frame rate", slog.Float64("fps", fps), slog.Int("nthFrame", nth), slog.String("numbering", string(opts.Numbering)))

	var found []telemetry.StreamType
	if cfg.Project.SkipExtraction {
		p.logger.Info("Extraction skipped, using existing project", slog.String("dir", projectDir))
		if found, err = gpmf.Verify(telemPath, p.logger); err != nil {
			return nil, err
		}
	} else {
		if err = p.extractFrames(ctx, projectDir, frameDir, opts); err != nil {
			return nil, err
		}
		if p.extractor == nil {
			return nil, errors.New("no telemetry extractor configured")
		}
		if found, err = p.extractor.Extract(ctx, cfg.Project.Video, telemPath); err != nil {
			return nil, err
		}
	}

	streams, err := loadStreams(telemPath, found, opts, p.logger)
	if err != nil {
		return nil, err
	}
	if err = conditionStreams(telemPath, streams, cfg, opts, p.logger); err != nil {
		return nil, fmt.Errorf("conditioning telemetry: %w", err)
	}

	synthOptions := []func(*tagging.Synthesizer){
		tagging.WithLogger(p.logger.With(slog.String("component", "tagging"))),
	}

	switch {
	case opts.UsesMetadataWriter():
		if p.metadata == nil {
			return nil, errors.New("no metadata writer configured")
		}
		synthOptions = append(synthOptions, tagging.WithMetadataWriter(p.metadata))

	case opts.UsesSidecar():
		synthOptions = append(synthOptions, tagging.WithSidecarWriter(sidecar.NewWriter()))

	case opts.UsesFlightLog():
		logPath := filepath.Join(projectDir, flightLogFile)
		fl, fErr := flightlog.Create(logPath)
		if fErr != nil {
			return nil, fErr
		}
		defer func() {
			if cErr := fl.Close(); cErr != nil && err == nil {
				err = fmt.Errorf("closing flight log: %w", cErr)
			}
			p.logger.Info("Flight log written", slog.String("path", logPath), slog.Int("rows", fl.Rows()))
		}()
		synthOptions = append(synthOptions, tagging.WithFlightLog(fl))
	}

	var runLedger *ledger
	if p.store != nil {
		runID, err := p.store.CreateRun(ctx, cfg.Project.Video, projectDir, string(opts.TargetTool), cfg)
		if err != nil {
			return nil, fmt.Errorf("creating run: %w", err)
		}
		p.logger.Info("Run created", slog.String("run", runID))

		runLedger = newLedger(p.store, runID, p.maxBatchSize)
		synthOptions = append(synthOptions, tagging.WithRecorder(runLedger))
	}

	synth, err := tagging.NewSynthesizer(opts, streams, synthOptions...)
	if err != nil {
		return nil, err
	}

	report, err = synth.TagDir(ctx, frameDir)

	if runLedger != nil {
		// the ledger outlives a cancelled run so the frames done so far are recorded
		ledgerCtx := context.WithoutCancel(ctx)
		if fErr := runLedger.Flush(ledgerCtx); fErr != nil {
			p.logger.Warn("Unable to record frame results", slog.String("error", fErr.Error()))
		}
		if report != nil {
			summary := storage.Summary{Tagged: report.Tagged, Partial: report.Partial, Failed: report.Failed}
			if fErr := p.store.FinishRun(ledgerCtx, runLedger.runID, summary); fErr != nil {
				p.logger.Warn("Unable to finish run", slog.String("error", fErr.Error()))
			}
		}
	}

	if err != nil {
		return report, err
	}

	p.logger.Info("Tagging finished",
		slog.String("frames", humanize.Comma(int64(len(report.Results)))),
		slog.Int("tagged", report.Tagged),
		slog.Int("partial", report.Partial),
		slog.Int("failed", report.Failed))

	return report, nil
}

func (p *Pipeline) frameRate(ctx context.Context) (float64, error) {
	if p.config.Pipeline.FPS > 0 {
		return p.config.Pipeline.FPS, nil
	}
	if p.decoder == nil {
		return 0, errors.New("fps is not configured and no decoder is available to probe it")
	}
	return p.decoder.ProbeFPS(ctx, p.config.Project.Video)
}

// extractFrames decodes the video into the directory that is tagged. Decoding every
// frame goes through frames/ and keeps source numbers in the subsample directory.
func (p *Pipeline) extractFrames(ctx context.Context, projectDir, frameDir string, opts tagging.Options) error {
	if p.decoder == nil {
		return errors.New("no frame decoder configured")
	}

	video := p.config.Project.Video
	if opts.Numbering == tagging.NumberingSequential {
		return p.decoder.Extract(ctx, video, frameDir, opts.NthFrame)
	}

	allFrames := filepath.Join(projectDir, framesDir)
	if err := p.decoder.Extract(ctx, video, allFrames, 1); err != nil {
		return err
	}

	n, err := ffmpeg.SelectNth(allFrames, frameDir, opts.NthFrame, opts.FirstFrameNumber, p.config.Extraction.Frames.Extension())
	if err != nil {
		return fmt.Errorf("selecting every %d frame: %w", opts.NthFrame, err)
	}
	p.logger.Info("Frames selected", slog.String("dir", frameDir), slog.String("frames", humanize.Comma(int64(n))))
	return nil
}

func scaffold(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
