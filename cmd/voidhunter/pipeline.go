package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/npratt/voidhunter/internal/capture"
	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/config"
	"github.com/npratt/voidhunter/internal/events"
	"github.com/npratt/voidhunter/internal/exec"
	"github.com/npratt/voidhunter/internal/metrics"
	"github.com/npratt/voidhunter/internal/probe"
	"github.com/npratt/voidhunter/internal/scanner"
	"github.com/npratt/voidhunter/internal/segment"
)

// pipeline owns the event router, its sinks and the metrics recorder for
// one scanner run.
type pipeline struct {
	router     *events.Router
	logSink    *events.LogSink
	reportSink *events.ReportSink
	recorder   *metrics.Recorder

	sinkCancel context.CancelFunc
}

// newPipeline creates the router and starts the log and report sinks.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	rec := metrics.New()
	router := events.NewRouter(events.DefaultBufferSize)
	router.OnDrop(func(t events.EventType) { rec.EventDropped(string(t)) })

	logSink := events.NewLogSink(events.LogSinkConfig{
		Path:         cfg.Paths.Log,
		IncludeTicks: cfg.Scan.LogTicks,
		MaxSizeMB:    cfg.LogRotation.MaxSizeMB,
		MaxBackups:   cfg.LogRotation.MaxBackups,
		MaxAgeDays:   cfg.LogRotation.MaxAgeDays,
		Compress:     cfg.LogRotation.Compress,
	})
	reportSink := events.NewReportSink(cfg.Paths.Report)

	sinkCtx, sinkCancel := context.WithCancel(ctx)

	if err := logSink.Start(sinkCtx, router.Subscribe()); err != nil {
		sinkCancel()
		router.Close()
		return nil, fmt.Errorf("start log sink: %w", err)
	}
	if err := reportSink.Start(sinkCtx, router.SubscribeBuffered(events.ReportBufferSize)); err != nil {
		sinkCancel()
		router.Close()
		_ = logSink.Stop()
		return nil, fmt.Errorf("start report sink: %w", err)
	}

	return &pipeline{
		router:     router,
		logSink:    logSink,
		reportSink: reportSink,
		recorder:   rec,
		sinkCancel: sinkCancel,
	}, nil
}

// Close closes the router and waits for the sinks to drain it.
func (p *pipeline) Close() {
	p.router.Close()
	_ = p.logSink.Stop()
	_ = p.reportSink.Stop()
	p.sinkCancel()
}

// newClassifier builds the OCR classifier backed by the tesseract CLI.
func newClassifier(cfg *config.Config) probe.Classifier {
	tess := probe.NewTesseract(exec.NewExecRunner(), probe.TesseractOptions{
		Binary:   cfg.OCR.Binary,
		Language: cfg.OCR.Language,
		PSM:      cfg.OCR.PSM,
		Timeout:  cfg.OCR.Timeout,
	})
	return probe.NewOCR(tess, cfg.OCR.ClockThreshold)
}

// runReplay scans the PNG frames in dir in lexical order as fast as they
// can be classified, then prints the resulting report to out.
func runReplay(ctx context.Context, cfg *config.Config, dir string, classifier probe.Classifier, logger *slog.Logger, out io.Writer, asJSON bool) error {
	src, err := capture.NewDirSource(dir)
	if err != nil {
		return err
	}

	cfg.Scan.MinInterval = 0
	cfg.Scan.ExitOnOver = true
	// Reported as the scan target
	cfg.Capture.Window = dir

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Info("replay starting", "dir", dir, "frames", src.Len())
	sc := scanner.New(cfg, capture.NewDirect(src), classifier, p.router, p.recorder, logger)
	runErr := sc.Run(ctx)
	p.Close()
	if runErr != nil {
		return runErr
	}

	return printReport(out, p.reportSink.Report(), asJSON)
}

// printReport writes a report as indented JSON or a short summary.
func printReport(w io.Writer, r events.Report, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	fmt.Fprintf(w, "Stage: %s\n", r.Stage)
	if len(r.Results) == 0 {
		fmt.Fprintln(w, "Results: none")
		return nil
	}
	fmt.Fprintln(w, "Results:")
	for i, res := range r.Results {
		fmt.Fprintf(w, "  %d. %s %s restarts=%d [%s]\n",
			i+1, res.Tier, res.Clock, res.Restarts, strings.Join(res.Roster.Names(), ", "))
	}
	fmt.Fprintf(w, "Total: %s\n", r.Total)
	return nil
}

// decodeClock reads the in-match clock from a full-frame PNG.
func decodeClock(path string, threshold uint8) (clock.Clock, error) {
	frame, err := capture.LoadPNG(path)
	if err != nil {
		return clock.Clock{}, err
	}
	if !probe.InMatchClockRegion.In(frame.Bounds()) {
		return clock.Clock{}, fmt.Errorf("frame %v does not contain the clock region", frame.Bounds().Size())
	}

	crop := frame.SubImage(probe.InMatchClockRegion).(*image.RGBA)
	text, err := segment.Decode(segment.Binarize(crop, threshold))
	if err != nil {
		return clock.Clock{}, fmt.Errorf("decode clock: %w", err)
	}
	c, err := clock.Parse(text)
	if err != nil {
		return clock.Clock{}, fmt.Errorf("decode clock: %w", err)
	}
	return c, nil
}

// errNoDaemon is returned by control commands when no daemon info exists.
var errNoDaemon = errors.New("no voidhunter daemon found for this project")
