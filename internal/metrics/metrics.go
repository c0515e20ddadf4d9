// Package metrics exposes scan counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voidhunter"

// Recorder holds the scan metrics. A nil *Recorder is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Recorder struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	framesSkipped prometheus.Counter
	probeErrors   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	tickDuration  prometheus.Histogram
	transitions   *prometheus.CounterVec
	restarts      prometheus.Counter
	results       *prometheus.CounterVec
	eventsDropped *prometheus.CounterVec
	stage         *prometheus.GaugeVec
}

// New creates a Recorder registered on its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total",
			Help: "Scan ticks evaluated.",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_skipped_total",
			Help: "Ticks skipped because no new frame was available.",
		}),
		probeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "probe_errors_total",
			Help: "Probe failures, treated as absence.",
		}, []string{"signal"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "probe_duration_seconds",
			Help:    "Time spent in a single probe.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"signal"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_duration_seconds",
			Help:    "Time from frame pickup to state update.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_transitions_total",
			Help: "Stage transitions by destination.",
		}, []string{"to"}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "restarts_total",
			Help: "Restarts counted.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "results_total",
			Help: "Results recorded by tier.",
		}, []string{"tier"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_dropped_total",
			Help: "Events dropped because a subscriber was full.",
		}, []string{"type"}),
		stage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stage",
			Help: "1 for the current stage, 0 otherwise.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(
		r.ticks, r.framesSkipped, r.probeErrors, r.probeDuration, r.tickDuration,
		r.transitions, r.restarts, r.results, r.eventsDropped, r.stage,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the registry backing r.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Tick records one evaluated tick.
func (r *Recorder) Tick(d time.Duration) {
	if r == nil {
		return
	}
	r.ticks.Inc()
	r.tickDuration.Observe(d.Seconds())
}

// FrameSkipped records a tick with no new frame.
func (r *Recorder) FrameSkipped() {
	if r == nil {
		return
	}
	r.framesSkipped.Inc()
}

// Probe records one probe run.
func (r *Recorder) Probe(signal string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.probeDuration.WithLabelValues(signal).Observe(d.Seconds())
	if err != nil {
		r.probeErrors.WithLabelValues(signal).Inc()
	}
}

// Stage records a transition from one stage to another.
func (r *Recorder) Stage(from, to string) {
	if r == nil {
		return
	}
	if from != "" {
		r.stage.WithLabelValues(from).Set(0)
	}
	r.stage.WithLabelValues(to).Set(1)
	r.transitions.WithLabelValues(to).Inc()
}

// Restart records a counted restart.
func (r *Recorder) Restart() {
	if r == nil {
		return
	}
	r.restarts.Inc()
}

// Result records a recorded result.
func (r *Recorder) Result(tier string) {
	if r == nil {
		return
	}
	r.results.WithLabelValues(tier).Inc()
}

// EventDropped records an event lost by the router.
func (r *Recorder) EventDropped(eventType string) {
	if r == nil {
		return
	}
	r.eventsDropped.WithLabelValues(eventType).Inc()
}

// Handler returns the HTTP handler exposing r.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled. A nil logger
// discards output.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return r.serve(ctx, ln, logger)
}

func (r *Recorder) serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
