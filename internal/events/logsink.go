package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink consumes events from the router.
type Sink interface {
	Start(ctx context.Context, events <-chan Event) error
	Stop() error
}

// LogSinkConfig controls the event log file.
type LogSinkConfig struct {
	Path string
	// IncludeTicks also writes per-tick snapshots, which are otherwise skipped.
	IncludeTicks bool
	MaxSizeMB    int
	MaxBackups   int
	MaxAgeDays   int
	Compress     bool
}

// LogSink writes events as JSON lines to a size-rotated file.
type LogSink struct {
	cfg     LogSinkConfig
	out     *lumberjack.Logger
	encoder *json.Encoder
	mu      sync.Mutex
	done    chan struct{}
}

// NewLogSink creates a LogSink.
func NewLogSink(cfg LogSinkConfig) *LogSink {
	return &LogSink{cfg: cfg, done: make(chan struct{})}
}

// Start opens the log and begins processing events until the context is
// canceled or the channel is closed.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.Path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	s.mu.Lock()
	s.out = &lumberjack.Logger{
		Filename:   s.cfg.Path,
		MaxSize:    s.cfg.MaxSizeMB,
		MaxBackups: s.cfg.MaxBackups,
		MaxAge:     s.cfg.MaxAgeDays,
		Compress:   s.cfg.Compress,
	}
	s.encoder = json.NewEncoder(s.out)
	s.mu.Unlock()

	go s.run(ctx, events)
	return nil
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type() == EventScanTick && !s.cfg.IncludeTicks {
				continue
			}
			s.write(event)
		}
	}
}

func (s *LogSink) write(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(event); err != nil {
		fmt.Fprintf(os.Stderr, "log sink: failed to write event: %v\n", err)
	}
}

// Stop waits for the run goroutine and closes the log.
func (s *LogSink) Stop() error {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil {
		return nil
	}
	err := s.out.Close()
	s.out = nil
	s.encoder = nil
	return err
}

// Path returns the log file path.
func (s *LogSink) Path() string {
	return s.cfg.Path
}
