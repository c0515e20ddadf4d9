package capture

import (
	"context"
	"image"
	"sync"
	"time"
)

// Mailbox is a single-slot handoff from one producer to one consumer. The
// producer replaces the slot; the consumer reads whatever is newest. The lock
// covers only the pointer swap, never image processing.
type Mailbox struct {
	mu    sync.Mutex
	frame *Frame
	err   error
	seq   uint64
	now   func() time.Time
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{now: time.Now}
}

// Publish stores img as the newest frame and clears any failure. The caller
// must not modify img afterwards.
func (m *Mailbox) Publish(img *image.RGBA) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.frame = &Frame{Seq: m.seq, At: m.now(), Image: img}
	m.err = nil
	return m.seq
}

// Fail records that the producer cannot currently capture. The last frame is
// dropped so stale pixels are never classified.
func (m *Mailbox) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = nil
	m.err = err
}

// Latest implements Frames.
func (m *Mailbox) Latest(ctx context.Context) (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.frame == nil {
		return nil, ErrNoFrame
	}
	return m.frame, nil
}

// Direct reads a Source synchronously: every Latest call captures a new frame.
// It suits finite sources such as a replay directory where no frame may be
// skipped.
type Direct struct {
	src Source
	seq uint64
	now func() time.Time
}

// NewDirect wraps src.
func NewDirect(src Source) *Direct {
	return &Direct{src: src, now: time.Now}
}

// Latest implements Frames.
func (d *Direct) Latest(ctx context.Context) (*Frame, error) {
	img, err := d.src.Capture(ctx)
	if err != nil {
		return nil, err
	}
	d.seq++
	return &Frame{Seq: d.seq, At: d.now(), Image: img}, nil
}
