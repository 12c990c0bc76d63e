// Package livestream provides a seekable live-stream buffer: it
// continuously pulls bytes from a remote HTTP byte-range source into a
// fixed-size ring buffer while a single consumer reads from it
// concurrently, supporting in-buffer seeks and out-of-buffer seeks that
// restart the transfer at a new range.
package livestream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Stream is the Control API: Start, Stop, Seek, Read, Position, Length.
// Control operations are serialized against each other by mu; the ring
// itself provides the fine-grained locking that lets Read run concurrently
// with an in-flight transfer.
type Stream struct {
	ring      *ring
	transport Transport

	mu     sync.Mutex
	worker *worker
	url    string
	seq    uint64
}

// Option configures a Stream at construction time.
type Option func(*Stream)

// WithTransport overrides the default net/http-based Transport. Intended
// for tests that need a fake byte-range server.
func WithTransport(t Transport) Option {
	return func(s *Stream) { s.transport = t }
}

// New constructs a Stream whose ring holds at least bufferSize bytes
// (rounded up per spec.md section 3: align_up(bufferSize+WRITE_PADDING,
// 65536)). The instance starts IDLE; call Start to begin streaming.
func New(bufferSize uint64, opts ...Option) *Stream {
	s := &Stream{
		ring:      newRing(bufferSize),
		transport: NewHTTPTransport(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins streaming from url and blocks until the first byte arrives
// or the transfer ends (with or without an error) before writing any. It
// fails with ErrAlreadyRunning if a
// transfer is already active.
func (s *Stream) Start(ctx context.Context, url string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.worker != nil {
		return 0, ErrAlreadyRunning
	}

	w := s.spawnLocked(ctx, url, 0)

	if err := w.waitStarted(ctx); err != nil {
		w.stop()
		s.worker = nil
		return 0, err
	}

	producedAny, transferErr := w.result()
	if transferErr != nil && !producedAny {
		s.worker = nil
		if errors.Is(transferErr, ErrTransportSetup) {
			return 0, transferErr
		}
		return 0, fmt.Errorf("%w: %v", ErrTransportFailed, transferErr)
	}

	return s.ring.position(), nil
}

// Stop halts the current transfer, if any, and resets all mutable state
// including length. It returns the final readpos, or 0 if nothing was
// running. Stop never fails.
func (s *Stream) Stop() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.worker == nil {
		return 0
	}

	s.worker.stop()

	position := s.ring.position()

	s.ring.reset()
	s.ring.length.Store(0)

	s.worker = nil
	s.url = ""

	return position
}

// Seek moves the read position to target. If target lies within the
// currently buffered window this requires no network I/O; otherwise the
// transfer is stopped and restarted with a new byte range. A no-op seek to
// the current position succeeds even on an idle (never-started) Stream, per
// original_source/src/livestream.cpp's seek: only a genuine repositioning
// requires an active transfer (ErrNotRunning otherwise). Seek returns
// ErrSeekFailed -- a fatal error that leaves the Stream IDLE -- if a
// restart is required and fails.
func (s *Stream) Seek(ctx context.Context, target uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target == s.ring.position() {
		return target, nil
	}

	if s.worker == nil {
		return 0, ErrNotRunning
	}

	if s.ring.seekInBuffer(target) {
		return s.ring.position(), nil
	}

	s.worker.stop()

	s.ring.reset() // length is left intact; only Stop resets it

	w := s.spawnLocked(ctx, s.url, target)

	if err := w.waitStarted(ctx); err != nil {
		w.stop()
		s.worker = nil
		return 0, fmt.Errorf("%w: %v", ErrSeekFailed, err)
	}

	producedAny, transferErr := w.result()
	if transferErr != nil && !producedAny {
		s.worker = nil
		return 0, fmt.Errorf("%w: %v", ErrSeekFailed, transferErr)
	}

	return s.ring.position(), nil
}

// spawnLocked starts a fresh worker fetching from target and records it as
// the current worker. The worker gets its own cancelable derivation of ctx
// so stop() can abort a Fetch blocked on network I/O, not just one that
// happens to be between chunks. Callers must hold s.mu.
func (s *Stream) spawnLocked(ctx context.Context, url string, target uint64) *worker {
	s.seq++
	workerCtx, cancel := context.WithCancel(ctx)

	w := newWorker(fmt.Sprintf("livestream-worker-%d", s.seq))
	w.cancel = cancel
	sink := &streamSink{ring: s.ring, halt: w.halt, onStarted: w.markStarted}

	s.worker = w
	s.url = url

	go w.run(workerCtx, s.transport, url, target, sink)

	return w
}

// Read copies up to len(buf) bytes into buf, waiting up to timeout for
// data to arrive. A timeout returns (0, nil), never an error. It rejects
// len(buf) greater than the ring's capacity with ErrReadTooLarge.
func (s *Stream) Read(buf []byte, timeout time.Duration) (int, error) {
	return s.ring.read(buf, timeout)
}

// Position returns the next byte to be read, in server-absolute terms.
func (s *Stream) Position() uint64 {
	return s.ring.position()
}

// Length returns the high-water mark of writepos observed since
// construction, or since the last Stop.
func (s *Stream) Length() uint64 {
	return s.ring.length.Load()
}
