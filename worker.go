package livestream

import (
	"context"
	"sync"

	"github.com/glycerine/idem"
)

// worker drives one transfer to completion or to a stop signal, then exits.
// It never retries; retry policy, if any, belongs to the caller of the
// Control API, per spec.md section 4.3. Lifecycle is coordinated through a
// *idem.Halter the way glycerine-rpc25519's Circuit and LocalPeer types
// coordinate their pumps, in place of a raw atomic bool plus thread join.
type worker struct {
	halt *idem.Halter

	// cancel aborts the worker's in-flight Fetch even when it is blocked
	// deep inside a network read that never touches halt.ReqStop -- a
	// stalled connection on an otherwise idle live stream is the normal
	// case this guards against, per spec.md section 5's bounded
	// cancellation-latency requirement.
	cancel context.CancelFunc

	startedOnce sync.Once
	started     chan struct{}

	mu          sync.Mutex
	producedAny bool
	err         error
}

func newWorker(name string) *worker {
	return &worker{
		halt:    idem.NewHalterNamed(name),
		started: make(chan struct{}),
	}
}

// markStarted releases anyone waiting in waitStarted. The sink calls it on
// the first successful write; run's deferred call covers the case where the
// transfer completes or fails before ever writing a byte. The sync.Once
// means whichever happens first wins and the other is a no-op, so a single
// wait point covers both outcomes per spec.md section 9.
func (w *worker) markStarted() {
	w.startedOnce.Do(func() { close(w.started) })
}

func (w *worker) waitStarted(ctx context.Context) error {
	select {
	case <-w.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) setResult(producedAny bool, err error) {
	w.mu.Lock()
	w.producedAny = producedAny
	w.err = err
	w.mu.Unlock()
}

func (w *worker) result() (producedAny bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.producedAny, w.err
}

// stop requests a halt, cancels the worker's context so a Fetch blocked on
// network I/O is interrupted too, and waits for run to exit.
func (w *worker) stop() {
	w.cancel()
	w.halt.ReqStop.Close()
	<-w.halt.Done.Chan
}

// run executes exactly one transfer invocation on the caller's goroutine.
func (w *worker) run(ctx context.Context, transport Transport, url string, start uint64, sink *streamSink) {
	defer w.halt.Done.Close()
	defer w.markStarted()
	defer w.cancel()

	err := transport.Fetch(ctx, url, start, sink)
	if err == errStopped {
		err = nil
	}

	w.setResult(sink.wrote.Load(), err)
}
