package livestream

import "errors"

// Sentinel errors returned by the Control API. Transport and seek failures
// are wrapped onto these with fmt.Errorf's %w so callers can errors.Is
// against the kind while still seeing the underlying transport text.
var (
	// ErrReadTooLarge is returned by Read when the destination buffer is
	// larger than the ring's capacity.
	ErrReadTooLarge = errors.New("livestream: read count exceeds buffer capacity")

	// ErrAlreadyRunning is returned by Start when a transfer is already active.
	ErrAlreadyRunning = errors.New("livestream: transfer already running")

	// ErrNotRunning is returned by Seek when no transfer is active.
	ErrNotRunning = errors.New("livestream: transfer is not running")

	// ErrTransportSetup is returned by Start when the request itself could
	// not be constructed (a malformed URL, for instance) -- a failure that
	// never touched the network, distinct from ErrTransportFailed.
	ErrTransportSetup = errors.New("livestream: transport setup failed")

	// ErrTransportFailed is returned by Start when the worker's transfer
	// ended in failure before producing any data.
	ErrTransportFailed = errors.New("livestream: transport failed")

	// ErrSeekFailed is a fatal error from Seek: the transport session has
	// been torn down and the caller must Start again.
	ErrSeekFailed = errors.New("livestream: seek failed")
)

// errStopped is an internal sentinel used to unwind a worker's write loop
// once Stop or an out-of-buffer Seek has requested it; it is never surfaced
// to callers of the Control API.
var errStopped = errors.New("livestream: transfer stopped")
