package bridge

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// FdReader drains a TAP file descriptor on a dedicated goroutine, handing
// each frame to a Bridge. Stop interrupts a blocked read by moving the
// file's read deadline into the past, so no separate control pipe is
// needed; the runtime poller delivers the wakeup.
type FdReader struct {
	log    *slog.Logger
	file   *os.File
	bridge Bridge

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewFdReader prepares a reader over file, forwarding frames to br. Call
// Start to launch the read loop.
func NewFdReader(file *os.File, br Bridge, logger *slog.Logger) *FdReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FdReader{
		log:    logger.With("component", "fd-reader"),
		file:   file,
		bridge: br,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the read loop. Subsequent calls are no-ops.
func (r *FdReader) Start() {
	r.startOnce.Do(func() {
		go r.loop()
	})
}

func (r *FdReader) loop() {
	defer close(r.done)
	for {
		// One heap buffer per frame: the bridge constructs a Packet that
		// copies out of it, so the buffer never outlives this iteration.
		buf := make([]byte, frameBufSize)
		n, err := r.file.Read(buf)

		select {
		case <-r.stop:
			return
		default:
		}

		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				r.log.Error("tap read failed, stopping reader", "error", err)
			}
			return
		}
		if n <= 0 {
			return
		}

		if fwdErr := r.bridge.ForwardOut(buf[:n]); fwdErr != nil {
			r.log.Error("forward out failed", "error", fwdErr)
		}
	}
}

// Stop is idempotent: it wakes the read loop and blocks until it exits.
// The file itself is left open; the caller that opened it closes it.
func (r *FdReader) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		if err := r.file.SetReadDeadline(time.Now()); err != nil {
			// Fall back to closing the fd when the file does not support
			// deadlines; the read loop exits on the read error.
			r.log.Warn("read deadline unsupported, closing fd to unblock reader", "error", err)
			_ = r.file.Close()
		}
	})
	<-r.done
}
