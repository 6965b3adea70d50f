package backend

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is one command observed by a Recorder.
type Entry struct {
	Submission int    // index of the Submit call
	Label      string // command buffer label
	Op         Op
	Kernel     Kernel
	Src, Dst   string // buffer labels for copies
	Size       int
}

// Recorder wraps a Device and records every submitted command in order.
// With a logger it also traces each command at debug level.
type Recorder struct {
	Device

	logger *slog.Logger

	mu          sync.Mutex
	entries     []Entry
	submissions int
	released    []string
}

// NewRecorder wraps dev. logger may be nil.
func NewRecorder(dev Device, logger *slog.Logger) *Recorder {
	return &Recorder{Device: dev, logger: logger}
}

// Unwrap returns the wrapped device.
func (r *Recorder) Unwrap() Device { return r.Device }

// Submit records the commands and forwards them to the wrapped device.
func (r *Recorder) Submit(cmds ...*CommandBuffer) error {
	r.mu.Lock()
	for _, cb := range cmds {
		for _, c := range cb.Commands {
			e := Entry{Submission: r.submissions, Label: cb.Label, Op: c.Op, Kernel: c.Kernel, Size: c.Size}
			if c.Op == OpCopyBuffer {
				e.Src, e.Dst = c.Src.Label(), c.Dst.Label()
			}
			r.entries = append(r.entries, e)
			r.trace(e, c)
		}
	}
	r.submissions++
	r.mu.Unlock()

	return r.Device.Submit(cmds...)
}

// ReleaseBuffer records the release and forwards it.
func (r *Recorder) ReleaseBuffer(b Buffer) {
	r.mu.Lock()
	r.released = append(r.released, b.Label())
	r.mu.Unlock()
	r.Device.ReleaseBuffer(b)
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Released returns the labels of released buffers in release order.
func (r *Recorder) Released() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.released...)
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = r.entries[:0]
	r.released = r.released[:0]
	r.submissions = 0
	r.mu.Unlock()
}

func (r *Recorder) trace(e Entry, c Command) {
	if r.logger == nil || !r.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	switch e.Op {
	case OpDispatch:
		r.logger.Debug("dispatch",
			"submission", e.Submission,
			"buffer", e.Label,
			"kernel", string(e.Kernel),
			"groups_x", c.GroupsX,
			"groups_y", c.GroupsY,
			"bindings", len(c.Bindings),
		)
	case OpCopyBuffer:
		r.logger.Debug("copy",
			"submission", e.Submission,
			"buffer", e.Label,
			"src", e.Src,
			"dst", e.Dst,
			"bytes", e.Size,
		)
	}
}
