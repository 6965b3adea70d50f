package cpu

import (
	"unsafe"

	"github.com/pthm-cable/slime/backend"
)

// buffer is host memory standing in for a device allocation. It is backed
// by a []uint32 so kernels can reinterpret it as float32 or Agent slices.
type buffer struct {
	label string
	size  int
	usage backend.Usage

	words []uint32
	data  []byte

	// Owned by the submitting goroutine.
	mapped   bool
	released bool
}

func newBuffer(label string, size int, usage backend.Usage) *buffer {
	words := make([]uint32, (size+3)/4)
	return &buffer{
		label: label,
		size:  size,
		usage: usage,
		words: words,
		data:  unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size),
	}
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int { return b.size }
func (b *buffer) Usage() backend.Usage { return b.usage }

// free drops the backing memory. Runs on the queue goroutine.
func (b *buffer) free() {
	b.words = nil
	b.data = nil
}
