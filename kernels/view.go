package kernels

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// floats reinterprets a 4-byte aligned device buffer as float32 values.
func floats(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// loadFloat reads a cell that other workgroups may be depositing into.
func loadFloat(p *float32) float32 {
	return math.Float32frombits(atomic.LoadUint32((*uint32)(unsafe.Pointer(p))))
}

// addFloat atomically adds v to *p.
func addFloat(p *float32, v float32) {
	addr := (*uint32)(unsafe.Pointer(p))
	for {
		old := atomic.LoadUint32(addr)
		next := math.Float32bits(math.Float32frombits(old) + v)
		if atomic.CompareAndSwapUint32(addr, old, next) {
			return
		}
	}
}

// wrap maps i onto [0, n).
func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// wrapf maps v onto [0, n).
func wrapf(v, n float32) float32 {
	v = float32(math.Mod(float64(v), float64(n)))
	if v < 0 {
		v += n
	}
	if v >= n {
		v = 0
	}
	return v
}
