// Package components defines the plain data shared between the host, the
// simulation kernels and the compute devices. Every type here has a fixed
// little-endian float32 layout so it can be copied into device buffers
// without translation.
package components

import (
	"unsafe"
)

// Agent is a single point agent. Angle is the heading in degrees.
type Agent struct {
	PosX, PosY float32
	Angle      float32
}

// AgentSize is the byte stride of one Agent in a device buffer.
const AgentSize = int(unsafe.Sizeof(Agent{}))

// AgentBytes returns a byte view of the agent slice sharing its memory.
func AgentBytes(agents []Agent) []byte {
	if len(agents) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&agents[0])), len(agents)*AgentSize)
}

// AgentsFromBytes reinterprets a device buffer as agents. The buffer must be
// 4-byte aligned and a whole multiple of AgentSize.
func AgentsFromBytes(b []byte) []Agent {
	n := len(b) / AgentSize
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*Agent)(unsafe.Pointer(&b[0])), n)
}
