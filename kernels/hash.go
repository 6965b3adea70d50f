package kernels

// Hash is the integer hash used for steering jitter. The GLSL kernels use
// the same constants so both devices draw the same sequence.
func Hash(state uint32) uint32 {
	state ^= 2747636419
	state *= 2654435769
	state ^= state >> 16
	state *= 2654435769
	state ^= state >> 16
	state *= 2654435769
	return state
}

// Unit maps a hash to [0, 1).
func Unit(h uint32) float32 {
	return float32(float64(h) / 4294967296.0)
}

// jitterSeed mixes the agent index, simulation time and current cell.
func jitterSeed(index uint32, time float32, x, y, width uint32) uint32 {
	return Hash(Hash(index+uint32(time*100000)) ^ (y*width + x))
}
