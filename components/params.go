package components

// FrameParametersSize is the byte size of the per-frame uniform block.
const FrameParametersSize = 8 * 4

// FrameParameters are the per-frame scalars pushed before every dispatch.
// Counts and dimensions are carried as float32 to match the kernel layout;
// config.MaxAgents keeps NumAgents exact.
type FrameParameters struct {
	NumAgents   float32
	Width       float32
	Height      float32
	TrailWeight float32
	DeltaTime   float32
	Time        float32 // elapsed simulation seconds, also the jitter seed
	DiffuseRate float32
	DecayRate   float32
}

// Bytes encodes the parameters in device layout.
func (p FrameParameters) Bytes() []byte {
	buf := make([]byte, FrameParametersSize)
	putFloats(buf,
		p.NumAgents, p.Width, p.Height, p.TrailWeight,
		p.DeltaTime, p.Time, p.DiffuseRate, p.DecayRate,
	)
	return buf
}

// DecodeFrameParameters is the inverse of FrameParameters.Bytes.
func DecodeFrameParameters(b []byte) FrameParameters {
	f := getFloats(b, 8)
	return FrameParameters{
		NumAgents:   f[0],
		Width:       f[1],
		Height:      f[2],
		TrailWeight: f[3],
		DeltaTime:   f[4],
		Time:        f[5],
		DiffuseRate: f[6],
		DecayRate:   f[7],
	}
}
