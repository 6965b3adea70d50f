package components

import (
	"encoding/binary"
	"math"
)

// SpeciesSettingsSize is the byte size of the species uniform block.
const SpeciesSettingsSize = 9 * 4

// SpeciesSettings holds the behavioural constants shared by every agent.
type SpeciesSettings struct {
	MoveSpeed          float32
	TurnSpeed          float32 // turns per second, sign selects the steering direction
	SensorAngleDegrees float32
	SensorOffsetDst    float32
	SensorSize         float32
	Colour             Colour
}

// Colour is a linear RGBA colour with components in [0, 1].
type Colour struct {
	R float32
	G float32
	B float32
	A float32
}

// Bytes encodes the settings in device layout.
func (s SpeciesSettings) Bytes() []byte {
	buf := make([]byte, SpeciesSettingsSize)
	putFloats(buf,
		s.MoveSpeed, s.TurnSpeed, s.SensorAngleDegrees, s.SensorOffsetDst, s.SensorSize,
		s.Colour.R, s.Colour.G, s.Colour.B, s.Colour.A,
	)
	return buf
}

// DecodeSpeciesSettings is the inverse of SpeciesSettings.Bytes.
func DecodeSpeciesSettings(b []byte) SpeciesSettings {
	f := getFloats(b, 9)
	return SpeciesSettings{
		MoveSpeed:          f[0],
		TurnSpeed:          f[1],
		SensorAngleDegrees: f[2],
		SensorOffsetDst:    f[3],
		SensorSize:         f[4],
		Colour:             Colour{R: f[5], G: f[6], B: f[7], A: f[8]},
	}
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func getFloats(b []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		if len(b) < (i+1)*4 {
			break
		}
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
