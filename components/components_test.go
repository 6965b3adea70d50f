package components

import "testing"

func TestAgentLayout(t *testing.T) {
	if AgentSize != 12 {
		t.Fatalf("expected 12-byte agents, got %d", AgentSize)
	}

	agents := []Agent{{PosX: 1, PosY: 2, Angle: 90}, {PosX: 3, PosY: 4, Angle: 180}}
	b := AgentBytes(agents)
	if len(b) != 24 {
		t.Fatalf("expected 24 bytes, got %d", len(b))
	}

	view := AgentsFromBytes(b)
	view[1].Angle = 270
	if agents[1].Angle != 270 {
		t.Error("byte view should share memory with the agent slice")
	}
}

func TestSpeciesLayout(t *testing.T) {
	s := SpeciesSettings{
		MoveSpeed:          50,
		TurnSpeed:          -2,
		SensorAngleDegrees: 112,
		SensorOffsetDst:    50,
		Colour:             Colour{G: 1, A: 1},
	}
	b := s.Bytes()
	if len(b) != SpeciesSettingsSize {
		t.Fatalf("expected %d bytes, got %d", SpeciesSettingsSize, len(b))
	}
	// turn_speed is the second float
	if b[4] != 0x00 || b[7] != 0xc0 {
		t.Errorf("unexpected encoding of -2.0: % x", b[4:8])
	}
	if got := DecodeSpeciesSettings(b); got != s {
		t.Errorf("decode mismatch: %+v != %+v", got, s)
	}
}

func TestFrameParametersLayout(t *testing.T) {
	p := FrameParameters{NumAgents: 1000, Width: 1920, Height: 1080, TrailWeight: 0.5, DeltaTime: 0.016, Time: 3}
	b := p.Bytes()
	if len(b) != FrameParametersSize {
		t.Fatalf("expected %d bytes, got %d", FrameParametersSize, len(b))
	}
	if got := DecodeFrameParameters(b); got != p {
		t.Errorf("decode mismatch: %+v != %+v", got, p)
	}
}
