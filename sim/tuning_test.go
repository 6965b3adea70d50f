package sim

import (
	"testing"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/config"
)

func TestTuningTransitions(t *testing.T) {
	tuning := Tuning{Steps: testSteps, Defaults: testDefaults}

	tests := []struct {
		name  string
		start func(s *components.SpeciesSettings)
		cmds  []Command
		check func(t *testing.T, s components.SpeciesSettings)
	}{
		{
			name:  "move speed clamps at zero",
			start: func(s *components.SpeciesSettings) { s.MoveSpeed = 3 },
			cmds:  []Command{CmdDecreaseMoveSpeed, CmdDecreaseMoveSpeed},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s.MoveSpeed != 0 {
					t.Errorf("expected move speed 0, got %f", s.MoveSpeed)
				}
			},
		},
		{
			name: "move speed increases",
			cmds: []Command{CmdIncreaseMoveSpeed},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s.MoveSpeed != 55 {
					t.Errorf("expected move speed 55, got %f", s.MoveSpeed)
				}
			},
		},
		{
			name: "negative turn rate grows away from zero",
			cmds: []Command{CmdIncreaseTurnRate},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s.TurnSpeed != -3 {
					t.Errorf("expected turn speed -3, got %f", s.TurnSpeed)
				}
			},
		},
		{
			name: "negative turn rate never crosses zero",
			cmds: []Command{CmdDecreaseTurnRate, CmdDecreaseTurnRate, CmdDecreaseTurnRate},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s.TurnSpeed != 0 {
					t.Errorf("expected turn speed 0, got %f", s.TurnSpeed)
				}
			},
		},
		{
			name:  "sensor offset clamps at zero",
			start: func(s *components.SpeciesSettings) { s.SensorOffsetDst = 2 },
			cmds:  []Command{CmdDecreaseSensorOffset},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s.SensorOffsetDst != 0 {
					t.Errorf("expected sensor offset 0, got %f", s.SensorOffsetDst)
				}
			},
		},
		{
			name:  "sensor angle clamps at 180",
			start: func(s *components.SpeciesSettings) { s.SensorAngleDegrees = 178 },
			cmds:  []Command{CmdIncreaseSensorAngle},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s.SensorAngleDegrees != 180 {
					t.Errorf("expected sensor angle 180, got %f", s.SensorAngleDegrees)
				}
			},
		},
		{
			name: "reset restores defaults",
			cmds: []Command{CmdIncreaseMoveSpeed, CmdIncreaseTurnRate, CmdDecreaseSensorAngle, CmdResetSpecies},
			check: func(t *testing.T, s components.SpeciesSettings) {
				if s != testDefaults {
					t.Errorf("expected defaults, got %+v", s)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testDefaults
			if tc.start != nil {
				tc.start(&s)
			}
			for _, c := range tc.cmds {
				s = tuning.Apply(s, c)
			}
			tc.check(t, s)
		})
	}
}

func TestPositiveTurnSign(t *testing.T) {
	defaults := testDefaults
	defaults.TurnSpeed = 0
	tuning := Tuning{Steps: testSteps, Defaults: defaults}

	s := tuning.Apply(defaults, CmdIncreaseTurnRate)
	if s.TurnSpeed != 1 {
		t.Errorf("zero default should steer positive, got %f", s.TurnSpeed)
	}
	s = tuning.Apply(tuning.Apply(s, CmdDecreaseTurnRate), CmdDecreaseTurnRate)
	if s.TurnSpeed != 0 {
		t.Errorf("expected clamp at 0, got %f", s.TurnSpeed)
	}
}

func TestParseCommand(t *testing.T) {
	for _, c := range Commands() {
		got, err := ParseCommand(c.String())
		if err != nil || got != c {
			t.Errorf("parse %q: got %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCommand("none"); err == nil {
		t.Error("none should not parse as a command")
	}
	if _, err := ParseCommand("faster"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestDefaultConfigSteps(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	tuning := OptionsFromConfig(cfg, 1).Tuning
	s := tuning.Defaults

	tests := []struct {
		cmd  Command
		get  func(components.SpeciesSettings) float32
		want float32
	}{
		{CmdIncreaseMoveSpeed, func(s components.SpeciesSettings) float32 { return s.MoveSpeed }, s.MoveSpeed + 1},
		{CmdDecreaseMoveSpeed, func(s components.SpeciesSettings) float32 { return s.MoveSpeed }, s.MoveSpeed - 1},
		{CmdIncreaseSensorOffset, func(s components.SpeciesSettings) float32 { return s.SensorOffsetDst }, s.SensorOffsetDst + 1},
		{CmdDecreaseSensorOffset, func(s components.SpeciesSettings) float32 { return s.SensorOffsetDst }, s.SensorOffsetDst - 1},
	}
	for _, tc := range tests {
		if got := tc.get(tuning.Apply(s, tc.cmd)); got != tc.want {
			t.Errorf("%s: expected %f, got %f", tc.cmd, tc.want, got)
		}
	}
}
