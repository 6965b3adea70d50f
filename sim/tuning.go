package sim

import (
	"fmt"

	"github.com/pthm-cable/slime/components"
)

// Command is a live tuning request.
type Command uint8

const (
	CmdNone Command = iota
	CmdIncreaseMoveSpeed
	CmdDecreaseMoveSpeed
	CmdIncreaseTurnRate
	CmdDecreaseTurnRate
	CmdIncreaseSensorOffset
	CmdDecreaseSensorOffset
	CmdIncreaseSensorAngle
	CmdDecreaseSensorAngle
	CmdResetSpecies
)

var commandNames = [...]string{
	CmdNone:                 "none",
	CmdIncreaseMoveSpeed:    "increase-move-speed",
	CmdDecreaseMoveSpeed:    "decrease-move-speed",
	CmdIncreaseTurnRate:     "increase-turn-rate",
	CmdDecreaseTurnRate:     "decrease-turn-rate",
	CmdIncreaseSensorOffset: "increase-sensor-offset",
	CmdDecreaseSensorOffset: "decrease-sensor-offset",
	CmdIncreaseSensorAngle:  "increase-sensor-angle",
	CmdDecreaseSensorAngle:  "decrease-sensor-angle",
	CmdResetSpecies:         "reset-species",
}

func (c Command) String() string {
	if int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// ParseCommand returns the command with the given name.
func ParseCommand(s string) (Command, error) {
	for i, name := range commandNames {
		if name == s && Command(i) != CmdNone {
			return Command(i), nil
		}
	}
	return CmdNone, fmt.Errorf("unknown tuning command %q", s)
}

// Commands lists every tuning command in display order.
func Commands() []Command {
	out := make([]Command, 0, len(commandNames)-1)
	for i := 1; i < len(commandNames); i++ {
		out = append(out, Command(i))
	}
	return out
}

// TuningSteps are the increments applied by one command.
type TuningSteps struct {
	MoveSpeed    float32
	TurnSpeed    float32
	SensorOffset float32
	SensorAngle  float32
}

// Tuning holds what the transitions need besides the current settings.
type Tuning struct {
	Steps    TuningSteps
	Defaults components.SpeciesSettings
}

// turnSign is the steering direction fixed by the configured default.
// Zero counts as positive.
func (t Tuning) turnSign() float32 {
	if t.Defaults.TurnSpeed < 0 {
		return -1
	}
	return 1
}

// Apply returns the settings after c. It is a pure function; unknown
// commands leave s unchanged.
func (t Tuning) Apply(s components.SpeciesSettings, c Command) components.SpeciesSettings {
	switch c {
	case CmdIncreaseMoveSpeed:
		s.MoveSpeed = max(0, s.MoveSpeed+t.Steps.MoveSpeed)
	case CmdDecreaseMoveSpeed:
		s.MoveSpeed = max(0, s.MoveSpeed-t.Steps.MoveSpeed)
	case CmdIncreaseTurnRate:
		s.TurnSpeed = t.turnSign() * (abs(s.TurnSpeed) + t.Steps.TurnSpeed)
	case CmdDecreaseTurnRate:
		s.TurnSpeed = t.turnSign() * max(0, abs(s.TurnSpeed)-t.Steps.TurnSpeed)
	case CmdIncreaseSensorOffset:
		s.SensorOffsetDst = max(0, s.SensorOffsetDst+t.Steps.SensorOffset)
	case CmdDecreaseSensorOffset:
		s.SensorOffsetDst = max(0, s.SensorOffsetDst-t.Steps.SensorOffset)
	case CmdIncreaseSensorAngle:
		s.SensorAngleDegrees = min(180, s.SensorAngleDegrees+t.Steps.SensorAngle)
	case CmdDecreaseSensorAngle:
		s.SensorAngleDegrees = max(0, s.SensorAngleDegrees-t.Steps.SensorAngle)
	case CmdResetSpecies:
		s = t.Defaults
	}
	return s
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
