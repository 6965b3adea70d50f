package main

import (
	"strings"
	"testing"

	"github.com/pthm-cable/slime/sim"
)

func TestParseCommands(t *testing.T) {
	cmds, err := parseCommands("increase-move-speed, decrease-turn-rate")
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 || cmds[0] != sim.CmdIncreaseMoveSpeed || cmds[1] != sim.CmdDecreaseTurnRate {
		t.Errorf("unexpected commands %v", cmds)
	}

	if cmds, err := parseCommands(""); err != nil || cmds != nil {
		t.Errorf("empty list should parse to nothing, got %v, %v", cmds, err)
	}
	if _, err := parseCommands("faster"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestCommandListNamesEveryCommand(t *testing.T) {
	list := commandList()
	for _, c := range sim.Commands() {
		if !strings.Contains(list, c.String()) {
			t.Errorf("usage is missing %s", c)
		}
	}
}
