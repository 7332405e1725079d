// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hp6632b

import (
	"fmt"
	"io"
	"testing"

	"github.com/gotmc/instr"
)

type simPSU struct {
	cmds    []string
	replies map[string]string
}

func newSim() *simPSU {
	return &simPSU{replies: make(map[string]string)}
}

func (s *simPSU) Command(format string, a ...any) error {
	cmd := format
	if a != nil {
		cmd = fmt.Sprintf(format, a...)
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *simPSU) Query(cmd string) (string, error) {
	s.cmds = append(s.cmds, cmd)
	if r, ok := s.replies[cmd]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unexpected query %q", cmd)
}

func (s *simPSU) ReadBinary(n int) ([]byte, error) { return nil, io.EOF }

func (s *simPSU) ReadString() (string, error) { return "", io.EOF }

var _ instr.Adapter = (*simPSU)(nil)

func TestProgramOutput(t *testing.T) {
	sim := newSim()
	psu := New(sim)

	if err := psu.SetVoltage(20); err != nil {
		t.Fatal(err)
	}
	if err := psu.SetCurrent(0.5); err != nil {
		t.Fatal(err)
	}
	if err := psu.SetOutput(true); err != nil {
		t.Fatal(err)
	}
	want := []string{"VOLTage 20", "CURRent 0.5", "OUTPut ON"}
	for i := range want {
		if sim.cmds[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, sim.cmds[i], want[i])
		}
	}
}

func TestMeasurements(t *testing.T) {
	sim := newSim()
	sim.replies["MEAS:VOLT?"] = "1.9997E+1\n"
	sim.replies["MEAS:CURR?"] = "4.9820E-1\n"
	psu := New(sim)

	v, err := psu.Voltage()
	if err != nil {
		t.Fatal(err)
	}
	if v != 19.997 {
		t.Errorf("voltage = %v", v)
	}
	i, err := psu.Current()
	if err != nil {
		t.Fatal(err)
	}
	if i != 0.4982 {
		t.Errorf("current = %v", i)
	}
}

func TestProtection(t *testing.T) {
	sim := newSim()
	sim.replies["VOLTage:PROTection?"] = "22\n"
	sim.replies["CURRent:PROTection:STATe?"] = "1\n"
	psu := New(sim)

	if err := psu.SetOvervoltage(22); err != nil {
		t.Fatal(err)
	}
	if sim.cmds[0] != "VOLTage:PROTection 22" {
		t.Errorf("command = %q", sim.cmds[0])
	}
	ovp, err := psu.Overvoltage()
	if err != nil {
		t.Fatal(err)
	}
	if ovp != 22 {
		t.Errorf("overvoltage = %v", ovp)
	}

	if err := psu.SetOvercurrent(true); err != nil {
		t.Fatal(err)
	}
	on, err := psu.Overcurrent()
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Error("overcurrent protection should report enabled")
	}
}

func TestTriggeredLevels(t *testing.T) {
	sim := newSim()
	sim.replies["VOLTage:TRIGgered?"] = "12.5\n"
	sim.replies["CURRent:TRIGgered?"] = "0.25\n"
	psu := New(sim)

	if err := psu.SetTriggeredVoltage(12.5); err != nil {
		t.Fatal(err)
	}
	if err := psu.SetTriggeredCurrent(0.25); err != nil {
		t.Fatal(err)
	}
	want := []string{"VOLTage:TRIGgered 12.5", "CURRent:TRIGgered 0.25"}
	for i := range want {
		if sim.cmds[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, sim.cmds[i], want[i])
		}
	}

	v, err := psu.TriggeredVoltage()
	if err != nil {
		t.Fatal(err)
	}
	c, err := psu.TriggeredCurrent()
	if err != nil {
		t.Fatal(err)
	}
	if v != 12.5 || c != 0.25 {
		t.Errorf("triggered levels = %v, %v", v, c)
	}

	if err := psu.Abort(); err != nil {
		t.Fatal(err)
	}
	if last := sim.cmds[len(sim.cmds)-1]; last != "ABORt" {
		t.Errorf("command = %q", last)
	}
}
