// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package key2182

import (
	"fmt"
	"io"
	"testing"

	"github.com/gotmc/instr"
	"github.com/pkg/errors"
)

type simNVM struct {
	cmds    []string
	replies map[string]string
}

func newSim() *simNVM {
	return &simNVM{replies: make(map[string]string)}
}

func (s *simNVM) Command(format string, a ...any) error {
	cmd := format
	if a != nil {
		cmd = fmt.Sprintf(format, a...)
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *simNVM) Query(cmd string) (string, error) {
	s.cmds = append(s.cmds, cmd)
	if r, ok := s.replies[cmd]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unexpected query %q", cmd)
}

func (s *simNVM) ReadBinary(n int) ([]byte, error) { return nil, io.EOF }

func (s *simNVM) ReadString() (string, error) { return "", io.EOF }

var _ instr.Adapter = (*simNVM)(nil)

func TestSetChannelOutOfRange(t *testing.T) {
	sim := newSim()
	nvm := New(sim)

	var rangeErr instr.RangeError
	if err := nvm.SetChannel(5); !errors.As(err, &rangeErr) {
		t.Errorf("got %v, want RangeError", err)
	}
	if err := nvm.SetChannel(-1); !errors.As(err, &rangeErr) {
		t.Errorf("got %v, want RangeError", err)
	}
	// Rejection must happen before anything reaches the instrument.
	if len(sim.cmds) != 0 {
		t.Errorf("commands sent for rejected channels: %v", sim.cmds)
	}
}

func TestSetChannel(t *testing.T) {
	sim := newSim()
	sim.replies["SENSE:CHAN?"] = "2\n"
	nvm := New(sim)

	for ch := 0; ch <= 2; ch++ {
		if err := nvm.SetChannel(ch); err != nil {
			t.Fatalf("channel %d: %s", ch, err)
		}
	}
	want := []string{"SENSE:CHAN 0", "SENSE:CHAN 1", "SENSE:CHAN 2"}
	for i := range want {
		if sim.cmds[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, sim.cmds[i], want[i])
		}
	}

	ch, err := nvm.Channel()
	if err != nil {
		t.Fatal(err)
	}
	if ch != 2 {
		t.Errorf("channel = %d, want 2", ch)
	}
}

func TestMeasureCommandSequence(t *testing.T) {
	sim := newSim()
	sim.replies["FETCh?"] = "2.5E-6\n"
	nvm := New(sim)

	v, err := nvm.Measure(Voltage)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2.5e-6 {
		t.Errorf("reading = %v, want 2.5e-6", v)
	}
	want := []string{"SENSe:FUNCtion VOLTage", "INITiate", "FETCh?"}
	for i := range want {
		if sim.cmds[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, sim.cmds[i], want[i])
		}
	}
}

func TestFetchRepeatable(t *testing.T) {
	sim := newSim()
	sim.replies["FETCh?"] = "1.0E-7\n"
	nvm := New(sim)

	for i := 0; i < 3; i++ {
		v, err := nvm.Fetch()
		if err != nil {
			t.Fatal(err)
		}
		if v != 1.0e-7 {
			t.Fatalf("fetch %d = %v", i, v)
		}
	}
}

func TestSenseFunctionRoundTrip(t *testing.T) {
	sim := newSim()
	sim.replies["SENSe:FUNCtion?"] = "\"VOLT\"\n"
	nvm := New(sim)

	if err := nvm.SetSense(Temperature); err != nil {
		t.Fatal(err)
	}
	if sim.cmds[0] != "SENSe:FUNCtion TEMPerature" {
		t.Errorf("command = %q", sim.cmds[0])
	}

	s, err := nvm.SenseFunction()
	if err != nil {
		t.Fatal(err)
	}
	if s != Voltage {
		t.Errorf("sense = %q, want VOLTage", s)
	}
}

func TestSenseFunctionInvalidReply(t *testing.T) {
	sim := newSim()
	sim.replies["SENSe:FUNCtion?"] = "\"RES\"\n"
	nvm := New(sim)

	var invalid instr.InvalidReplyError
	if _, err := nvm.SenseFunction(); !errors.As(err, &invalid) {
		t.Errorf("got %v, want InvalidReplyError", err)
	}
}
