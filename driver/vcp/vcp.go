// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package vcp opens a Prologix GPIB-USB controller attached as a Virtual COM
// Port.
package vcp

import (
	"go.bug.st/serial"
)

// VCP wraps the serial port behind a Prologix Virtual COM Port controller.
type VCP struct {
	port serial.Port
}

// NewVCP opens the serial port with the given name at the fixed 115200 baud
// rate used by the Prologix controller.
func NewVCP(portName string) (*VCP, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return &VCP{port: port}, nil
}

// Read reads from the serial port into p.
func (v *VCP) Read(p []byte) (n int, err error) {
	return v.port.Read(p)
}

// Write writes p to the serial port.
func (v *VCP) Write(p []byte) (n int, err error) {
	return v.port.Write(p)
}

// Flush discards any unread data in the serial port's input buffer.
func (v *VCP) Flush() error {
	return v.port.ResetInputBuffer()
}

// Close closes the serial port.
func (v *VCP) Close() error {
	return v.port.Close()
}
