// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package instr provides drivers for laboratory test instruments
// (multimeters, DAQ/switch units, power supplies, nanovoltmeters) that speak
// SCPI-like ASCII command sets through a GPIB, serial, or Ethernet adapter.
package instr

// Adapter models the communication channel between an instrument driver and
// its instrument. The Controller in this package satisfies Adapter, as does
// anything else that can write ASCII commands and read terminated or
// fixed-length replies. Drivers do not own the adapter; its lifetime is
// managed by the caller, and callers must serialize access if the adapter is
// shared between multiple logical clients.
type Adapter interface {
	// Command formats according to a format specifier if arguments are
	// provided and sends the resulting ASCII command to the instrument. No
	// reply is read.
	Command(format string, a ...any) error
	// Query sends the given ASCII command to the instrument and reads one
	// terminated reply.
	Query(cmd string) (string, error)
	// ReadBinary addresses the instrument to talk and reads exactly n bytes.
	// Used for fixed-length binary replies.
	ReadBinary(n int) ([]byte, error)
	// ReadString reads from the instrument until the read terminator, without
	// writing a command first.
	ReadString() (string, error)
}
