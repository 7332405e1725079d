// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package hp3458a controls the HP/Agilent/Keysight 3458A 8.5-digit
// multimeter. The 3458A predates SCPI; it speaks its own terse command set
// and terminates ASCII replies with a carriage return, so the adapter's read
// terminator must be set accordingly (see instr.WithReadTerminator).
package hp3458a

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/gotmc/instr"
	"github.com/gotmc/query"
	"github.com/pkg/errors"
)

// Func is a measurement function. The value is the numeric code used by the
// FUNC command.
type Func int

// Measurement functions of the 3458A.
const (
	DCV   Func = 1  // DC voltage
	ACV   Func = 2  // AC voltage
	ACDCV Func = 3  // AC+DC voltage
	Ohm   Func = 4  // two-wire resistance
	OhmF  Func = 5  // four-wire resistance
	DCI   Func = 6  // DC current
	ACI   Func = 7  // AC current
	ACDCI Func = 8  // AC+DC current
	Freq  Func = 9  // frequency
	Per   Func = 10 // period
)

func (f Func) valid() bool { return f >= DCV && f <= Per }

// TriggerArm is a trigger-arm source for the TARM command.
type TriggerArm int

// Trigger-arm sources of the 3458A.
const (
	ArmAuto TriggerArm = 1 // always armed
	ArmExt  TriggerArm = 2 // external trigger input
	ArmSgl  TriggerArm = 3 // arm once, then hold
	ArmHold TriggerArm = 4 // stop readings
	ArmSyn  TriggerArm = 5 // arm when addressed to talk
)

func (t TriggerArm) valid() bool { return t >= ArmAuto && t <= ArmSyn }

// Format is a reading output encoding for the OFORMAT and MFORMAT commands.
// Each format implies the byte count of one reading and how to decode it.
type Format int

// Output encodings of the 3458A.
const (
	ASCII Format = 1 // ASCII, read to the terminator
	SInt  Format = 2 // 16-bit big-endian two's complement
	DInt  Format = 3 // 32-bit big-endian two's complement
	SReal Format = 4 // 32-bit big-endian IEEE-754
	DReal Format = 5 // 64-bit big-endian IEEE-754
)

var formatNames = map[Format]string{
	ASCII: "ASCII",
	SInt:  "SINT",
	DInt:  "DINT",
	SReal: "SREAL",
	DReal: "DREAL",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "FORMAT(" + strconv.Itoa(int(f)) + ")"
}

// size returns the byte count of one reading in this format. ASCII readings
// have no fixed size; they are read to the terminator.
func (f Format) size() int {
	switch f {
	case SInt:
		return 2
	case DInt, SReal:
		return 4
	case DReal:
		return 8
	}
	return 0
}

// Device represents an HP 3458A multimeter connected through an adapter
// owned by the caller.
type Device struct {
	adapter instr.Adapter
	oformat Format // last commanded output format; readings decode per this
}

// New creates a driver for a 3458A talking through the given adapter.
// Readings are decoded as ASCII until an output format is set.
func New(adapter instr.Adapter) *Device {
	return &Device{adapter: adapter, oformat: ASCII}
}

// ID returns the instrument's identification string.
func (d *Device) ID() (string, error) {
	s, err := query.String(d.adapter, "ID?")
	return strings.TrimSpace(s), err
}

// Clear clears the instrument's status byte.
func (d *Device) Clear() error {
	return d.adapter.Command("CLEAR")
}

// Reset resets the instrument to its power-on state.
func (d *Device) Reset() error {
	return d.adapter.Command("RESET")
}

// SetFunction selects the measurement function.
func (d *Device) SetFunction(f Func) error {
	if !f.valid() {
		return instr.RangeError{Value: int(f), Min: int(DCV), Max: int(Per)}
	}
	return d.adapter.Command("FUNC %d", f)
}

// Function returns the active measurement function.
func (d *Device) Function() (Func, error) {
	const q = "FUNC?"
	reply, err := query.String(d.adapter, q)
	if err != nil {
		return 0, errors.Wrap(err, "function query failed")
	}
	// FUNC? replies with "<function>,<range>"; only the code matters here.
	head, _, _ := strings.Cut(strings.TrimSpace(reply), ",")
	n, err := strconv.Atoi(head)
	if err != nil || !Func(n).valid() {
		return 0, instr.InvalidReplyError{Query: q, Reply: reply}
	}
	return Func(n), nil
}

// SetTriggerArm selects the trigger-arm source.
func (d *Device) SetTriggerArm(t TriggerArm) error {
	if !t.valid() {
		return instr.RangeError{Value: int(t), Min: int(ArmAuto), Max: int(ArmSyn)}
	}
	return d.adapter.Command("TARM %d", t)
}

// TriggerArm returns the active trigger-arm source.
func (d *Device) TriggerArm() (TriggerArm, error) {
	const q = "TARM?"
	n, err := query.Int(d.adapter, q)
	if err != nil {
		return 0, errors.Wrap(err, "trigger arm query failed")
	}
	if !TriggerArm(n).valid() {
		return 0, instr.InvalidReplyError{Query: q, Reply: strconv.Itoa(n)}
	}
	return TriggerArm(n), nil
}

// SetOutputFormat selects the encoding of readings sent over the bus. The
// driver remembers the format so subsequent readings are sized and decoded
// correctly.
func (d *Device) SetOutputFormat(f Format) error {
	if _, ok := formatNames[f]; !ok {
		return instr.EncodingError{Format: f.String()}
	}
	if err := d.adapter.Command("OFORMAT %d", f); err != nil {
		return err
	}
	d.oformat = f
	return nil
}

// OutputFormat returns the reading encoding the instrument reports.
func (d *Device) OutputFormat() (Format, error) {
	const q = "OFORMAT?"
	n, err := query.Int(d.adapter, q)
	if err != nil {
		return 0, errors.Wrap(err, "output format query failed")
	}
	f := Format(n)
	if _, ok := formatNames[f]; !ok {
		return 0, instr.InvalidReplyError{Query: q, Reply: strconv.Itoa(n)}
	}
	return f, nil
}

// SetMemoryFormat selects the encoding of readings stored in reading memory.
func (d *Device) SetMemoryFormat(f Format) error {
	if _, ok := formatNames[f]; !ok {
		return instr.EncodingError{Format: f.String()}
	}
	return d.adapter.Command("MFORMAT %d", f)
}

// SetAutoZero enables or disables the autozero function.
func (d *Device) SetAutoZero(on bool) error {
	return d.adapter.Command("AZERO %d", zeroOne(on))
}

// AutoZero reports whether autozero is enabled.
func (d *Device) AutoZero() (bool, error) {
	return query.Bool(d.adapter, "AZERO?")
}

// SetDisplay turns the front-panel display on or off. Turning the display
// off speeds up high-rate acquisitions.
func (d *Device) SetDisplay(on bool) error {
	return d.adapter.Command("DISP %d", zeroOne(on))
}

// Display reports whether the front-panel display is on.
func (d *Device) Display() (bool, error) {
	return query.Bool(d.adapter, "DISP?")
}

// Reading triggers a single measurement and decodes the reply according to
// the declared output format.
func (d *Device) Reading() (float64, error) {
	if err := d.adapter.Command("TRIG %d", ArmAuto); err != nil {
		return 0, errors.Wrap(err, "trigger failed")
	}
	return d.read()
}

// DCVoltage selects the DC voltage function, triggers a single measurement,
// and returns the decoded reading.
func (d *Device) DCVoltage() (float64, error) {
	if err := d.SetFunction(DCV); err != nil {
		return 0, err
	}
	return d.Reading()
}

// read fetches exactly one reading from the bus: the byte count implied by
// the declared output format, or one terminated line for ASCII.
func (d *Device) read() (float64, error) {
	n := d.oformat.size()
	if n == 0 {
		if d.oformat != ASCII {
			return 0, instr.EncodingError{Format: d.oformat.String()}
		}
		reply, err := d.adapter.ReadString()
		if err != nil {
			return 0, errors.Wrap(err, "reading failed")
		}
		v, err := strconv.ParseFloat(strings.TrimRight(reply, "\r\n"), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "bad reading %q", reply)
		}
		return v, nil
	}
	buf, err := d.adapter.ReadBinary(n)
	if err != nil {
		return 0, errors.Wrapf(err, "reading %d bytes failed", n)
	}
	return d.decode(buf)
}

// decode interprets one big-endian reading per the declared output format.
func (d *Device) decode(buf []byte) (float64, error) {
	switch d.oformat {
	case SInt:
		return float64(int16(binary.BigEndian.Uint16(buf))), nil
	case DInt:
		return float64(int32(binary.BigEndian.Uint32(buf))), nil
	case SReal:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf))), nil
	case DReal:
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
	}
	return 0, instr.EncodingError{Format: d.oformat.String()}
}

func zeroOne(on bool) int {
	if on {
		return 1
	}
	return 0
}
