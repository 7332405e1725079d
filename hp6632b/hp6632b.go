// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package hp6632b controls the HP/Agilent 6632B system DC power supply,
// which combines a programmable DC source with a current meter capable of
// measuring very low-level currents.
package hp6632b

import (
	"strings"

	"github.com/gotmc/instr"
	"github.com/gotmc/query"
	"github.com/pkg/errors"
)

// Device represents an HP 6632B system DC power supply connected through an
// adapter owned by the caller.
type Device struct {
	adapter instr.Adapter
}

// New creates a driver for a 6632B talking through the given adapter.
func New(adapter instr.Adapter) *Device {
	return &Device{adapter: adapter}
}

// ID returns the instrument's identification string.
func (d *Device) ID() (string, error) {
	s, err := query.String(d.adapter, "*IDN?")
	return strings.TrimSpace(s), err
}

// SetVoltage programs the output voltage level in volts.
func (d *Device) SetVoltage(volts float64) error {
	return d.adapter.Command("VOLTage %g", volts)
}

// Voltage measures the output voltage in volts.
func (d *Device) Voltage() (float64, error) {
	v, err := query.Float64(d.adapter, "MEAS:VOLT?")
	return v, errors.Wrap(err, "voltage measurement failed")
}

// SetCurrent programs the output current limit in amps.
func (d *Device) SetCurrent(amps float64) error {
	return d.adapter.Command("CURRent %g", amps)
}

// Current measures the output current in amps.
func (d *Device) Current() (float64, error) {
	v, err := query.Float64(d.adapter, "MEAS:CURR?")
	return v, errors.Wrap(err, "current measurement failed")
}

// SetOvervoltage programs the overvoltage protection level in volts.
func (d *Device) SetOvervoltage(volts float64) error {
	return d.adapter.Command("VOLTage:PROTection %g", volts)
}

// Overvoltage returns the programmed overvoltage protection level in volts.
func (d *Device) Overvoltage() (float64, error) {
	v, err := query.Float64(d.adapter, "VOLTage:PROTection?")
	return v, errors.Wrap(err, "overvoltage query failed")
}

// SetTriggeredVoltage programs the voltage level to apply on the next
// trigger, in volts.
func (d *Device) SetTriggeredVoltage(volts float64) error {
	return d.adapter.Command("VOLTage:TRIGgered %g", volts)
}

// TriggeredVoltage returns the pending triggered voltage level in volts.
func (d *Device) TriggeredVoltage() (float64, error) {
	v, err := query.Float64(d.adapter, "VOLTage:TRIGgered?")
	return v, errors.Wrap(err, "triggered voltage query failed")
}

// SetTriggeredCurrent programs the current limit to apply on the next
// trigger, in amps.
func (d *Device) SetTriggeredCurrent(amps float64) error {
	return d.adapter.Command("CURRent:TRIGgered %g", amps)
}

// TriggeredCurrent returns the pending triggered current limit in amps.
func (d *Device) TriggeredCurrent() (float64, error) {
	v, err := query.Float64(d.adapter, "CURRent:TRIGgered?")
	return v, errors.Wrap(err, "triggered current query failed")
}

// SetOvercurrent enables or disables over-current protection.
func (d *Device) SetOvercurrent(on bool) error {
	return d.adapter.Command("CURRent:PROTection:STATe %s", onOff(on))
}

// Overcurrent reports whether over-current protection is enabled.
func (d *Device) Overcurrent() (bool, error) {
	v, err := query.Bool(d.adapter, "CURRent:PROTection:STATe?")
	return v, errors.Wrap(err, "overcurrent query failed")
}

// SetOutput enables or disables the supply's output.
func (d *Device) SetOutput(on bool) error {
	return d.adapter.Command("OUTPut %s", onOff(on))
}

// Output reports whether the supply's output is enabled.
func (d *Device) Output() (bool, error) {
	v, err := query.Bool(d.adapter, "OUTPut?")
	return v, errors.Wrap(err, "output query failed")
}

// Abort cancels any pending triggered actions.
func (d *Device) Abort() error {
	return d.adapter.Command("ABORt")
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
