// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package key2182 controls the Keithley 2182 and 2182A nanovoltmeters.
package key2182

import (
	"strconv"
	"strings"
	"time"

	"github.com/gotmc/instr"
	"github.com/gotmc/query"
	"github.com/pkg/errors"
)

// Sense is a measurement function of the nanovoltmeter. The value is the
// literal command token the instrument expects.
type Sense string

// Measurement functions of the 2182.
const (
	Voltage     Sense = "VOLTage"
	Temperature Sense = "TEMPerature"
)

// Valid sense channels. Channel 0 is the internal reference; 1 and 2 are the
// input channels.
const (
	minChannel = 0
	maxChannel = 2
)

func parseSense(q, reply string) (Sense, error) {
	// The instrument replies with the short form in quotes, e.g. "VOLT".
	token := strings.Trim(strings.TrimSpace(reply), `"`)
	switch strings.ToUpper(token) {
	case "VOLT", "VOLTAGE":
		return Voltage, nil
	case "TEMP", "TEMPERATURE":
		return Temperature, nil
	}
	return "", instr.InvalidReplyError{Query: q, Reply: reply}
}

// Device represents a Keithley 2182 nanovoltmeter connected through an
// adapter owned by the caller.
type Device struct {
	adapter instr.Adapter
	settle  time.Duration
}

// Option applies an option to the device.
type Option func(*Device)

// WithSettleTime inserts a delay between triggering a measurement and
// fetching its result.
func WithSettleTime(settle time.Duration) Option {
	return func(d *Device) { d.settle = settle }
}

// New creates a driver for a 2182 talking through the given adapter.
func New(adapter instr.Adapter, opts ...Option) *Device {
	d := &Device{adapter: adapter}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the instrument's identification string.
func (d *Device) ID() (string, error) {
	s, err := query.String(d.adapter, "*IDN?")
	return strings.TrimSpace(s), err
}

// Reset resets the instrument to its factory configuration.
func (d *Device) Reset() error {
	return d.adapter.Command("*RST")
}

// SetSense selects the measurement function.
func (d *Device) SetSense(s Sense) error {
	return d.adapter.Command("SENSe:FUNCtion %s", s)
}

// SenseFunction returns the active measurement function.
func (d *Device) SenseFunction() (Sense, error) {
	const q = "SENSe:FUNCtion?"
	reply, err := query.String(d.adapter, q)
	if err != nil {
		return "", errors.Wrap(err, "sense function query failed")
	}
	return parseSense(q, reply)
}

// SetChannel selects the sense channel. Channels outside 0 through 2 fail
// before any command is written.
func (d *Device) SetChannel(channel int) error {
	if channel < minChannel || channel > maxChannel {
		return instr.RangeError{Value: channel, Min: minChannel, Max: maxChannel}
	}
	return d.adapter.Command("SENSE:CHAN %d", channel)
}

// Channel returns the active sense channel.
func (d *Device) Channel() (int, error) {
	n, err := query.Int(d.adapter, "SENSE:CHAN?")
	if err != nil {
		return 0, errors.Wrap(err, "channel query failed")
	}
	if n < minChannel || n > maxChannel {
		return 0, instr.InvalidReplyError{Query: "SENSE:CHAN?", Reply: strconv.Itoa(n)}
	}
	return n, nil
}

// Init arms the instrument and starts an acquisition, invalidating any
// previously latched reading.
func (d *Device) Init() error {
	return d.adapter.Command("INITiate")
}

// Fetch retrieves the latched reading without clearing it. It may be called
// repeatedly.
func (d *Device) Fetch() (float64, error) {
	v, err := query.Float64(d.adapter, "FETCh?")
	return v, errors.Wrap(err, "fetch failed")
}

// Measure selects the given measurement function, triggers an acquisition,
// waits the settle time, and fetches the reading.
func (d *Device) Measure(s Sense) (float64, error) {
	if err := d.SetSense(s); err != nil {
		return 0, errors.Wrap(err, "sense function set failed")
	}
	if err := d.Init(); err != nil {
		return 0, errors.Wrap(err, "initiate failed")
	}
	if d.settle > 0 {
		time.Sleep(d.settle)
	}
	return d.Fetch()
}
