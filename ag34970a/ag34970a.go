// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package ag34970a controls the Agilent/Keysight 34970A and 34972A Data
// Acquisition/Switch Units.
package ag34970a

import (
	"strconv"
	"strings"
	"time"

	"github.com/gotmc/instr"
	"github.com/gotmc/query"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Mode is a measurement function of the DAQ. The value is the literal
// command token the instrument expects.
type Mode string

// Measurement functions available to the DAQ.
const (
	CurrentAC    Mode = "CURRent:AC"
	CurrentDC    Mode = "CURRent:DC"
	Frequency    Mode = "FREQuency"
	Resistance4W Mode = "FRESistance"
	Period       Mode = "PERiod"
	Resistance   Mode = "RESistance"
	Temperature  Mode = "TEMPerature"
	VoltageAC    Mode = "VOLTage:AC"
	VoltageDC    Mode = "VOLTage:DC"
)

// TimeFormat selects how reading timestamps are reported.
type TimeFormat string

// Available timestamp formats.
const (
	Relative TimeFormat = "REL"
	Absolute TimeFormat = "ABS"
)

func parseTimeFormat(q, reply string) (TimeFormat, error) {
	switch tf := TimeFormat(strings.TrimSpace(reply)); tf {
	case Relative, Absolute:
		return tf, nil
	}
	return "", instr.InvalidReplyError{Query: q, Reply: reply}
}

// Config pairs a measurement mode with the channels it applies to. Once
// constructed, mode and channels are fixed; Configure applies a Config as a
// whole, replacing any previously set configuration.
type Config struct {
	mode     Mode
	channels []int
}

// NewConfig creates an immutable measurement configuration. The channel list
// must not be empty.
func NewConfig(mode Mode, channels []int) (Config, error) {
	if len(channels) == 0 {
		return Config{}, errors.New("empty channel list")
	}
	cp := make([]int, len(channels))
	copy(cp, channels)
	return Config{mode: mode, channels: cp}, nil
}

// Mode returns the measurement mode of the configuration.
func (c Config) Mode() Mode { return c.mode }

// Channels returns a copy of the configuration's channel list.
func (c Config) Channels() []int {
	cp := make([]int, len(c.channels))
	copy(cp, c.channels)
	return cp
}

// Per-model depth of the instrument's error queue.
const (
	queueDepth34970A = 10
	queueDepth34972A = 12
)

// Device represents an Agilent 34970A family DAQ/switch unit connected
// through an adapter owned by the caller.
type Device struct {
	adapter    instr.Adapter
	queueDepth int
	settle     time.Duration
}

// Option applies an option to the device.
type Option func(*Device)

// With34972A sizes the error queue drain for the LAN/USB 34972A model, whose
// queue holds 12 entries instead of 10.
func With34972A() Option {
	return func(d *Device) { d.queueDepth = queueDepth34972A }
}

// WithSettleTime inserts a delay between triggering a measurement and
// fetching its result.
func WithSettleTime(settle time.Duration) Option {
	return func(d *Device) { d.settle = settle }
}

// New creates a driver for a 34970A data acquisition/switch unit talking
// through the given adapter.
func New(adapter instr.Adapter, opts ...Option) *Device {
	d := &Device{
		adapter:    adapter,
		queueDepth: queueDepth34970A,
	}
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

// Clear clears the instrument's status registers and error queue.
func (d *Device) Clear() error {
	return d.adapter.Command("*CLS")
}

// Configure sets the measurement mode and channel list in one command,
// replacing any previously set configuration in full.
func (d *Device) Configure(cfg Config) error {
	return d.adapter.Command("CONF:%s %s", cfg.mode, instr.FormatList(cfg.channels))
}

// ScanList returns the channels in the instrument's scan list, in the order
// the instrument reports them.
func (d *Device) ScanList() ([]int, error) {
	reply, err := query.String(d.adapter, "ROUT:SCAN?")
	if err != nil {
		return nil, errors.Wrap(err, "scan list query failed")
	}
	return instr.ParseList(reply)
}

// SetScanList replaces the instrument's scan list with the given channels.
func (d *Device) SetScanList(channels []int) error {
	return d.adapter.Command("ROUT:SCAN %s", instr.FormatList(channels))
}

// ReadingChannel reports whether channel numbers are included with readings.
func (d *Device) ReadingChannel() (bool, error) {
	return d.queryToggle("FORMat:READing:CHANnel?")
}

// SetReadingChannel includes or omits channel numbers with readings.
func (d *Device) SetReadingChannel(on bool) error {
	return d.adapter.Command("FORMat:READing:CHANnel %s", onOff(on))
}

// ReadingTime reports whether timestamps are included with readings.
func (d *Device) ReadingTime() (bool, error) {
	return d.queryToggle("FORMat:READing:TIME?")
}

// SetReadingTime includes or omits timestamps with readings.
func (d *Device) SetReadingTime(on bool) error {
	return d.adapter.Command("FORMat:READing:TIME %s", onOff(on))
}

// ReadingUnit reports whether units are included with readings.
func (d *Device) ReadingUnit() (bool, error) {
	return d.queryToggle("FORMat:READ:UNIT?")
}

// SetReadingUnit includes or omits units with readings.
func (d *Device) SetReadingUnit(on bool) error {
	return d.adapter.Command("FORMat:READ:UNIT %s", onOff(on))
}

// ReadingTimeFormat returns the timestamp format used with readings.
func (d *Device) ReadingTimeFormat() (TimeFormat, error) {
	const q = "FORMat:READ:TIME:TYPE?"
	reply, err := query.String(d.adapter, q)
	if err != nil {
		return "", errors.Wrap(err, "time format query failed")
	}
	return parseTimeFormat(q, reply)
}

// SetReadingTimeFormat sets the timestamp format used with readings.
func (d *Device) SetReadingTimeFormat(tf TimeFormat) error {
	return d.adapter.Command("FORMat:READ:TIME:TYPE %s", tf)
}

// SetReadingFormat configures in one call whether channel numbers,
// timestamps, and units accompany each reading. Errors from the individual
// settings are combined.
func (d *Device) SetReadingFormat(channel, timestamp, unit bool) error {
	return multierr.Combine(
		d.SetReadingChannel(channel),
		d.SetReadingTime(timestamp),
		d.SetReadingUnit(unit),
	)
}

// CheckErrors drains the instrument's error queue, returning a map of error
// code to message for every entry popped before the first "0,No error"
// reply. The drain is capped at the model's queue depth so a misbehaving
// instrument cannot hold the loop open.
func (d *Device) CheckErrors() (map[int]string, error) {
	queued := make(map[int]string)
	for i := 0; i < d.queueDepth; i++ {
		reply, err := d.adapter.Query("SYSTem:ERRor?")
		if err != nil {
			return nil, errors.Wrap(err, "error queue query failed")
		}
		code, msg, err := parseQueueEntry(reply)
		if err != nil {
			return nil, err
		}
		if code == 0 {
			break
		}
		queued[code] = msg
	}
	return queued, nil
}

// parseQueueEntry splits an error queue reply of the form `<code>,"<message>"`.
func parseQueueEntry(reply string) (int, string, error) {
	head, _, found := strings.Cut(reply, ",")
	if !found {
		return 0, "", errors.Errorf("malformed error queue entry %q", reply)
	}
	code, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, "", errors.Wrapf(err, "malformed error code in %q", reply)
	}
	quoted := strings.Split(reply, `"`)
	if len(quoted) < 2 {
		return 0, "", errors.Errorf("malformed error message in %q", reply)
	}
	return code, quoted[1], nil
}

// Init arms the instrument and starts an acquisition, invalidating any
// previously latched readings.
func (d *Device) Init() error {
	return d.adapter.Command("INITiate")
}

// Fetch retrieves the latched readings without clearing them, one float per
// channel in scan order. It may be called repeatedly.
func (d *Device) Fetch() ([]float64, error) {
	reply, err := d.adapter.Query("FETCh?")
	if err != nil {
		return nil, errors.Wrap(err, "fetch failed")
	}
	return parseReadings(reply)
}

// Measure performs one acquisition: apply cfg if non-nil (replacing any
// previous configuration in full), initiate, wait the settle time, and fetch
// the readings. Result order matches the channel order of the most recent
// configuration.
func (d *Device) Measure(cfg *Config) ([]float64, error) {
	if cfg != nil {
		if err := d.Configure(*cfg); err != nil {
			return nil, errors.Wrap(err, "configure failed")
		}
	}
	if err := d.Init(); err != nil {
		return nil, errors.Wrap(err, "initiate failed")
	}
	if d.settle > 0 {
		time.Sleep(d.settle)
	}
	return d.Fetch()
}

func (d *Device) queryToggle(q string) (bool, error) {
	reply, err := query.String(d.adapter, q)
	if err != nil {
		return false, errors.Wrapf(err, "query %q failed", q)
	}
	switch strings.TrimSpace(reply) {
	case "1", "ON":
		return true, nil
	case "0", "OFF":
		return false, nil
	}
	return false, instr.InvalidReplyError{Query: q, Reply: reply}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func parseReadings(reply string) ([]float64, error) {
	fields := strings.Split(strings.TrimRight(reply, "\r\n"), ",")
	readings := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad reading %q", f)
		}
		readings[i] = v
	}
	return readings, nil
}
