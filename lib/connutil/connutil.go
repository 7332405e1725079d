// Package connutil wires up the flag plumbing and serial connection shared
// by the example programs.
package connutil

import (
	"flag"
	"log"
	"time"

	"github.com/gotmc/instr"
	"github.com/gotmc/instr/lib/find"
	"github.com/soypat/cereal"
	"go.uber.org/multierr"
)

type Conn struct {
	SerialPort string
	GpibPAD    int
	GpibSAD    int
	Delay      time.Duration

	tty     string
	finderr error
}

// AddFlags is to be called before [flag.Parse].
func (c *Conn) AddFlags() {
	c.tty, c.finderr = find.Find(find.ArduinoFilter)
	if c.finderr != nil {
		c.tty = "ttyACM0"
	}

	// Get Virtual COM Port (VCP) serial port for Prologix.
	flag.StringVar(
		&c.SerialPort,
		"port",
		"/dev/"+c.tty,
		"Serial port for Prologix VCP GPIB controller",
	)
	if c.GpibPAD == 0 {
		c.GpibPAD = 4
	}
	if c.Delay == 0 {
		c.Delay = 100 * time.Millisecond
	}

	flag.IntVar(&c.GpibPAD, "pad", c.GpibPAD, "GPIB primary address for the instrument")
	flag.IntVar(&c.GpibSAD, "sad", c.GpibSAD, "GPIB secondary address for the instrument (0 = none)")
	flag.DurationVar(&c.Delay, "delay", c.Delay, "delay between writes")
}

// Setup opens the serial port and creates the GPIB controller. It is to be
// called after both [(*Conn).AddFlags] and [flag.Parse]. The returned
// cleanup returns the instrument to local control and closes the port.
func (c *Conn) Setup(opts []instr.ControllerOption) (gpib *instr.Controller, cleanup func() error, err error) {
	nocleanup := func() error { return nil }

	if c.finderr != nil && c.SerialPort == "/dev/ttyACM0" {
		// only print this if the port isn't overridden via flag
		log.Printf("locating serial port failed, guessing: %s", c.finderr)
	}

	log.SetFlags(log.Lmicroseconds)
	log.Printf("Serial port = %s", c.SerialPort)

	cimpl := cereal.Tarm{}
	port, err := cimpl.OpenPort(c.SerialPort, cereal.Mode{
		BaudRate:    115200,
		ReadTimeout: time.Second * 30,
	})
	if err != nil {
		return nil, nocleanup, err
	}

	if c.Delay > 0 {
		opts = append(opts, instr.WithWriteDelay(c.Delay))
	}
	if c.GpibSAD != 0 {
		opts = append(opts, instr.WithSecondaryAddress(c.GpibSAD))
	}

	gpib, err = instr.NewController(port, c.GpibPAD, false, opts...)
	if err != nil {
		port.Close()
		return nil, nocleanup, err
	}

	cleanup = func() error {
		// Return local control to the front panel.
		err := gpib.FrontPanel(true)
		if fl, ok := port.(interface{ Flush() error }); ok {
			err = multierr.Append(err, fl.Flush())
		}
		return multierr.Append(err, port.Close())
	}

	return gpib, cleanup, nil
}
