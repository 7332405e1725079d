// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package instr

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// Controller models a Prologix-style GPIB controller-in-charge. It satisfies
// Adapter, so any instrument driver in this module can talk through it.
type Controller struct {
	rw               io.ReadWriter
	rdr              *bufio.Reader
	primaryAddr      int
	hasSecondaryAddr bool
	secondaryAddr    int
	auto             bool
	usbTerm          byte
	eotChar          byte
	writeDelay       time.Duration
	debug            bool // if true, log controller commands before sending. Set via WithDebug().
	ar488            bool // compatibility with Arduino AR488 - see WithAR488 documentation for details.
}

// ControllerOption applies an option to the controller.
type ControllerOption func(*Controller)

// NewController creates a GPIB controller-in-charge at the given address
// using the given Prologix driver, which can either be a Virtual COM Port
// (VCP), USB direct, or Ethernet. Enable clear to send the Selected Device
// Clear (SDC) message to the GPIB address. Optionally controller
// configuration can be included using a ControllerOption.
func NewController(
	rw io.ReadWriter,
	addr int,
	clear bool,
	opts ...ControllerOption,
) (*Controller, error) {
	c := Controller{
		rw:               rw,
		rdr:              bufio.NewReader(rw),
		primaryAddr:      addr,
		hasSecondaryAddr: false,
		auto:             false,
		usbTerm:          '\n',
		eotChar:          '\n',
	}

	// Apply options using the functional option pattern.
	for _, opt := range opts {
		opt(&c)
	}

	if !isPrimaryAddressValid(c.primaryAddr) {
		return nil, fmt.Errorf("invalid primary address %d (must be 0-30)", c.primaryAddr)
	}

	// Configure the Prologix GPIB controller.
	addrCmd := fmt.Sprintf("addr %d", c.primaryAddr)
	if c.hasSecondaryAddr {
		if !isSecondaryAddressValid(c.secondaryAddr) {
			return nil, fmt.Errorf("invalid secondary address %d (must be 96-126)", c.secondaryAddr)
		}
		addrCmd = fmt.Sprintf("addr %d %d", c.primaryAddr, c.secondaryAddr)
	}
	eotCharCmd := fmt.Sprintf("eot_char %d", c.eotChar)
	cmds := []string{}
	if !c.ar488 {
		cmds = append(cmds,
			"verbose 0", // turn off verbosity if on
			"savecfg 0", // Disable saving of configuration parameters in EPROM
		)
	}
	cmds = append(cmds,
		addrCmd,           // Set the primary address.
		"mode 1",          // Switch to controller mode.
		"auto 0",          // Turn off read-after-write and address instrument to listen.
		"eoi 1",           // Enable EOI assertion with last character.
		"eos 0",           // Set GPIB termination.
		"read_tmo_ms 500", // Set the read timeout to 500 ms.
		eotCharCmd,        // Set the EOT char
		"eot_enable 1",    // Append character when EOI detected?
	)
	if !c.ar488 {
		cmds = append(cmds,
			"savecfg 1", // Enable saving of configuration parameters in EPROM
		)
	}
	if clear {
		cmds = append(cmds, "clr")
	}
	for _, cmd := range cmds {
		if err := c.CommandController(cmd); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// WithSecondaryAddress sets a secondary address, which must be in the range
// of 96 and 126, inclusive.
func WithSecondaryAddress(addr int) ControllerOption {
	return func(c *Controller) {
		c.hasSecondaryAddr = true
		c.secondaryAddr = addr
	}
}

// WithDebug causes commands and responses to be logged.
func WithDebug() ControllerOption { return func(c *Controller) { c.debug = true } }

// WithAR488 slightly alters the init commands, for compatiblity with the
// Arduino-based AR488. Specifically, we do not emit 'verbose 0', nor do
// we toggle savecfg.
func WithAR488() ControllerOption { return func(c *Controller) { c.ar488 = true } }

// WithReadTerminator sets the character that terminates instrument replies.
// Defaults to a line feed; the HP 3458A, for one, terminates with a carriage
// return.
func WithReadTerminator(term byte) ControllerOption {
	return func(c *Controller) { c.eotChar = term }
}

// WithWriteDelay inserts a delay after each write, for instruments that drop
// commands arriving back to back.
func WithWriteDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.writeDelay = d }
}

// Write writes the given data to the instrument at the currently assigned
// GPIB address.
func (c *Controller) Write(p []byte) (n int, err error) {
	n, err = c.rw.Write(p)
	c.settle()
	return n, err
}

// Read reads from the instrument at the currently assigned GPIB address into
// the given byte slice.
func (c *Controller) Read(p []byte) (n int, err error) {
	return c.rdr.Read(p)
}

// WriteString writes a string to the instrument at the currently assigned
// GPIB address. Leading and trailing whitespace is removed before appending
// the USB terminator.
func (c *Controller) WriteString(s string) (n int, err error) {
	cmd := fmt.Sprintf("%s%c", strings.TrimSpace(s), c.usbTerm)
	if c.debug {
		log.Printf("writing string: %q", cmd)
	}
	n, err = c.rw.Write([]byte(cmd))
	c.settle()
	return n, err
}

// Command formats according to a format specifier if provided and sends a
// SCPI/ASCII command to the instrument at the currently assigned GPIB
// address. All leading and trailing whitespace is removed before appending
// the USB terminator to the command sent to the Prologix.
func (c *Controller) Command(format string, a ...any) error {
	cmd := format
	if a != nil {
		cmd = fmt.Sprintf(format, a...)
	}
	cmd = fmt.Sprintf("%s%c", strings.TrimSpace(cmd), c.usbTerm)
	if c.debug {
		log.Printf("cmd %q (%x)", cmd, cmd)
	}
	_, err := fmt.Fprint(c.rw, cmd)
	c.settle()
	return err
}

// Query queries the instrument at the currently assigned GPIB address using
// the given SCPI/ASCII command. The cmd string does not need to include a
// new line character, since all leading and trailing whitespace is removed
// before appending the USB terminator to the command sent to the Prologix.
// When data from the host is received over USB, the Prologix controller
// removes all non-escaped LF, CR and ESC characters and appends the GPIB
// terminator, as specified by the `eos` command, before sending the data to
// instruments.
func (c *Controller) Query(cmd string) (string, error) {
	cmd = fmt.Sprintf("%s%c", strings.TrimSpace(cmd), c.usbTerm)
	if c.debug {
		log.Printf("query: %q", cmd)
	}
	_, err := fmt.Fprint(c.rw, cmd)
	if err != nil {
		return "", fmt.Errorf("error writing command: %s", err)
	}
	c.settle()
	return c.ReadString()
}

// ReadString reads from the instrument until the read terminator without
// writing a command first. Since read-after-write is disabled, the Prologix
// controller must be told to address the instrument to talk.
func (c *Controller) ReadString() (string, error) {
	if !c.auto {
		readCmd := "++read eoi"
		_, err := fmt.Fprintf(c.rw, "%s%c", readCmd, c.usbTerm)
		if err != nil {
			return "", fmt.Errorf("error sending `%s` command: %s", readCmd, err)
		}
	}
	s, err := c.rdr.ReadString(c.eotChar)
	if err == io.EOF {
		return s, nil
	}
	return s, err
}

// ReadBinary reads exactly n bytes from the instrument. Since read-after-write
// is disabled, the Prologix controller must be told to address the instrument
// to talk before the data arrives.
func (c *Controller) ReadBinary(n int) ([]byte, error) {
	if !c.auto {
		readCmd := "++read eoi"
		_, err := fmt.Fprintf(c.rw, "%s%c", readCmd, c.usbTerm)
		if err != nil {
			return nil, fmt.Errorf("error sending `%s` command: %s", readCmd, err)
		}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.rdr, buf); err != nil {
		return nil, err
	}
	// eot_enable 1 appends the EOT character after EOI; consume it so it
	// does not corrupt the next read.
	if b, err := c.rdr.ReadByte(); err == nil && b != c.eotChar {
		c.rdr.UnreadByte()
	}
	return buf, nil
}

// QueryController sends the given command to the Prologix controller and
// returns its response as a string. To indicate this is a command for the
// Prologix controller, thereby not transmitting over GPIB, two plus signs
// `++` are prepended. Additionally, a new line is appended to act as the USB
// termination character.
func (c *Controller) QueryController(cmd string) (string, error) {
	err := c.CommandController(cmd)
	if err != nil {
		return "", err
	}
	s, err := c.rdr.ReadString(c.eotChar)
	if c.debug {
		log.Printf("read data: %q", s)
	}
	return s, err
}

// CommandController sends the given command to the Prologix controller. To
// indicate this is a command for the Prologix controller, thereby not
// transmitting to the instrument over GPIB, two plus signs `++` are
// prepended. Additionally, a new line is appended to act as the USB
// termination character.
func (c *Controller) CommandController(cmd string) error {
	cmd = fmt.Sprintf("++%s%c", strings.ToLower(strings.TrimSpace(cmd)), c.usbTerm)
	if c.debug {
		log.Printf("cmd %q (%2x)", cmd, cmd)
	}
	_, err := c.rw.Write([]byte(cmd))
	c.settle()
	return err
}

// InstrumentAddress returns the GPIB primary address, and the secondary
// address if one is set, of the instrument the controller is addressing.
func (c *Controller) InstrumentAddress() (pad, sad int, err error) {
	s, err := c.QueryController("addr")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		pad, err = strconv.Atoi(fields[0])
		return pad, 0, err
	case 2:
		pad, err = strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, err
		}
		sad, err = strconv.Atoi(fields[1])
		return pad, sad, err
	}
	return 0, 0, fmt.Errorf("unexpected addr reply %q", s)
}

// Version returns the version string of the Prologix controller.
func (c *Controller) Version() (string, error) {
	s, err := c.QueryController("ver")
	return strings.TrimSpace(s), err
}

// ReadAfterWrite reports whether the controller automatically addresses the
// instrument to talk after each write.
func (c *Controller) ReadAfterWrite() (bool, error) {
	s, err := c.QueryController("auto")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(s) == "1", nil
}

// ReadTimeout returns the controller's read timeout in milliseconds.
func (c *Controller) ReadTimeout() (int, error) {
	s, err := c.QueryController("read_tmo_ms")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// ServiceRequest reports whether the GPIB SRQ line is asserted.
func (c *Controller) ServiceRequest() (bool, error) {
	s, err := c.QueryController("srq")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(s) == "1", nil
}

// ClearDevice sends the Selected Device Clear (SDC) message to the currently
// addressed instrument.
func (c *Controller) ClearDevice() error {
	return c.CommandController("clr")
}

// FrontPanel enables or disables local control of the instrument's front
// panel. Disabling sends Local Lockout (llo); enabling returns the
// instrument to local mode (loc).
func (c *Controller) FrontPanel(local bool) error {
	if local {
		return c.CommandController("loc")
	}
	return c.CommandController("llo")
}

// GPIBTermination returns the GPIB terminator appended to instrument
// commands.
func (c *Controller) GPIBTermination() (GpibTerm, error) {
	s, err := c.QueryController("eos")
	if err != nil {
		return AppendNothing, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return AppendNothing, fmt.Errorf("unexpected eos reply %q", s)
	}
	term := GpibTerm(n)
	if _, ok := gpibTermDesc[term]; !ok {
		return AppendNothing, fmt.Errorf("unknown eos value %d", n)
	}
	return term, nil
}

func (c *Controller) settle() {
	if c.writeDelay > 0 {
		time.Sleep(c.writeDelay)
	}
}

// GpibTerm provides the type for the available GPIB terminators.
type GpibTerm int

// Available GPIB terminators for the Prologix Controller.
const (
	AppendCRLF GpibTerm = iota
	AppendCR
	AppendLF
	AppendNothing
)

var gpibTermDesc = map[GpibTerm]string{
	AppendCRLF:    `Append CR+LF (\r\n) to instrument commands`,
	AppendCR:      `Append CR (\r) to instrument commands`,
	AppendLF:      `Append LF (\n) to instrument commands`,
	AppendNothing: `Do not append anything to instrument commands`,
}

func (term GpibTerm) String() string {
	return gpibTermDesc[term]
}

// isPrimaryAddressValid checks that the primary GPIB address is between 0
// and 30, inclusive.
func isPrimaryAddressValid(addr int) bool {
	if addr < 0 || addr > 30 {
		return false
	}
	return true
}

// isSecondaryAddressValid checks that the secondary GPIB address is between
// 96 and 126, inclusive.
func isSecondaryAddressValid(addr int) bool {
	if addr < 96 || addr > 126 {
		return false
	}
	return true
}
