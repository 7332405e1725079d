// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package instr

import "fmt"

// InvalidReplyError is returned when an instrument reply cannot be mapped
// back to a symbolic value in the closed set a driver expects. It indicates a
// contract violation by the instrument (or a misaddressed bus) and is never
// masked with a default value.
type InvalidReplyError struct {
	Query string // the query that produced the reply
	Reply string // the offending reply, as received
}

func (e InvalidReplyError) Error() string {
	return fmt.Sprintf("invalid reply %q to query %q", e.Reply, e.Query)
}

// RangeError is returned when a caller-supplied value falls outside the
// instrument's valid set. The check happens before any command is written to
// the adapter.
type RangeError struct {
	Value int
	Min   int
	Max   int
}

func (e RangeError) Error() string {
	return fmt.Sprintf("value %d outside valid range %d to %d", e.Value, e.Min, e.Max)
}

// EncodingError is returned when a reading must be decoded using an output
// format that has no decoder. Raw bytes are never returned silently.
type EncodingError struct {
	Format string
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("encoding %s is not implemented", e.Format)
}
