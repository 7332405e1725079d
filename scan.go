// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package instr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var scanListRegex = regexp.MustCompile(`@(.*)\)`)

// FormatList encodes channel numbers using the SCPI channel-list syntax, so
// that FormatList([]int{103, 105}) returns "(@103,105)". Order is preserved.
func FormatList(channels []int) string {
	s := make([]string, len(channels))
	for i, c := range channels {
		s[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("(@%s)", strings.Join(s, ","))
}

// ParseList extracts the channel numbers from a channel-list reply such as
// "(@101,102,213)", preserving the order the instrument reported. An empty
// list "(@)" yields a nil slice.
func ParseList(reply string) ([]int, error) {
	m := scanListRegex.FindStringSubmatch(reply)
	if m == nil {
		return nil, fmt.Errorf("no channel list found in reply %q", reply)
	}
	if m[1] == "" {
		return nil, nil
	}
	fields := strings.Split(m[1], ",")
	channels := make([]int, len(fields))
	for i, f := range fields {
		c, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("bad channel %q in reply %q", f, reply)
		}
		channels[i] = c
	}
	return channels, nil
}
