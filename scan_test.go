// Copyright (c) 2024–2026 The instr developers. All rights reserved.
// Project site: https://github.com/gotmc/instr
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package instr

import "testing"

func TestFormatList(t *testing.T) {
	tests := []struct {
		channels []int
		want     string
	}{
		{[]int{103, 105}, "(@103,105)"},
		{[]int{213}, "(@213)"},
		{[]int{105, 103}, "(@105,103)"}, // caller order is preserved
	}
	for _, tt := range tests {
		if got := FormatList(tt.channels); got != tt.want {
			t.Errorf("FormatList(%v) = %q, want %q", tt.channels, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	got, err := ParseList("(@101,102,213)\n")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{101, 102, 213}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("channel %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParseListEmpty(t *testing.T) {
	got, err := ParseList("(@)\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestParseListMalformed(t *testing.T) {
	for _, reply := range []string{"", "garbage", "(@1,x,3)"} {
		if _, err := ParseList(reply); err == nil {
			t.Errorf("ParseList(%q): expected error", reply)
		}
	}
}
