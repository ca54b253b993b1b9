// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import (
	"fmt"
	"testing"
	"time"
)

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   []byte
		want int64
		bad  bool
	}{
		{[]byte("0000000\x00"), 0, false},
		{[]byte("0000123\x00"), 0123, false},
		{[]byte(" 0012\x00 "), 012, false},
		{[]byte("\x00\x00\x00\x00\x00\x00\x00\x00"), 0, false},
		{[]byte("0009999\x00"), 0, true}, // invalid octal digit
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%q", c.in), func(t *testing.T) {
			var p parser
			got := p.parseNumeric(c.in)
			if c.bad {
				if p.err == nil {
					t.Errorf("expected error, got none")
				}
				return
			}
			if p.err != nil {
				t.Fatalf("unexpected error: %v", p.err)
			}
			if got != c.want {
				t.Errorf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestFormatNumericRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 0777, 1<<33 - 1, -1, -(1 << 40)}
	for _, x := range cases {
		t.Run(fmt.Sprintf("%d", x), func(t *testing.T) {
			var f formatter
			b := make([]byte, 12)
			f.formatNumeric(b, x)
			if f.err != nil {
				t.Fatalf("format error: %v", f.err)
			}
			var p parser
			got := p.parseNumeric(b)
			if p.err != nil {
				t.Fatalf("parse error: %v", p.err)
			}
			if got != x {
				t.Errorf("round trip: got %d, want %d", got, x)
			}
		})
	}
}

func TestFitsInOctal(t *testing.T) {
	cases := []struct {
		n    int
		x    int64
		want bool
	}{
		{8, 0, true},
		{8, -1, false},
		{8, 1<<21 - 1, true},
		{8, 1 << 21, false},
		{12, 1<<33 - 1, true},
	}
	for _, c := range cases {
		if got := fitsInOctal(c.n, c.x); got != c.want {
			t.Errorf("fitsInOctal(%d, %d) = %v, want %v", c.n, c.x, got, c.want)
		}
	}
}

func TestParsePAXTime(t *testing.T) {
	cases := []struct {
		in   string
		secs int64
		nsec int
		bad  bool
	}{
		{"1350244992.023960108", 1350244992, 23960108, false},
		{"1350244992", 1350244992, 0, false},
		{"-1.000000001", -2, 999999999, false},
		{"0.5", 0, 500000000, false},
		{"not-a-time", 0, 0, true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := parsePAXTime(c.in)
			if c.bad {
				if err == nil {
					t.Errorf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := time.Unix(c.secs, int64(c.nsec))
			if !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestFormatPAXTimeRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Unix(1350244992, 23960108),
		time.Unix(0, 0),
		time.Unix(-2, 1),
	}
	for _, ts := range cases {
		s := formatPAXTime(ts)
		got, err := parsePAXTime(s)
		if err != nil {
			t.Fatalf("parsePAXTime(%q): %v", s, err)
		}
		if !got.Equal(ts) {
			t.Errorf("round trip %v: got %v", ts, got)
		}
	}
}

func TestParsePAXRecord(t *testing.T) {
	cases := []struct {
		in       string
		wantKey  string
		wantVal  string
		wantRest string
		bad      bool
	}{
		{"6 k=v\n", "k", "v", "", false},
		{"12 path=a/b\n", "path", "a/b", "", false},
		{"6 k=v\n6 k=v\n", "k", "v", "6 k=v\n", false},
		{"malformed", "", "", "", true},
		{"999 k=v\n", "", "", "", true}, // size exceeds input
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			k, v, rest, err := parsePAXRecord(c.in)
			if c.bad {
				if err == nil {
					t.Errorf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if k != c.wantKey || v != c.wantVal || rest != c.wantRest {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)", k, v, rest, c.wantKey, c.wantVal, c.wantRest)
			}
		})
	}
}

func TestFormatPAXRecordSelfConsistent(t *testing.T) {
	rec, err := formatPAXRecord("path", "averylongvaluethatmightshiftthedigitcountofthesizeprefix")
	if err != nil {
		t.Fatalf("formatPAXRecord: %v", err)
	}
	k, v, rest, err := parsePAXRecord(rec)
	if err != nil {
		t.Fatalf("parsePAXRecord(%q): %v", rec, err)
	}
	if k != "path" || v != "averylongvaluethatmightshiftthedigitcountofthesizeprefix" || rest != "" {
		t.Errorf("round trip mismatch: k=%q v=%q rest=%q", k, v, rest)
	}
}

func TestValidPAXRecord(t *testing.T) {
	cases := []struct {
		k, v string
		ok   bool
	}{
		{"path", "foo", true},
		{"path", "foo\x00bar", false},
		{"", "v", false},
		{"k=ey", "v", false},
		{"GOLANG.pkg.version", "v\x00", true},
	}
	for _, c := range cases {
		if got := validPAXRecord(c.k, c.v); got != c.ok {
			t.Errorf("validPAXRecord(%q, %q) = %v, want %v", c.k, c.v, got, c.ok)
		}
	}
}
