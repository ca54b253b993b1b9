// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import "testing"

func TestBlockPadding(t *testing.T) {
	cases := []struct {
		offset int64
		want   int64
	}{
		{0, 0},
		{1, 511},
		{511, 1},
		{512, 0},
		{513, 511},
	}
	for _, c := range cases {
		if got := blockPadding(c.offset); got != c.want {
			t.Errorf("blockPadding(%d) = %d, want %d", c.offset, got, c.want)
		}
	}
}

func TestSetFormatGetFormatRoundTrip(t *testing.T) {
	cases := []Format{FormatUSTAR | FormatPAX, FormatGNU, formatV7}
	for _, f := range cases {
		t.Run(f.String(), func(t *testing.T) {
			var b block
			b.setFormat(f)
			got := b.getFormat()
			if !got.has(f & (FormatUSTAR | FormatPAX | FormatGNU)) && f != formatV7 {
				t.Errorf("getFormat() = %v, want it to include %v", got, f)
			}
			if f == formatV7 && got != formatV7 {
				t.Errorf("getFormat() = %v, want formatV7", got)
			}
		})
	}
}

func TestGetFormatBadChecksum(t *testing.T) {
	var b block
	b.setFormat(FormatGNU)
	// Corrupt the checksum field directly.
	copy(b.toV7().chksum(), "XXXXXXX\x00")
	if got := b.getFormat(); got != FormatUnknown {
		t.Errorf("getFormat() = %v, want FormatUnknown", got)
	}
}

func TestComputeChecksumIgnoresChksumField(t *testing.T) {
	var b1, b2 block
	b1.setFormat(FormatUSTAR | FormatPAX)
	b2.setFormat(FormatUSTAR | FormatPAX)
	copy(b2.toV7().chksum(), "0000000\x00")
	u1, s1 := b1.computeChecksum()
	u2, s2 := b2.computeChecksum()
	if u1 != u2 || s1 != s2 {
		t.Errorf("checksum should be invariant to the chksum field's own contents")
	}
}

func TestFormatString(t *testing.T) {
	cases := []struct {
		f    Format
		want string
	}{
		{FormatUSTAR, "USTAR"},
		{FormatPAX, "PAX"},
		{FormatGNU, "GNU"},
		{formatV7, "V7"},
		{formatSTAR, "STAR"},
		{FormatUSTAR | FormatPAX, "(USTAR | PAX)"},
		{Format(0), "<unknown>"},
	}
	for _, c := range cases {
		if got := c.f.String(); got != c.want {
			t.Errorf("%v.String() = %q, want %q", c.f, got, c.want)
		}
	}
}

func TestSparseArrayLayout(t *testing.T) {
	var b block
	sa := b.toGNU().sparse()
	if got, want := sa.maxEntries(), 4; got != want {
		t.Errorf("maxEntries() = %d, want %d", got, want)
	}
	e := sa.entry(1)
	if len(e.offset()) != 12 || len(e.length()) != 12 {
		t.Errorf("sparseElem field widths wrong: offset=%d length=%d", len(e.offset()), len(e.length()))
	}
}
