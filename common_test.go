// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import (
	"fmt"
	"reflect"
	"testing"
)

func TestSparseSpansValid(t *testing.T) {
	cases := []struct {
		sp   sparseSpans
		size int64
		ok   bool
	}{
		{nil, 0, true},
		{sparseSpans{{0, 2}, {5, 3}}, 8, true},
		{sparseSpans{{0, 2}, {1, 3}}, 8, false}, // overlap
		{sparseSpans{{-1, 2}}, 8, false},        // negative offset
		{sparseSpans{{0, 20}}, 8, false},        // extends beyond size
		{sparseSpans{{0, 2}}, -1, false},        // negative size
	}
	for i, c := range cases {
		t.Run(fmt.Sprintf("case%d", i), func(t *testing.T) {
			if got := c.sp.valid(c.size); got != c.ok {
				t.Errorf("got %v, want %v", got, c.ok)
			}
		})
	}
}

func TestSparseSpansInverted(t *testing.T) {
	// Example lifted from the sparseSpans doc comment.
	spd := sparseSpans{
		{Offset: 2, Length: 5},
		{Offset: 18, Length: 3},
	}
	want := sparseSpans{
		{Offset: 0, Length: 2},
		{Offset: 7, Length: 11},
		{Offset: 21, Length: 4},
	}
	got := append(sparseSpans{}, spd...).inverted(25)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Round trip: inverting the holes returns the original data fragments
	// plus the always-present final span, here empty and ending at 25.
	wantBack := sparseSpans{
		{Offset: 2, Length: 5},
		{Offset: 18, Length: 3},
		{Offset: 25, Length: 0},
	}
	back := append(sparseSpans{}, want...).inverted(25)
	if !reflect.DeepEqual(back, wantBack) {
		t.Errorf("round trip got %+v, want %+v", back, wantBack)
	}
}

func TestHeaderFileInfo(t *testing.T) {
	h := &Header{
		Name:     "dir/",
		Typeflag: TypeDir,
		Mode:     0755,
	}
	fi := h.FileInfo()
	if !fi.IsDir() {
		t.Errorf("expected IsDir() true for TypeDir")
	}
	if got, want := fi.Name(), "dir"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
	if !fi.Mode().IsDir() {
		t.Errorf("Mode() missing ModeDir bit")
	}

	h2 := &Header{Name: "file.txt", Typeflag: TypeReg, Mode: 0644, Size: 10}
	fi2 := h2.FileInfo()
	if fi2.IsDir() {
		t.Errorf("expected IsDir() false for TypeReg")
	}
	if fi2.Size() != 10 {
		t.Errorf("Size() = %d, want 10", fi2.Size())
	}
}

func TestHeaderError(t *testing.T) {
	err := headerError{"reason one", "", "reason two"}
	got := err.Error()
	want := "tar: cannot encode header: reason one; and reason two"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if headerError(nil).Error() != "tar: cannot encode header" {
		t.Errorf("empty headerError should use bare prefix")
	}
}
