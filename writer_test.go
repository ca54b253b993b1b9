// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)

	entries := []struct {
		hdr  *Header
		body string
	}{
		{&Header{Name: "dir/", Typeflag: TypeDir, Mode: 0755, ModTime: time.Unix(1000, 0)}, ""},
		{&Header{Name: "dir/file.txt", Typeflag: TypeReg, Mode: 0644, Size: 13, ModTime: time.Unix(1000, 0)}, "hello, world!"[:13]},
		{&Header{Name: "dir/link", Typeflag: TypeSymlink, Linkname: "file.txt", Mode: 0777, ModTime: time.Unix(1000, 0)}, ""},
	}

	for _, e := range entries {
		if err := tw.WriteHeader(e.hdr); err != nil {
			t.Fatalf("WriteHeader(%q): %v", e.hdr.Name, err)
		}
		if e.body != "" {
			if _, err := io.WriteString(tw, e.body); err != nil {
				t.Fatalf("Write(%q): %v", e.hdr.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tr := NewReader(&buf)
	for i, want := range entries {
		hdr, err := tr.Next()
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if hdr.Name != want.hdr.Name {
			t.Errorf("entry %d: Name = %q, want %q", i, hdr.Name, want.hdr.Name)
		}
		if hdr.Typeflag != want.hdr.Typeflag {
			t.Errorf("entry %d: Typeflag = %v, want %v", i, hdr.Typeflag, want.hdr.Typeflag)
		}
		if hdr.Linkname != want.hdr.Linkname {
			t.Errorf("entry %d: Linkname = %q, want %q", i, hdr.Linkname, want.hdr.Linkname)
		}
		got, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("ReadAll(%d): %v", i, err)
		}
		if string(got) != want.body {
			t.Errorf("entry %d: body = %q, want %q", i, got, want.body)
		}
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("final Next() = %v, want io.EOF", err)
	}
}

func TestWriterErrWriteTooLong(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	if err := tw.WriteHeader(&Header{Name: "f", Typeflag: TypeReg, Size: 4}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write([]byte("toolong")); err != ErrWriteTooLong {
		t.Errorf("Write() = %v, want ErrWriteTooLong", err)
	}
}

func TestWriterCloseWithUnwrittenBytes(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	if err := tw.WriteHeader(&Header{Name: "f", Typeflag: TypeReg, Size: 4}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write([]byte("ab")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := tw.Close(); err == nil {
		t.Errorf("Close() = nil, want an error for a short write")
	}
}

func TestWriterLongNameUsesPaxHeaders(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	longName := strings.Repeat("a", 150)
	if err := tw.WriteHeader(&Header{Name: longName, Typeflag: TypeReg, Size: 0}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(buf.String(), "PaxHeaders.0") {
		t.Errorf("expected a PaxHeaders.0 meta-entry in the archive for a long name")
	}

	tr := NewReader(bytes.NewReader(buf.Bytes()))
	hdr, err := tr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hdr.Name != longName {
		t.Errorf("Name = %q, want %q", hdr.Name, longName)
	}
}

func TestWriterXattrsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	hdr := &Header{
		Name:     "f",
		Typeflag: TypeReg,
		Xattrs:   map[string]string{"user.foo": "bar", "user.baz": "qux"},
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tr := NewReader(bytes.NewReader(buf.Bytes()))
	got, err := tr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	for k, v := range hdr.Xattrs {
		if got.Xattrs[k] != v {
			t.Errorf("Xattrs[%q] = %q, want %q", k, got.Xattrs[k], v)
		}
	}
}

func TestWriterPAXKeyOrderIsDeterministic(t *testing.T) {
	hdr := &Header{
		Name:     "f",
		Typeflag: TypeReg,
		Uname:    strings.Repeat("x", 40), // longer than the 32-byte field, so forces PAX
		Xattrs:   map[string]string{"user.d": "4", "user.a": "1", "user.c": "3", "user.b": "2"},
	}
	var buf1, buf2 bytes.Buffer
	for _, buf := range []*bytes.Buffer{&buf1, &buf2} {
		tw := NewWriter(buf)
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if err := tw.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if !bytes.Equal(buf1.Bytes(), buf2.Bytes()) {
		t.Errorf("two writes of the same header produced different output; PAX record order is not deterministic")
	}
}

func TestWriterGlobalHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	hdr := &Header{
		Typeflag:   TypeXGlobalHeader,
		PAXRecords: map[string]string{"comment": "hello"},
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(buf.String(), "GlobalHead.0.0") {
		t.Errorf("expected a GlobalHead.0.0 meta-entry in the archive for a global header")
	}

	tr := NewReader(bytes.NewReader(buf.Bytes()))
	got, err := tr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Typeflag != TypeXGlobalHeader {
		t.Errorf("Typeflag = %v, want TypeXGlobalHeader", got.Typeflag)
	}
	if got.Name != "GlobalHead.0.0" {
		t.Errorf("Name = %q, want %q", got.Name, "GlobalHead.0.0")
	}
	if got.PAXRecords["comment"] != "hello" {
		t.Errorf("PAXRecords[comment] = %q, want %q", got.PAXRecords["comment"], "hello")
	}
	// A global header is itself the entry: no secondary main header
	// should follow it, so the archive ends here (trailer only).
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Next() after global header = %v, want io.EOF", err)
	}
}

func TestSplitUSTARPath(t *testing.T) {
	cases := []struct {
		name           string
		prefix, suffix string
		ok             bool
	}{
		{"foo/bar", "", "", false}, // fits the name field, so not split
		{strings.Repeat("a", 101), "", "", false},
		{strings.Repeat("a", 60) + "/" + strings.Repeat("b", 99), strings.Repeat("a", 60), strings.Repeat("b", 99), true},
	}
	for _, c := range cases {
		prefix, suffix, ok := splitUSTARPath(c.name)
		if ok != c.ok {
			t.Errorf("splitUSTARPath(%.20q...) ok = %v, want %v", c.name, ok, c.ok)
			continue
		}
		if ok && (prefix != c.prefix || suffix != c.suffix) {
			t.Errorf("splitUSTARPath(%.20q...) = (%q, %q), want (%q, %q)", c.name, prefix, suffix, c.prefix, c.suffix)
		}
	}
}
