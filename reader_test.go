// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import (
	"bytes"
	"io"
	"testing"
)

func TestReaderTruncatedArchive(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	if err := tw.WriteHeader(&Header{Name: "f", Typeflag: TypeReg, Size: 4}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write([]byte("data")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Deliberately omit Close(), then truncate mid-payload to simulate a
	// corrupted stream: the header block is intact but only 2 of the 4
	// promised data bytes are present.
	truncated := buf.Bytes()[:blockSize+2]

	tr := NewReader(bytes.NewReader(truncated))
	if _, err := tr.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := io.ReadAll(tr); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadAll() = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReaderGNUSparseMap1x0(t *testing.T) {
	// A 1.0 sparse map is read from the file's own data stream: a decimal
	// entry count, then (offset, length) pairs, each newline terminated,
	// padded out to a block boundary before the real payload begins.
	sparseMap := "1\n4\n4\n"
	// Pad to one block.
	sparseMap += string(zeroBlock[:blockSize-len(sparseMap)])
	payload := "data"

	body := sparseMap + payload
	spd, err := readGNUSparseMap1x0(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("readGNUSparseMap1x0: %v", err)
	}
	want := sparseSpans{{Offset: 4, Length: 4}}
	if len(spd) != 1 || spd[0] != want[0] {
		t.Errorf("got %+v, want %+v", spd, want)
	}
}

func TestReaderGNUSparseMap0x1(t *testing.T) {
	paxHdrs := map[string]string{
		paxGNUSparseNumBlocks: "2",
		paxGNUSparseMap:       "0,2,10,3",
	}
	spd, err := readGNUSparseMap0x1(paxHdrs)
	if err != nil {
		t.Fatalf("readGNUSparseMap0x1: %v", err)
	}
	want := sparseSpans{{Offset: 0, Length: 2}, {Offset: 10, Length: 3}}
	if len(spd) != len(want) || spd[0] != want[0] || spd[1] != want[1] {
		t.Errorf("got %+v, want %+v", spd, want)
	}
}

func TestSparseFileReaderZeroFillsHoles(t *testing.T) {
	// Logical layout: [2 bytes hole][5 bytes data "AAAAA"][remaining hole to 12].
	spd := sparseSpans{{Offset: 2, Length: 5}}
	sph := append(sparseSpans{}, spd...).inverted(12)

	physical := &regFileReader{r: bytes.NewReader([]byte("AAAAA")), nb: 5}
	sr := &sparseFileReader{fr: physical, sp: sph}

	got, err := io.ReadAll(sr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := "\x00\x00AAAAA\x00\x00\x00\x00\x00"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParsePAXGlobalHeader(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)
	dataHdr := &Header{
		Typeflag: TypeXGlobalHeader,
		Name:     "GlobalHead.0.0",
		Format:   FormatPAX,
	}
	rec, err := formatPAXRecord("comment", "hello")
	if err != nil {
		t.Fatalf("formatPAXRecord: %v", err)
	}
	dataHdr.Size = int64(len(rec))
	if err := tw.writeRawHeader(dataHdr, FormatPAX); err != nil {
		t.Fatalf("writeRawHeader: %v", err)
	}
	if _, err := io.WriteString(tw, rec); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tr := NewReader(bytes.NewReader(buf.Bytes()))
	hdr, err := tr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hdr.Typeflag != TypeXGlobalHeader {
		t.Errorf("Typeflag = %v, want TypeXGlobalHeader", hdr.Typeflag)
	}
	if hdr.PAXRecords["comment"] != "hello" {
		t.Errorf("PAXRecords[comment] = %q, want %q", hdr.PAXRecords["comment"], "hello")
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Next() after global header = %v, want io.EOF", err)
	}
}
