// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Writer provides sequential writing of a tar archive.
// Write.WriteHeader begins a new file with the provided Header,
// and then Writer can be treated as an io.Writer to supply that file's data.
type Writer struct {
	w    io.Writer
	pad  int64      // Amount of padding to write after current file entry
	curr fileWriter // Writer for current file entry
	hdr  Header     // Shallow copy of Header that is safe for mutation
	blk  block      // Buffer to use as temporary local storage

	// err is a persistent error.
	// It is only the responsibility of every exported method of Writer to
	// ensure that this error is sticky.
	err error
}

// NewWriter creates a new Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, curr: &regFileWriter{w, 0}}
}

type fileWriter interface {
	io.Writer

	logicalRemaining() int64
	physicalRemaining() int64
}

// Flush finishes writing the current file's block padding.
// The current file must be fully written before Flush can be called.
//
// This is unnecessary as the next call to WriteHeader or Close
// will implicitly flush out the file's padding.
func (tw *Writer) Flush() error {
	if tw.err != nil {
		return tw.err
	}
	if nb := tw.curr.logicalRemaining(); nb > 0 {
		return fmt.Errorf("tar: missed writing %d bytes", nb)
	}
	if _, tw.err = tw.w.Write(zeroBlock[:tw.pad]); tw.err != nil {
		return tw.err
	}
	tw.pad = 0
	return nil
}

// WriteHeader writes hdr and prepares to accept the file's contents.
// The Header.Size determines how many bytes can be written for the next
// file. If the current file is not fully written, then this returns an
// error. This implicitly flushes any padding necessary before writing the
// header.
func (tw *Writer) WriteHeader(hdr *Header) error {
	if err := tw.Flush(); err != nil {
		return err
	}
	tw.hdr = *hdr // Shallow copy of Header

	// Avoid usage of the legacy TypeRegA flag, and automatically promote
	// it to the equivalent tar type used depending on the output format
	// in use.
	if tw.hdr.Typeflag == TypeRegA {
		if strings.HasSuffix(tw.hdr.Name, "/") {
			tw.hdr.Typeflag = TypeDir
		} else {
			tw.hdr.Typeflag = TypeReg
		}
	}

	// Round ModTime and ignore AccessTime and ChangeTime unless the
	// format is explicitly chosen. This is done to avoid accidental
	// use of the fine-grained time fields.
	if tw.hdr.Format == FormatUnknown {
		tw.hdr.ModTime = tw.hdr.ModTime.Round(time.Second)
		tw.hdr.AccessTime = time.Time{}
		tw.hdr.ChangeTime = time.Time{}
	}

	allowedFormats, paxHdrs, err := tw.hdr.allowedFormats()
	switch {
	case allowedFormats.has(FormatUSTAR):
		tw.err = tw.writeUSTARHeader(&tw.hdr)
		return tw.err
	case allowedFormats.has(FormatPAX):
		tw.err = tw.writePAXHeader(&tw.hdr, paxHdrs)
		return tw.err
	case allowedFormats.has(FormatGNU):
		tw.err = tw.writeGNUHeader(&tw.hdr)
		return tw.err
	default:
		if err == nil {
			err = ErrHeader // Default error if unspecified
		}
		tw.err = err
		return tw.err
	}
}

// allowedFormats determines which formats can be used for the given
// Header. If the Header uses fields that cannot be encoded in a specific
// format, then those fields are returned as the second output, as a set of
// PAX header records.
//
// As a by-product of checking the fields, this method also normalizes the
// values of the fields.
func (h *Header) allowedFormats() (format Format, paxHdrs map[string]string, err error) {
	format = FormatUSTAR | FormatPAX | FormatGNU
	paxHdrs = make(map[string]string)

	var whyNoUSTAR, whyNoPAX, whyNoGNU string
	var preferPAX bool // Prefer PAX over USTAR
	verifyString := func(s string, size int, name, paxKey string) {
		// NUL-terminator is optional for path and linkpath.
		// Technically, it is required for uname and gname,
		// but neither GNU nor BSD tar checks for it.
		tooLong := len(s) > size
		allowLongGNU := paxKey == paxPath || paxKey == paxLinkpath
		if hasNUL(s) || (tooLong && !allowLongGNU) {
			whyNoGNU = fmt.Sprintf("GNU cannot encode %s=%q", name, s)
			format.mustNotBe(FormatGNU)
		}
		if !isASCII(s) || tooLong {
			canSplitUSTAR := paxKey == paxPath
			if _, _, ok := splitUSTARPath(s); !canSplitUSTAR || !ok {
				whyNoUSTAR = fmt.Sprintf("USTAR cannot encode %s=%q", name, s)
				format.mustNotBe(FormatUSTAR)
			}
			if paxKey == paxNone {
				whyNoPAX = fmt.Sprintf("PAX cannot encode %s=%q", name, s)
				format.mustNotBe(FormatPAX)
			} else {
				paxHdrs[paxKey] = s
			}
		}
		if v, ok := h.PAXRecords[paxKey]; ok && v == s {
			paxHdrs[paxKey] = v
		}
	}
	verifyNumeric := func(n int64, size int, name, paxKey string) {
		if !fitsInBase256(size, n) {
			whyNoGNU = fmt.Sprintf("GNU cannot encode %s=%d", name, n)
			format.mustNotBe(FormatGNU)
		}
		if !fitsInOctal(size, n) {
			whyNoUSTAR = fmt.Sprintf("USTAR cannot encode %s=%d", name, n)
			format.mustNotBe(FormatUSTAR)
			if paxKey == paxNone {
				whyNoPAX = fmt.Sprintf("PAX cannot encode %s=%d", name, n)
				format.mustNotBe(FormatPAX)
			} else {
				paxHdrs[paxKey] = strconv.FormatInt(n, 10)
			}
		}
		if v, ok := h.PAXRecords[paxKey]; ok && v == strconv.FormatInt(n, 10) {
			paxHdrs[paxKey] = v
		}
	}
	verifyTime := func(ts time.Time, size int, name, paxKey string) {
		if ts.IsZero() {
			return // Always okay
		}
		if !fitsInBase256(size, ts.Unix()) {
			whyNoGNU = fmt.Sprintf("GNU cannot encode %s=%v", name, ts)
			format.mustNotBe(FormatGNU)
		}
		isMtime := paxKey == paxMtime
		fitsOctal := fitsInOctal(size, ts.Unix())
		if (isMtime && !fitsOctal) || !isMtime {
			whyNoUSTAR = fmt.Sprintf("USTAR cannot encode %s=%v", name, ts)
			format.mustNotBe(FormatUSTAR)
		}
		needsNano := ts.Nanosecond() != 0
		if !isMtime || !fitsOctal || needsNano {
			preferPAX = true // USTAR may truncate sub-second measurements
			if paxKey == paxNone {
				whyNoPAX = fmt.Sprintf("PAX cannot encode %s=%v", name, ts)
				format.mustNotBe(FormatPAX)
			} else {
				paxHdrs[paxKey] = formatPAXTime(ts)
			}
		}
		if v, ok := h.PAXRecords[paxKey]; ok && v == formatPAXTime(ts) {
			paxHdrs[paxKey] = v
		}
	}

	verifyString(h.Name, nameSize, "Name", paxPath)
	verifyString(h.Linkname, nameSize, "Linkname", paxLinkpath)
	verifyString(h.Uname, 32, "Uname", paxUname)
	verifyString(h.Gname, 32, "Gname", paxGname)
	verifyNumeric(h.Mode, 8, "Mode", paxNone)
	verifyNumeric(int64(h.Uid), 8, "Uid", paxUid)
	verifyNumeric(int64(h.Gid), 8, "Gid", paxGid)
	verifyNumeric(h.Size, 12, "Size", paxSize)
	verifyNumeric(h.Devmajor, 8, "Devmajor", paxNone)
	verifyNumeric(h.Devminor, 8, "Devminor", paxNone)
	verifyTime(h.ModTime, 12, "ModTime", paxMtime)
	verifyTime(h.AccessTime, 12, "AccessTime", paxAtime)
	verifyTime(h.ChangeTime, 12, "ChangeTime", paxCtime)

	// Check basic fields.
	var performCheck = func() {
		for k, v := range h.Xattrs {
			paxHdrs[paxSchilyXattr+k] = v
		}
		for k, v := range h.PAXRecords {
			if _, exists := paxHdrs[k]; !exists && !basicKeys[k] && !strings.HasPrefix(k, paxGNUSparse) {
				paxHdrs[k] = v
			}
		}
	}
	performCheck()

	if len(paxHdrs) > 0 {
		if whyNoPAX == "" {
			preferPAX = true
		}
	}
	if preferPAX {
		format.mayOnlyBe(FormatPAX)
	}

	// Ensure we only select the format if the type flag is compatible.
	switch h.Typeflag {
	case TypeGNUSparse:
		format.mayOnlyBe(FormatGNU)
	case TypeXHeader:
		return FormatUnknown, nil, headerError{"cannot manually encode TypeXHeader entries"}
	case TypeXGlobalHeader:
		format.mayOnlyBe(FormatPAX)
	case TypeGNULongName, TypeGNULongLink:
		return FormatUnknown, nil, headerError{"cannot manually encode TypeGNULongName or TypeGNULongLink entries"}
	}
	switch h.Typeflag {
	case TypeReg, TypeChar, TypeBlock, TypeFifo, TypeGNUSparse:
		if strings.HasSuffix(h.Name, "/") {
			return FormatUnknown, nil, headerError{"filename may not have trailing slash"}
		}
	}

	// A caller-specified Format narrows the choice; asking for PAX also
	// permits USTAR when no PAX-only feature is needed.
	if want := h.Format; want != FormatUnknown {
		if want.has(FormatPAX) && !preferPAX {
			want.mayBe(FormatUSTAR)
		}
		format.mayOnlyBe(want)
	}
	if format == FormatUnknown {
		err := headerError{}
		for _, s := range []string{whyNoUSTAR, whyNoPAX, whyNoGNU} {
			if s != "" {
				err = append(err, s)
			}
		}
		return FormatUnknown, paxHdrs, err
	}
	return format, paxHdrs, nil
}

// splitUSTARPath splits a path according to USTAR prefix and suffix rules.
// If the path is not splittable, then it will return ("", "", false). A
// path of at most nameSize bytes already fits the name field and is never
// split.
func splitUSTARPath(name string) (prefix, suffix string, ok bool) {
	length := len(name)
	if length <= nameSize || !isASCII(name) {
		return "", "", false
	} else if length > prefixSize+1 {
		length = prefixSize + 1
	} else if name[length-1] == '/' {
		length--
	}

	i := strings.LastIndex(name[:length], "/")
	nlen := len(name) - i - 1 // nlen is length of suffix
	plen := i                 // plen is length of prefix
	if i <= 0 || nlen > nameSize || nlen == 0 || plen > prefixSize {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

// writeUSTARHeader writes out the USTAR format for hdr.
func (tw *Writer) writeUSTARHeader(hdr *Header) error {
	// Check if we can use USTAR prefix/suffix splitting.
	var namePrefix string
	if prefix, suffix, ok := splitUSTARPath(hdr.Name); ok {
		namePrefix, hdr.Name = prefix, suffix
	}

	// Pack the main header.
	var f formatter
	tw.templateV7Plus(hdr, f.formatString, f.formatNumeric)
	f.formatString(tw.blk.toUSTAR().prefix(), namePrefix)
	tw.blk.setFormat(FormatUSTAR)
	if f.err != nil {
		return f.err // Should never happen since header is validated
	}
	return tw.writeRawFile(hdr)
}

// writePAXHeader writes out the extended PAX header and record for hdr. If
// hdr.Typeflag is TypeXGlobalHeader, the extended header entry is itself
// the whole entry (named "GlobalHead.0.0") and no secondary main header
// follows, mirroring how Reader.Next returns a TypeXGlobalHeader entry
// immediately rather than folding it into the next real header.
func (tw *Writer) writePAXHeader(hdr *Header, paxHdrs map[string]string) error {
	isGlobal := hdr.Typeflag == TypeXGlobalHeader
	realName, realSize := hdr.Name, hdr.Size

	// Writing sparse archives (emitting a GNU/PAX sparse map and compact
	// payload for a Header carrying holes) is out of scope: this path
	// always writes every entry dense, even one a Reader produced from a
	// sparse source. Only reading sparse archives is supported.

	// Sort keys for deterministic output across runs and across
	// different Go map iteration orders.
	keys := make([]string, 0, len(paxHdrs))
	for k := range paxHdrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, k := range keys {
		rec, err := formatPAXRecord(k, paxHdrs[k])
		if err != nil {
			return err
		}
		buf.WriteString(rec)
	}

	dataHdr := new(Header)
	dataHdr.Size = int64(buf.Len())
	dataHdr.Format = FormatPAX
	if isGlobal {
		dataHdr.Typeflag = TypeXGlobalHeader
		dataHdr.Name = "GlobalHead.0.0"
	} else {
		// Name the extended header the way GNU and BSD tar do, by
		// inserting a synthetic "PaxHeaders.0" directory immediately
		// before the real entry's basename (not simply prefixing the
		// full name), so that an entry nested under a directory still
		// gets its meta-header alongside it rather than collected at
		// the archive root.
		dir, file := path.Split(realName)
		dataHdr.Typeflag = TypeXHeader
		dataHdr.Name = path.Join(dir, "PaxHeaders.0", file)
	}

	if err := tw.writeRawHeader(dataHdr, FormatPAX); err != nil {
		return err
	}
	if _, err := io.WriteString(tw, buf.String()); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if isGlobal {
		// The global header entry is itself the entry; no main header
		// follows it, matching Reader.Next's TypeXGlobalHeader handling.
		return nil
	}

	// Pack the main header.
	var f formatter
	tw.templateV7Plus(hdr, f.formatString, f.formatNumeric)
	tw.blk.setFormat(FormatPAX)
	if f.err != nil {
		return f.err // Should never happen since header is validated
	}
	hdr.Size = realSize
	return tw.writeRawFile(hdr)
}

// writeGNUHeader writes out the GNU format for hdr.
func (tw *Writer) writeGNUHeader(hdr *Header) error {
	// Use long-link files if Name or Linkname exceeds the field size.
	const longName = "././@LongLink"
	if len(hdr.Name) > nameSize {
		data := hdr.Name + "\x00"
		if err := tw.writeRawGNULongName(TypeGNULongName, longName, data); err != nil {
			return err
		}
	}
	if len(hdr.Linkname) > nameSize {
		data := hdr.Linkname + "\x00"
		if err := tw.writeRawGNULongName(TypeGNULongLink, longName, data); err != nil {
			return err
		}
	}

	// Pack the main header.
	var f formatter
	tw.templateV7Plus(hdr, f.formatString, f.formatNumeric)
	gnu := tw.blk.toGNU()
	if !hdr.AccessTime.IsZero() {
		f.formatNumeric(gnu.accessTime(), hdr.AccessTime.Unix())
	}
	if !hdr.ChangeTime.IsZero() {
		f.formatNumeric(gnu.changeTime(), hdr.ChangeTime.Unix())
	}
	tw.blk.setFormat(FormatGNU)
	if f.err != nil {
		return f.err // Should never happen since header is validated
	}
	return tw.writeRawFile(hdr)
}

// writeRawGNULongName writes out a synthetic GNU long name or long link
// meta-file preceding the real header.
func (tw *Writer) writeRawGNULongName(typeflag byte, name, data string) error {
	dataHdr := new(Header)
	dataHdr.Typeflag = typeflag
	dataHdr.Name = name
	dataHdr.Size = int64(len(data))
	dataHdr.Format = FormatGNU
	if err := tw.writeRawHeader(dataHdr, FormatGNU); err != nil {
		return err
	}
	if _, err := io.WriteString(tw, data); err != nil {
		return err
	}
	return tw.Flush()
}

// writeRawHeader builds a block from scratch for a synthetic meta-file
// entry (a PAX extended header or a GNU long name/link record) and writes
// it, leaving the Writer ready to accept that meta-file's body.
func (tw *Writer) writeRawHeader(hdr *Header, format Format) error {
	var f formatter
	tw.templateV7Plus(hdr, f.formatString, f.formatNumeric)
	tw.blk.setFormat(format)
	if f.err != nil {
		return f.err
	}
	return tw.writeRawFile(hdr)
}

// templateV7Plus fills out the common V7 fields for a USTAR, PAX, or GNU
// header, using the two supplied formatting functions for strings and
// numbers respectively. It is the caller's responsibility to set the magic
// and version fields by invoking block.setFormat.
func (tw *Writer) templateV7Plus(hdr *Header, fmtStr func([]byte, string), fmtNum func([]byte, int64)) {
	tw.blk.reset()

	modTime := hdr.ModTime
	if modTime.IsZero() {
		modTime = time.Unix(0, 0)
	}

	v7 := tw.blk.toV7()
	v7.typeFlag()[0] = hdr.Typeflag
	fmtStr(v7.name(), hdr.Name)
	fmtStr(v7.linkName(), hdr.Linkname)
	fmtNum(v7.mode(), hdr.Mode)
	fmtNum(v7.uid(), int64(hdr.Uid))
	fmtNum(v7.gid(), int64(hdr.Gid))
	fmtNum(v7.size(), hdr.Size)
	fmtNum(v7.modTime(), modTime.Unix())

	ustar := tw.blk.toUSTAR()
	fmtStr(ustar.userName(), hdr.Uname)
	fmtStr(ustar.groupName(), hdr.Gname)
	fmtNum(ustar.devMajor(), hdr.Devmajor)
	fmtNum(ustar.devMinor(), hdr.Devminor)
}

// writeRawFile writes the header block in tw.blk to the underlying writer,
// resetting the Writer's state to track a subsequent call to Write for
// hdr's logical data. The padding after that data is only recorded here;
// Flush writes it.
func (tw *Writer) writeRawFile(hdr *Header) error {
	tw.pad = blockPadding(hdr.Size)
	tw.curr = &regFileWriter{tw.w, hdr.Size}

	if _, err := tw.w.Write(tw.blk[:]); err != nil {
		return err
	}
	return nil
}

// Write writes to the current file in the tar archive. Write returns the
// error ErrWriteTooLong if more than Header.Size bytes are written after
// WriteHeader.
func (tw *Writer) Write(b []byte) (int, error) {
	if tw.err != nil {
		return 0, tw.err
	}
	n, err := tw.curr.Write(b)
	if err != nil && err != ErrWriteTooLong {
		tw.err = err
	}
	return n, err
}

// Close closes the tar archive by flushing the padding, and writing the
// footer. If the current file (from a prior call to WriteHeader) is not
// fully written, then this returns an error.
func (tw *Writer) Close() error {
	if tw.err == ErrWriteAfterClose {
		return nil
	}
	if tw.err != nil {
		return tw.err
	}

	// Trailer: two zero blocks.
	err := tw.Flush()
	for i := 0; i < 2 && err == nil; i++ {
		_, err = tw.w.Write(zeroBlock[:])
	}

	// Ensure all future actions are invalid.
	tw.err = ErrWriteAfterClose
	return err // Report IO errors
}

// regFileWriter is a fileWriter for writing data to a regular file entry.
type regFileWriter struct {
	w  io.Writer // Underlying Writer
	nb int64     // Number of remaining bytes to write
}

func (fw *regFileWriter) Write(b []byte) (n int, err error) {
	overwrite := int64(len(b)) > fw.nb
	if overwrite {
		b = b[:fw.nb]
	}
	if len(b) > 0 {
		n, err = fw.w.Write(b)
		fw.nb -= int64(n)
	}
	switch {
	case err != nil:
		return n, err
	case overwrite:
		return n, ErrWriteTooLong
	default:
		return n, nil
	}
}

func (fw *regFileWriter) logicalRemaining() int64  { return fw.nb }
func (fw *regFileWriter) physicalRemaining() int64 { return fw.nb }

var _ fs.FileInfo = headerFileInfo{} // Sanity check that headerFileInfo satisfies fs.FileInfo
