// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tar implements streaming encoding and decoding of Unix tar
// archives, the historical V7 layout plus its USTAR, PAX, and GNU
// extensions, along with decoding of the headers produced by Schily's
// star. It favors a single forward-only pass over the stream: entries are
// read or written in the order they appear, with no seeking back to patch
// an earlier header once later data has been written.
package tar

import (
	"errors"
	"io/fs"
	"math"
	"path"
	"strings"
	"time"
)

// BUG: Use of the Uid and Gid fields in Header could overflow on 32-bit
// architectures. If a large value is encountered when decoding, the result
// stored in Header will be the truncated version.

// Errors returned by Reader and Writer that a caller may usefully inspect
// with errors.Is.
var (
	ErrHeader          = errors.New("tar: invalid tar header")
	ErrWriteTooLong    = errors.New("tar: write too long")
	ErrFieldTooLong    = errors.New("tar: header field too long")
	ErrWriteAfterClose = errors.New("tar: write after close")
)

// Internal sentinels for sparse-stream bookkeeping; never returned directly
// to callers, always wrapped or reported through ErrHeader-class paths.
var (
	errMissData         = errors.New("tar: sparse file references non-existent data")
	errUnrefData        = errors.New("tar: sparse file contains unreferenced data")
	errWriteHole        = errors.New("tar: write non-NUL byte in sparse hole")
	errSeekNotSupported = errors.New("tar: underlying reader does not support seeking")
)

// headerError accumulates one or more reasons a Header could not be
// encoded in any of the formats the writer tried, so the caller gets a
// single combined diagnostic instead of just the last attempt's failure.
type headerError []string

func (he headerError) Error() string {
	const prefix = "tar: cannot encode header"
	var reasons []string
	for _, reason := range he {
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}
	if len(reasons) == 0 {
		return prefix
	}
	return prefix + ": " + strings.Join(reasons, "; and ")
}

// Type flags for Header.Typeflag, grouped by what the tar formats
// themselves group them as.
const (
	// Regular file content.
	TypeReg = '0'

	// Deprecated: Use TypeReg instead.
	TypeRegA = '\x00'

	// Header-only entries: no data body follows even if Size is nonzero.
	TypeLink    = '1' // Hard link
	TypeSymlink = '2' // Symbolic link
	TypeChar    = '3' // Character device node
	TypeBlock   = '4' // Block device node
	TypeDir     = '5' // Directory
	TypeFifo    = '6' // FIFO node

	// Reserved by the V7 format; never produced or expected here.
	TypeCont = '7'

	// PAX extended-header meta-entries. The reader absorbs these
	// transparently and folds their records into the next real entry's
	// Header; a writer never has to construct one by hand.
	TypeXHeader       = 'x' // Applies to the single entry that follows
	TypeXGlobalHeader = 'g' // Applies to the rest of the archive

	// GNU extensions. TypeGNUSparse marks a file whose body carries a
	// GNU-encoded sparse map ahead of its data; TypeGNULongName and
	// TypeGNULongLink are meta-entries the reader folds into Name/Linkname
	// of the entry that follows, the same way it handles PAX meta-entries.
	TypeGNUSparse   = 'S'
	TypeGNULongName = 'L'
	TypeGNULongLink = 'K'
)

// PAX extended-header record keywords, split into the POSIX-standard set
// this package promotes to first-class Header fields, and the GNU sparse
// vendor extension, which the sparse-map decoder consumes directly.
const (
	paxNone     = "" // No PAX key is suitable for this field
	paxPath     = "path"
	paxLinkpath = "linkpath"
	paxSize     = "size"
	paxUid      = "uid"
	paxGid      = "gid"
	paxUname    = "uname"
	paxGname    = "gname"
	paxMtime    = "mtime"
	paxAtime    = "atime"
	paxCtime    = "ctime"   // Dropped from later PAX revisions, still accepted
	paxCharset  = "charset" // Carried through PAXRecords only
	paxComment  = "comment" // Carried through PAXRecords only

	paxSchilyXattr = "SCHILY.xattr."

	paxGNUSparse          = "GNU.sparse."
	paxGNUSparseNumBlocks = "GNU.sparse.numblocks"
	paxGNUSparseOffset    = "GNU.sparse.offset"
	paxGNUSparseNumBytes  = "GNU.sparse.numbytes"
	paxGNUSparseMap       = "GNU.sparse.map"
	paxGNUSparseName      = "GNU.sparse.name"
	paxGNUSparseMajor     = "GNU.sparse.major"
	paxGNUSparseMinor     = "GNU.sparse.minor"
	paxGNUSparseSize      = "GNU.sparse.size"
	paxGNUSparseRealSize  = "GNU.sparse.realsize"
)

// basicKeys holds the PAX keys that get unpacked straight into named
// Header fields rather than left sitting in PAXRecords. "charset" and
// "comment" are deliberately absent: they have no corresponding field, so
// callers reach them through PAXRecords instead.
var basicKeys = map[string]bool{
	paxPath: true, paxLinkpath: true, paxSize: true, paxUid: true, paxGid: true,
	paxUname: true, paxGname: true, paxMtime: true, paxAtime: true, paxCtime: true,
}

// headerOnlyTypes is the set of type flags whose entries never carry a
// data body, mirroring the grouping comment on the Type flag const block
// above as an actual lookup table rather than a second switch statement.
var headerOnlyTypes = map[byte]bool{
	TypeLink: true, TypeSymlink: true, TypeChar: true,
	TypeBlock: true, TypeDir: true, TypeFifo: true,
}

func isHeaderOnlyType(flag byte) bool { return headerOnlyTypes[flag] }

// A Header represents a single entry's metadata in a tar archive. Not
// every field is meaningful for every Typeflag, and not every field
// round-trips through every Format — see the Format table for the exact
// per-format limits.
//
// Reader.Next populates a fresh Header for each entry; Writer.WriteHeader
// never mutates the Header passed to it. Callers who want to reuse an
// entry read from one archive as the template for another should copy
// only the fields they care about into a new Header, rather than pass the
// original back to WriteHeader.
type Header struct {
	Typeflag byte // Entry type; zero value promotes to TypeReg or TypeDir from a trailing "/" in Name

	Name     string // Entry path
	Linkname string // Link target, valid for TypeLink and TypeSymlink

	Size int64 // Logical (post-sparse-expansion) size in bytes
	Mode int64 // Permission and mode bits

	Uid   int    // Owning user ID
	Gid   int    // Owning group ID
	Uname string // Owning user name
	Gname string // Owning group name

	// ModTime is always honored. AccessTime and ChangeTime require Format
	// PAX or GNU; sub-second resolution on any of the three requires PAX.
	// An unspecified Format rounds ModTime to the second and drops the
	// other two.
	ModTime    time.Time
	AccessTime time.Time
	ChangeTime time.Time

	Devmajor int64 // Major device number, valid for TypeChar and TypeBlock
	Devminor int64 // Minor device number, valid for TypeChar and TypeBlock

	// Xattrs holds extended attributes as PAX records under the
	// "SCHILY.xattr." namespace: h.Xattrs[k] and
	// h.PAXRecords["SCHILY.xattr."+k] name the same value, and Xattrs
	// wins if WriteHeader sees both set.
	//
	// Deprecated: use PAXRecords directly.
	Xattrs map[string]string

	// PAXRecords holds PAX extended-header records verbatim. User-defined
	// keys should take the form "VENDOR.keyword" (uppercase vendor
	// namespace, no "=" in the keyword), with non-empty UTF-8 values.
	// WriteHeader derives records from the named Header fields first and
	// lets those take precedence over anything duplicated here.
	PAXRecords map[string]string

	// Format is the wire format to use. Reader.Next sets it as a
	// best-effort guess (FormatUnknown if the reader had to tolerate a
	// non-compliant entry); WriteHeader, if left unset, picks the first
	// of USTAR, PAX, GNU able to represent the Header.
	Format Format
}

// sparseSpan is a Length-sized run starting at Offset within a file.
type sparseSpan struct{ Offset, Length int64 }

func (s sparseSpan) end() int64 { return s.Offset + s.Length }

// sparseSpans is an ordered, non-overlapping run list describing a sparse
// file's layout. The wire formats all encode the dense data fragments and
// leave everything else implicitly zero, so the decoders build a
// sparseSpans of data runs first; the Reader then inverts it into the
// hole runs it actually hands callers, since a zero-value hole list reads
// naturally as "no holes" (an all-data file), whereas a zero-value data
// list would misleadingly read as "no data at all".
//
// For example, a compact on-disk payload of "abcdefgh" (8 bytes) paired
// with the data-run map
//
//	sparseSpans{{Offset: 2, Length: 5}, {Offset: 18, Length: 3}}
//
// inverts, for a logical Header.Size of 25, into the hole-run map
//
//	sparseSpans{{Offset: 0, Length: 2}, {Offset: 7, Length: 11}, {Offset: 21, Length: 4}}
//
// which expands back out to "\x00\x00" + "abcde" + "\x00"*11 + "fgh" + "\x00"*4.
type sparseSpans []sparseSpan

// valid reports whether spans is a well-formed, in-order, non-overlapping
// partition of a file sized size. It makes no assumption about whether
// spans holds data runs or hole runs — the checks are the same as BSD
// tar's.
func (spans sparseSpans) valid(size int64) bool {
	if size < 0 {
		return false
	}
	var prev sparseSpan
	for _, cur := range spans {
		switch {
		case cur.Offset < 0 || cur.Length < 0:
			return false // Negative values are never okay
		case cur.Offset > math.MaxInt64-cur.Length:
			return false // Integer overflow with large length
		case cur.end() > size:
			return false // Region extends beyond the actual size
		case prev.end() > cur.Offset:
			return false // Regions cannot overlap and must be in order
		}
		prev = cur
	}
	return true
}

// aligned rounds every span's start up, and its end down, to the nearest
// block boundary, mutating spans in place and returning the result (which
// may be shorter: a span entirely inside one block disappears). The Go
// reader and BSD tar accept arbitrary byte offsets, but GNU tar only ever
// writes sparse maps aligned to blockSize, so a Writer targeting GNU
// output must align before encoding.
func (spans sparseSpans) aligned(size int64) sparseSpans {
	out := spans[:0]
	for _, s := range spans {
		pos, end := s.Offset, s.end()
		pos += blockPadding(+pos) // Round up to the nearest blockSize
		if end != size {
			end -= blockPadding(-end) // Round down to the nearest blockSize
		}
		if pos < end {
			out = append(out, sparseSpan{Offset: pos, Length: end - pos})
		}
	}
	return out
}

// inverted flips spans from data runs to hole runs or back, mutating and
// reusing its backing array. Adjacent runs are coalesced, only the final
// entry may be zero-length, and that final entry's end always lands on
// size. The caller must have already validated spans.
func (spans sparseSpans) inverted(size int64) sparseSpans {
	out := spans[:0]
	var prev sparseSpan
	for _, cur := range spans {
		if cur.Length == 0 {
			continue // Empty fragments carry no information
		}
		prev.Length = cur.Offset - prev.Offset
		if prev.Length > 0 {
			out = append(out, prev)
		}
		prev.Offset = cur.end()
	}
	prev.Length = size - prev.Offset // May be the map's only (empty) entry
	return append(out, prev)
}

// FileInfo adapts h to fs.FileInfo, for callers that want to treat a
// Header the way they'd treat a stat result (e.g. feeding it to
// text/tabwriter-style listing code). It is a read-only view: mutating
// the returned value's backing Header after the fact is undefined.
func (h *Header) FileInfo() fs.FileInfo {
	return headerFileInfo{h}
}

type headerFileInfo struct{ h *Header }

func (fi headerFileInfo) Size() int64        { return fi.h.Size }
func (fi headerFileInfo) IsDir() bool        { return fi.Mode().IsDir() }
func (fi headerFileInfo) ModTime() time.Time { return fi.h.ModTime }
func (fi headerFileInfo) Sys() any           { return fi.h }

func (fi headerFileInfo) Name() string {
	if fi.IsDir() {
		return path.Base(path.Clean(fi.h.Name))
	}
	return path.Base(fi.h.Name)
}

// modeTypeBits maps the Unix file-type nibble of Header.Mode to the
// fs.FileMode bits it implies, independent of Typeflag. A few type flags
// (TypeSymlink, TypeChar, TypeBlock, TypeDir, TypeFifo) carry the same
// information redundantly when Mode's type nibble was left unset by a
// writer that only populated Typeflag, so Mode is consulted first and
// Typeflag fills in anything Mode's nibble didn't cover.
var modeTypeBits = map[fs.FileMode]fs.FileMode{
	c_ISDIR:  fs.ModeDir,
	c_ISFIFO: fs.ModeNamedPipe,
	c_ISLNK:  fs.ModeSymlink,
	c_ISBLK:  fs.ModeDevice,
	c_ISCHR:  fs.ModeDevice | fs.ModeCharDevice,
	c_ISSOCK: fs.ModeSocket,
}

var typeflagModeBits = map[byte]fs.FileMode{
	TypeSymlink: fs.ModeSymlink,
	TypeChar:    fs.ModeDevice | fs.ModeCharDevice,
	TypeBlock:   fs.ModeDevice,
	TypeDir:     fs.ModeDir,
	TypeFifo:    fs.ModeNamedPipe,
}

func (fi headerFileInfo) Mode() (mode fs.FileMode) {
	mode = fs.FileMode(fi.h.Mode).Perm()

	if fi.h.Mode&c_ISUID != 0 {
		mode |= fs.ModeSetuid
	}
	if fi.h.Mode&c_ISGID != 0 {
		mode |= fs.ModeSetgid
	}
	if fi.h.Mode&c_ISVTX != 0 {
		mode |= fs.ModeSticky
	}

	mode |= modeTypeBits[fs.FileMode(fi.h.Mode)&^07777]
	mode |= typeflagModeBits[fi.h.Typeflag]
	return mode
}

func (fi headerFileInfo) String() string {
	return fs.FormatFileInfo(fi)
}

// Unix mode bits that the tar formats don't standardize but that
// Header.FileInfo's Mode() still understands, per the USTAR spec
// (http://pubs.opengroup.org/onlinepubs/9699919799/utilities/pax.html#tag_20_92_13_06)
// for the set*id/sticky bits, and common Unix convention for the rest.
const (
	c_ISUID = 04000 // Set uid
	c_ISGID = 02000 // Set gid
	c_ISVTX = 01000 // Save text (sticky bit)

	c_ISDIR  = 040000  // Directory
	c_ISFIFO = 010000  // FIFO
	c_ISREG  = 0100000 // Regular file
	c_ISLNK  = 0120000 // Symbolic link
	c_ISBLK  = 060000  // Block special file
	c_ISCHR  = 020000  // Character special file
	c_ISSOCK = 0140000 // Socket
)
