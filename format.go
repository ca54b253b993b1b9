// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tar

import "strings"

// Format represents the tar archive format.
//
// The original tar format was introduced in Unix V7.
// Since then, there have been multiple competing formats attempting to
// standardize or extend the V7 format to overcome its limitations.
// The most common formats are the USTAR, PAX, and GNU formats, each with
// their own advantages and limitations.
//
// The following table captures the capabilities of each format:
//
//	                  |  USTAR |       PAX |       GNU
//	------------------+--------+-----------+----------
//	Name              |   256B | unlimited | unlimited
//	Linkname          |   100B | unlimited | unlimited
//	Size              | uint33 | unlimited |    uint89
//	Mode              | uint21 |    uint21 |    uint57
//	Uid/Gid           | uint21 | unlimited |    uint57
//	Uname/Gname       |    32B | unlimited |       32B
//	ModTime           | uint33 | unlimited |     int89
//	AccessTime        |    n/a | unlimited |     int89
//	ChangeTime        |    n/a | unlimited |     int89
//	Devmajor/Devminor | uint21 |    uint21 |    uint57
//	------------------+--------+-----------+----------
//	string encoding   |  ASCII |     UTF-8 |    binary
//	sub-second times  |     no |       yes |        no
//	sparse files      |     no |       yes |       yes
//
// The table's upper portion shows the Header fields, where each format reports
// the maximum number of bits allowed for storing the corresponding field,
// or "unlimited" if there is no size limit.
//
// The table's lower portion shows specialized features of each format,
// such as supported string encodings, support for sub-second timestamps,
// or support for sparse files.
type Format int

// Constants to identify various tar formats.
const (
	// FormatUnknown indicates that the format is unknown.
	// It is the zero value; every other format is a single bit.
	FormatUnknown Format = (1 << iota) / 2

	// FormatUSTAR represents the USTAR header format defined in POSIX.1-1988.
	FormatUSTAR

	// FormatPAX represents the PAX header format defined in POSIX.1-2001.
	FormatPAX

	// FormatGNU represents the GNU header format.
	FormatGNU

	// formatV7 represents the V7 header format, which is a subset of USTAR.
	// It is always used as a fallback when there is no other better
	// alternative, so it is not exported.
	formatV7

	// formatSTAR represents the Schily STAR header format. It is read-only
	// and is never produced by this package's Writer.
	formatSTAR

	formatMax
)

func (f Format) has(f2 Format) bool { return f&f2 != 0 }
func (f *Format) mayOnlyBe(f2 Format) { *f &= f2 }
func (f *Format) mayBe(f2 Format) { *f |= f2 }
func (f *Format) mustNotBe(f2 Format) { *f &^= f2 }

// String returns the human-readable representation of the format.
func (f Format) String() string {
	switch f {
	case FormatUSTAR:
		return "USTAR"
	case FormatPAX:
		return "PAX"
	case FormatGNU:
		return "GNU"
	case formatV7:
		return "V7"
	case formatSTAR:
		return "STAR"
	default:
		var ss []string
		for f2 := Format(1); f2 < formatMax; f2 <<= 1 {
			if f.has(f2) {
				ss = append(ss, f2.String())
			}
		}
		switch len(ss) {
		case 0:
			return "<unknown>"
		case 1:
			return ss[0]
		default:
			return "(" + strings.Join(ss, " | ") + ")"
		}
	}
}

// Magic strings, as recognized at byte offset 257 of a block.
const (
	magicGNU, versionGNU     = "ustar ", " \x00"
	magicUSTAR, versionUSTAR = "ustar\x00", "00"
	trailerSTAR              = "tar\x00"
)

// Size constants from the USTAR spec. See format.go block layout below.
const (
	blockSize  = 512 // Size of each block in a tar stream
	nameSize   = 100 // Max length of the name field in USTAR format
	prefixSize = 155 // Max length of the prefix field in USTAR format

	// maxSpecialFileSize is the maximum size of a special file, such as the
	// PAX extended header, or a GNU long name/link body.
	maxSpecialFileSize = 1 << 20
)

// blockPadding computes the number of bytes needed to pad offset up to the
// nearest block edge where 0 <= n < blockSize.
func blockPadding(offset int64) (n int64) {
	return -offset & (blockSize - 1)
}

var zeroBlock block

type block [blockSize]byte

// Convert block to any number of formats.
func (b *block) toV7() *headerV7       { return (*headerV7)(b) }
func (b *block) toUSTAR() *headerUSTAR { return (*headerUSTAR)(b) }
func (b *block) toGNU() *headerGNU     { return (*headerGNU)(b) }
func (b *block) toSTAR() *headerSTAR   { return (*headerSTAR)(b) }
func (b *block) toSparse() sparseArray { return sparseArray(b[:]) }

// getFormat checks that the block is a valid tar header based on the
// checksum, and then attempts to guess the specific format based on
// magic values. If the checksum fails, then FormatUnknown is returned.
func (b *block) getFormat() Format {
	// Verify checksum.
	var p parser
	value := p.parseOctal(b.toV7().chksum())
	chksum1, chksum2 := b.computeChecksum()
	if p.err != nil || (value != chksum1 && value != chksum2) {
		return FormatUnknown
	}

	// Guess the magic values.
	magic := string(b.toUSTAR().magic())
	version := string(b.toUSTAR().version())
	trailer := string(b.toSTAR().trailer())
	switch {
	case magic == magicUSTAR && trailer == trailerSTAR:
		return formatSTAR
	case magic == magicUSTAR:
		return FormatUSTAR | FormatPAX
	case magic == magicGNU && version == versionGNU:
		return FormatGNU
	default:
		return formatV7
	}
}

// setFormat writes the magic values necessary to identify the block as the
// given format, clearing out any pre-existing magic values beforehand.
func (b *block) setFormat(format Format) {
	// Set the magic values.
	switch {
	case format.has(formatV7):
		// Do nothing.
	case format.has(FormatGNU):
		copy(b.toUSTAR().magic(), magicGNU)
		copy(b.toUSTAR().version(), versionGNU)
	case format.has(FormatUSTAR | FormatPAX):
		copy(b.toUSTAR().magic(), magicUSTAR)
		copy(b.toUSTAR().version(), versionUSTAR)
	default:
		panic("invalid format")
	}

	// Update checksum.
	// This field is special in that it is terminated by a NUL then space.
	var f formatter
	field := b.toV7().chksum()
	chksum, _ := b.computeChecksum() // Possible values are 256..128776
	f.formatOctal(field[:7], chksum) // Never fails since 256 <= y < 8^6
	field[7] = ' '
}

// computeChecksum computes the checksum for the header block.
// POSIX specifies a sum of the unsigned byte values, but the Sun tar used
// signed byte values. We compute and return both.
func (b *block) computeChecksum() (unsigned, signed int64) {
	for i, c := range b {
		if 148 <= i && i < 156 {
			c = ' ' // Treat the checksum field itself as all spaces.
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	return unsigned, signed
}

// reset clears the block with all zeros.
func (b *block) reset() {
	*b = block{}
}

type headerV7 [blockSize]byte

func (h *headerV7) name() []byte     { return h[000:][:100] }
func (h *headerV7) mode() []byte     { return h[100:][:8] }
func (h *headerV7) uid() []byte      { return h[108:][:8] }
func (h *headerV7) gid() []byte      { return h[116:][:8] }
func (h *headerV7) size() []byte     { return h[124:][:12] }
func (h *headerV7) modTime() []byte  { return h[136:][:12] }
func (h *headerV7) chksum() []byte   { return h[148:][:8] }
func (h *headerV7) typeFlag() []byte { return h[156:][:1] }
func (h *headerV7) linkName() []byte { return h[157:][:100] }

type headerUSTAR [blockSize]byte

func (h *headerUSTAR) magic() []byte    { return h[257:][:6] }
func (h *headerUSTAR) version() []byte  { return h[263:][:2] }
func (h *headerUSTAR) userName() []byte { return h[265:][:32] }
func (h *headerUSTAR) groupName() []byte { return h[297:][:32] }
func (h *headerUSTAR) devMajor() []byte { return h[329:][:8] }
func (h *headerUSTAR) devMinor() []byte { return h[337:][:8] }
func (h *headerUSTAR) prefix() []byte   { return h[345:][:155] }

type headerGNU [blockSize]byte

func (h *headerGNU) magic() []byte      { return h[257:][:6] }
func (h *headerGNU) version() []byte    { return h[263:][:2] }
func (h *headerGNU) userName() []byte   { return h[265:][:32] }
func (h *headerGNU) groupName() []byte  { return h[297:][:32] }
func (h *headerGNU) devMajor() []byte   { return h[329:][:8] }
func (h *headerGNU) devMinor() []byte   { return h[337:][:8] }
func (h *headerGNU) accessTime() []byte { return h[345:][:12] }
func (h *headerGNU) changeTime() []byte { return h[357:][:12] }
func (h *headerGNU) sparse() sparseArray { return sparseArray(h[386:][:48*2]) }
func (h *headerGNU) isExtended() []byte { return h[482:][:1] }
func (h *headerGNU) realSize() []byte   { return h[483:][:12] }

type headerSTAR [blockSize]byte

func (h *headerSTAR) magic() []byte      { return h[257:][:6] }
func (h *headerSTAR) version() []byte    { return h[263:][:2] }
func (h *headerSTAR) userName() []byte   { return h[265:][:32] }
func (h *headerSTAR) groupName() []byte  { return h[297:][:32] }
func (h *headerSTAR) devMajor() []byte   { return h[329:][:8] }
func (h *headerSTAR) devMinor() []byte   { return h[337:][:8] }
func (h *headerSTAR) prefix() []byte     { return h[345:][:131] }
func (h *headerSTAR) accessTime() []byte { return h[476:][:12] }
func (h *headerSTAR) changeTime() []byte { return h[488:][:12] }
func (h *headerSTAR) trailer() []byte    { return h[508:][:4] }

// sparseArray is a strided array of sparseElems, each one being 24 bytes.
// The max number of entries is either 4 (inside the header) or 21 (inside
// one of the extension headers).
type sparseArray []byte

func (s sparseArray) entry(i int) sparseElem { return sparseElem(s[i*24:]) }
func (s sparseArray) maxEntries() int        { return len(s) / 24 }
func (s sparseArray) isExtended() []byte     { return s[24*s.maxEntries():][:1] }

// sparseElem is a single sparse-file entry of (offset, length). It is always
// a slice of 24 bytes, with the first 12 being the offset and the next 12
// being the length.
type sparseElem []byte

func (s sparseElem) offset() []byte { return s[00:][:12] }
func (s sparseElem) length() []byte { return s[12:][:12] }
