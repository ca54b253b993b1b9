package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/therootcompany/xz"
)

// wrapDecompressReader wraps r with a decompressor chosen by name's
// extension. An unrecognized extension passes r through unchanged.
func wrapDecompressReader(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".xz"):
		return xz.NewReader(r, 0)
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewReader(r), nil
	default:
		return r, nil
	}
}

// wrapCompressWriter wraps w with a compressor chosen by name's extension.
// An unrecognized extension passes w through unchanged. The xz format is
// read-only in this toolchain (see DESIGN.md); requesting it here is an
// error rather than silently falling back to an uncompressed stream.
func wrapCompressWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".xz"):
		return nil, fmt.Errorf("crystar: writing .xz archives is not supported, only reading")
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
