package main

import (
	"fmt"
	"os"

	tar "github.com/naqvis/crystar"
)

// headerFromInfo builds a tar.Header describing info, with linkname set
// for symlinks. This stat-to-Header conversion lives in the CLI rather
// than the core codec package, which only ever goes the other direction
// (Header.FileInfo).
func headerFromInfo(info os.FileInfo, linkname string) (*tar.Header, error) {
	mode := info.Mode()
	h := &tar.Header{
		Name:     info.Name(),
		ModTime:  info.ModTime(),
		Mode:     int64(mode.Perm()),
		Linkname: linkname,
	}

	switch {
	case mode.IsRegular():
		h.Typeflag = tar.TypeReg
		h.Size = info.Size()
	case mode.IsDir():
		h.Typeflag = tar.TypeDir
	case mode&os.ModeSymlink != 0:
		h.Typeflag = tar.TypeSymlink
	case mode&os.ModeNamedPipe != 0:
		h.Typeflag = tar.TypeFifo
	case mode&os.ModeDevice != 0:
		if mode&os.ModeCharDevice != 0 {
			h.Typeflag = tar.TypeChar
		} else {
			h.Typeflag = tar.TypeBlock
		}
	default:
		return nil, fmt.Errorf("crystar: unsupported file type for %q", info.Name())
	}

	if mode&os.ModeSetuid != 0 {
		h.Mode |= 04000
	}
	if mode&os.ModeSetgid != 0 {
		h.Mode |= 02000
	}
	if mode&os.ModeSticky != 0 {
		h.Mode |= 01000
	}
	return h, nil
}
