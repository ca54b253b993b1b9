package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	tar "github.com/naqvis/crystar"
	"github.com/naqvis/crystar/internal/dedup"
)

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	dir := fs.String("C", ".", "directory to extract into")
	jobs := fs.Int("j", 4, "number of concurrent entry writers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: crystar extract [-C dir] [-j N] <archive>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := wrapDecompressReader(fs.Arg(0), f)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	cache := dedup.New(4096)

	var g errgroup.Group
	g.SetLimit(*jobs)

	// written tracks, per destination path, a channel closed once that
	// path's TypeReg worker has finished writing. A TypeLink entry always
	// appears after the TypeReg entry it targets in the archive stream,
	// but the worker pool runs entries concurrently and gives no
	// guarantee the target's write actually lands first, so a hardlink
	// worker waits on this channel before calling os.Link.
	written := make(map[string]chan struct{})

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		dest := filepath.Join(*dir, filepath.FromSlash(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(hdr.Mode)|0o700); err != nil {
				return err
			}
			continue
		case tar.TypeLink:
			target := filepath.Join(*dir, filepath.FromSlash(hdr.Linkname))
			ready := written[target]
			g.Go(func() error {
				if ready != nil {
					<-ready
				}
				return extractHardlink(target, dest)
			})
			continue
		case tar.TypeSymlink:
			g.Go(func() error { return extractSymlink(hdr.Linkname, dest) })
			continue
		case tar.TypeReg:
			body := make([]byte, hdr.Size)
			if _, err := io.ReadFull(tr, body); err != nil {
				return err
			}
			done := make(chan struct{})
			written[dest] = done
			g.Go(func() error {
				defer close(done)
				return extractRegular(cache, dest, body, os.FileMode(hdr.Mode))
			})
		default:
			slog.Warn("extract: skipping unsupported entry", "name", hdr.Name, "typeflag", hdr.Typeflag)
		}
	}
	return g.Wait()
}

func extractHardlink(target, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return err
	}
	return os.Link(target, dest)
}

func extractSymlink(linkname, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return err
	}
	return os.Symlink(linkname, dest)
}

// extractRegular writes body to dest, hardlinking to a previously extracted
// file instead of rewriting the data when an identical payload has already
// been seen during this run.
func extractRegular(cache *dedup.Cache, dest string, body []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return err
	}

	digest := dedup.Sum(body)
	if first, ok := cache.Lookup(digest); ok {
		if err := os.Link(first, dest); err == nil {
			return nil
		}
		// Fall through and write the data if the hardlink failed
		// (e.g. a cross-device extraction target).
	}

	if err := os.WriteFile(dest, body, mode); err != nil {
		return err
	}
	cache.Store(digest, dest)
	return nil
}
