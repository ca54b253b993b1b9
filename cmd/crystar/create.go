package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	tar "github.com/naqvis/crystar"
	"github.com/naqvis/crystar/internal/fileid"
)

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	output := fs.String("o", "", "output archive path (required)")
	include := fs.String("include", "**", "doublestar glob of paths to include, relative to the source root")
	exclude := fs.String("exclude", "", "doublestar glob of paths to exclude")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: crystar create -o archive.tar[.zst] <source-dir>")
	}
	root := fs.Arg(0)

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer f.Close()

	cw, err := wrapCompressWriter(*output, f)
	if err != nil {
		return err
	}
	defer cw.Close()

	tw := tar.NewWriter(cw)
	defer tw.Close()

	links := fileid.NewIndex()

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if matched, mErr := doublestar.Match(*include, filepath.ToSlash(rel)); mErr != nil {
			return mErr
		} else if !matched {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if *exclude != "" {
			if matched, mErr := doublestar.Match(*exclude, filepath.ToSlash(rel)); mErr != nil {
				return mErr
			} else if matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		var linkTarget string
		if info.Mode()&os.ModeSymlink != 0 {
			if linkTarget, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := headerFromInfo(info, linkTarget)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}

		if d.Type().IsRegular() {
			if id, err := fileid.Lookup(path); err == nil {
				if first, dup := links.Visit(id, hdr.Name); dup {
					hdr.Typeflag = tar.TypeLink
					hdr.Linkname = first
					hdr.Size = 0
					return tw.WriteHeader(hdr)
				}
			}
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(tw, in)
		return err
	})
	if err != nil {
		slog.Error("create", "root", root, "err", err)
	}
	return err
}
