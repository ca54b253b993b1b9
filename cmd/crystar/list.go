package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tar "github.com/naqvis/crystar"
)

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	long := fs.Bool("l", false, "show mode, size, and modtime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: crystar list [-l] <archive>")
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
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if *long {
			fmt.Printf("%v %10d %s %s\n", hdr.FileInfo().Mode(), hdr.Size, hdr.ModTime.Format("2006-01-02 15:04"), hdr.Name)
		} else {
			fmt.Println(hdr.Name)
		}
	}
}
