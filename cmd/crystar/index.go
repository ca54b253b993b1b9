package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/naqvis/crystar/internal/tarindex"
)

func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	store := fs.String("db", "", "index database directory (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *store == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: crystar index -db dir <archive>")
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

	idx, err := tarindex.Open(*store)
	if err != nil {
		return err
	}
	defer idx.Close()

	n, err := idx.Build(r)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d entries\n", n)
	return nil
}
