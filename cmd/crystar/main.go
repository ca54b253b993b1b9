// Command crystar creates, lists, extracts, and indexes tar archives.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "index":
		err = runIndex(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("crystar", "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: crystar <create|list|extract|index> [flags]")
}
