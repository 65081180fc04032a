package main

import (
	"fmt"
	"log/slog"
	"os"
)

const usage = `usage:
  callmatch serve [-config path]
  callmatch merge -calls retreaver.csv -sales sales.csv [-out file] [-format csv|xlsx]
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(args)
	case "merge":
		err = mergeFiles(args, os.Stdout)
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("callmatch failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}
