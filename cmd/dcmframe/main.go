// Command dcmframe inspects, renders and converts the frames of DICOM
// objects.
//
// Usage:
//
//	dcmframe [-v] [-json] info FILE
//	dcmframe [-v] [-json] render [-frame N] [-o OUT.png] [-wc C -ww W] [-max PX] [-stream] FILE
//	dcmframe [-v] [-json] extract [-frame N] [-o DIR] [-preserve-series] [-instance-format F] [-key K] FILE
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

const usage = `usage: dcmframe [-v] [-json] <command> [flags] FILE

commands:
  info      print the image pixel module and frame layout
  render    render one frame to PNG
  extract   convert frames of an enhanced multi-frame object to single-frame files
`

func main() {
	verbose := flag.Bool("v", false, "Log debug output")
	jsonLogs := flag.Bool("json", false, "Log as JSON")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "info":
		err = runInfo(logger, args)
	case "render":
		err = runRender(logger, args)
	case "extract":
		err = runExtract(logger, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

// fileArg returns the single positional argument of fs.
func fileArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one FILE argument, got %d", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}
