// Command h5inspect prints the groups and datasets of HDF5 files.
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"

	"go.uber.org/zap"

	"github.com/robert-malhotra/hdf5kit/hdf5"
)

func main() {
	var (
		format  = flag.String("format", "text", "output format: text or yaml")
		where   = flag.String("where", "", "only list datasets matching this expression, e.g. 'rank == 2 && size > 100'")
		attrs   = flag.Bool("attrs", false, "print attributes")
		digests = flag.Bool("digest", false, "print a sha256 digest and a farm fingerprint of each dataset's data")
		jobs    = flag.Int("j", runtime.NumCPU(), "files inspected in parallel")
		verbose = flag.Bool("v", false, "log library diagnostics to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: h5inspect [flags] file.h5[:/object@attribute]...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	write := writeText
	switch *format {
	case "text":
	case "yaml":
		write = writeYAML
	default:
		fmt.Fprintf(os.Stderr, "h5inspect: unknown format %q\n", *format)
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "h5inspect: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer logger.Sync()
	hdf5.SetLogger(logger)

	program, err := compileWhere(*where)
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5inspect: -where: %v\n", err)
		os.Exit(2)
	}
	opts := options{attrs: *attrs, digest: *digests, where: program}

	reports := inspectAll(flag.Args(), opts, *jobs, logger)

	if err := write(os.Stdout, reports); err != nil {
		fmt.Fprintf(os.Stderr, "h5inspect: %v\n", err)
		os.Exit(1)
	}
	for _, r := range reports {
		if r.Error != "" {
			os.Exit(1)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
