// Command flatlayc compiles a layout schema and produces its artifacts:
// the descriptor file, the zeroed backing buffer, and the emitted FFI
// source pair.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/andreyvit/flatlay"
	"github.com/andreyvit/flatlay/mmap"
)

var logLevel slog.LevelVar

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel})))
}

func main() {
	var (
		inputPath   = flag.String("input", "", "layout schema JSON file (required)")
		backingPath = flag.String("backing-file", "", "backing buffer file to create and map (required)")
		descPath    = flag.String("descriptor", "", "layout descriptor output file (required)")
		outDir      = flag.String("out-dir", "", "directory for the emitted FFI pair (required)")
		doFormat    = flag.Bool("format", false, "run the external formatter over the emitted pair")
		catalogPath = flag.String("catalog", "", "optional layout catalog file to record the layout in")
		layoutName  = flag.String("name", "", "layout name within the catalog (required with -catalog)")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *inputPath == "" || *backingPath == "" || *descPath == "" || *outDir == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -input layout.json -backing-file memory.buf -descriptor layout.map -out-dir DIR [-format] [-catalog catalog.db -name NAME]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *catalogPath != "" && *layoutName == "" {
		fmt.Fprintln(os.Stderr, "-catalog requires -name")
		os.Exit(2)
	}
	if *verbose {
		logLevel.Set(slog.LevelDebug)
	}

	if err := run(*inputPath, *backingPath, *descPath, *outDir, *doFormat, *catalogPath, *layoutName); err != nil {
		slog.Error("flatlayc failed", "err", err)
		os.Exit(1)
	}
}

func run(inputPath, backingPath, descPath, outDir string, doFormat bool, catalogPath, layoutName string) error {
	schema, err := flatlay.ParseSchemaFile(inputPath)
	if err != nil {
		return err
	}
	layout, err := flatlay.BuildLayout(schema)
	if err != nil {
		return err
	}
	slog.Debug("layout compiled", "fields", len(layout.Fields), "total_size", layout.TotalSize)

	if err := flatlay.SaveLayout(descPath, layout); err != nil {
		return err
	}
	slog.Debug("descriptor saved", "path", descPath)

	region, err := mmap.OpenBacking(backingPath, layout.TotalSize)
	if err != nil {
		return err
	}
	defer region.Close()
	slog.Debug("backing buffer mapped", "path", backingPath, "size", len(region.Data))

	headerPath, implPath, err := flatlay.WriteFFI(layout, outDir)
	if err != nil {
		return err
	}
	slog.Debug("FFI pair emitted", "header", headerPath, "impl", implPath)

	if doFormat {
		if err := flatlay.ValidateAndFormat(headerPath, implPath); err != nil {
			return err
		}
		slog.Debug("emitted pair formatted")
	}

	if catalogPath != "" {
		cat, err := flatlay.OpenCatalog(catalogPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		if err := cat.Put(layoutName, layout); err != nil {
			return err
		}
		slog.Debug("layout recorded in catalog", "name", layoutName)
	}

	size := layout.TotalSize
	fmt.Printf("Total buffer size: %d bytes (%.1f KB, %.2f MB)\n",
		size, float64(size)/1024, float64(size)/(1024*1024))
	return nil
}
