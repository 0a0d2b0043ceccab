// Command resume-batch extracts resume fields from a zip archive or a
// directory and writes the results table to CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/config"
	"github.com/muhammadolammi/resumeextract/internal/export"
	"github.com/muhammadolammi/resumeextract/internal/logger"
	"github.com/muhammadolammi/resumeextract/internal/resume"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// printError writes to stderr, falling back to stdout if stderr fails.
func printError(stderr, stdout io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(stderr, format, args...); err != nil {
		fmt.Fprintf(stdout, format, args...)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("resume-batch", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		archivePath = fs.String("archive", "", "zip archive of resumes")
		dir         = fs.String("dir", "", "directory of resumes (already unpacked)")
		out         = fs.String("out", "./"+export.Filename, "output CSV path")
		xlsxOut     = fs.String("xlsx", "", "also write an XLSX table to this path")
		configPath  = fs.StringP("config", "c", "", "path to a YAML config file")
		verbose     = fs.BoolP("verbose", "v", false, "write structured logs to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if (*archivePath == "") == (*dir == "") {
		printError(stderr, stdout, "Error: exactly one of --archive or --dir is required\n")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		printError(stderr, stdout, "Error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(config.ModeBatch); err != nil {
		printError(stderr, stdout, "Error: invalid config: %v\n", err)
		return 1
	}
	log := logger.New(cfg.Log, stderr)
	if !*verbose {
		log = log.Level(zerolog.ErrorLevel)
	}
	processor := batch.NewProcessor(batch.OptionsFrom(cfg.Batch), nil, log)

	var b *batch.Batch
	if *archivePath != "" {
		data, err := os.ReadFile(*archivePath)
		if err != nil {
			printError(stderr, stdout, "Error: read archive: %v\n", err)
			return 1
		}
		b, err = processor.ProcessArchive(ctx, data)
		if err != nil {
			printError(stderr, stdout, "Error: %v\n", err)
			return 1
		}
	} else {
		b, err = processor.ProcessDir(ctx, *dir)
		if err != nil {
			printError(stderr, stdout, "Error: %v\n", err)
			return 1
		}
	}

	for _, f := range b.Failures {
		printError(stderr, stdout, "Error processing %s: %s\n", f.Document, f.Message)
	}

	if b.Empty() {
		printError(stderr, stdout, "Warning: No valid resumes found.\n")
	} else {
		if err := writeFile(*out, b, export.CSV); err != nil {
			printError(stderr, stdout, "Error: %v\n", err)
			return 1
		}
		if *xlsxOut != "" {
			if err := writeFile(*xlsxOut, b, export.XLSX); err != nil {
				printError(stderr, stdout, "Error: %v\n", err)
				return 1
			}
		}
	}

	fmt.Fprintf(stdout, "\n=== Batch Processing Complete ===\n")
	fmt.Fprintf(stdout, "Batch: %s\n", b.ID)
	fmt.Fprintf(stdout, "Files scanned: %d\n", b.Stats.Scanned)
	fmt.Fprintf(stdout, "Resumes matched: %d\n", b.Stats.Matched)
	fmt.Fprintf(stdout, "Records extracted: %d\n", b.Stats.Succeeded)
	fmt.Fprintf(stdout, "Blank documents: %d\n", b.Stats.Blank)
	fmt.Fprintf(stdout, "Failed: %d\n", b.Stats.Failed)
	if !b.Empty() {
		fmt.Fprintf(stdout, "CSV: %s\n", *out)
		if *xlsxOut != "" {
			fmt.Fprintf(stdout, "XLSX: %s\n", *xlsxOut)
		}
	}
	return 0
}

func writeFile(path string, b *batch.Batch, render func([]resume.ResumeRecord) ([]byte, error)) error {
	data, err := render(b.Records)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
