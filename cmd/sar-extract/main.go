package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/connectfiber/sar-extractor/internal/address"
	"github.com/connectfiber/sar-extractor/internal/pdf"
)

const (
	exitOK        = 0
	exitNoAddress = 1
	exitUsage     = 2

	defaultMaxFileMB = 50
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("sar-extract", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	workers := flags.Int("workers", pdf.DefaultWorkers, "Documents extracted concurrently")
	timeout := flags.Duration("timeout", 60*time.Second, "Deadline per document, 0 disables it")
	maxFileMB := flags.Int64("max-file-mb", defaultMaxFileMB, "Maximum size of one PDF in megabytes")
	pretty := flags.Bool("pretty", false, "Indent the JSON output")
	verbose := flags.Bool("verbose", false, "Log progress to stderr")
	flags.Usage = func() { printUsage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() == 0 {
		fmt.Fprintf(stderr, "sar-extract: at least one PDF file is required\n\n")
		printUsage(stderr, flags)
		return exitUsage
	}
	if *workers < 1 {
		fmt.Fprintf(stderr, "sar-extract: --workers must be at least 1\n")
		return exitUsage
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	svc, err := pdf.NewService(pdf.Options{
		MaxFileSize: *maxFileMB * 1024 * 1024,
		Timeout:     *timeout,
		Workers:     *workers,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "sar-extract: %v\n", err)
		return exitUsage
	}

	batch := extractFiles(context.Background(), svc, flags.Args())

	if err := writeJSON(stdout, batch, *pretty); err != nil {
		fmt.Fprintf(stderr, "sar-extract: writing results: %v\n", err)
		return exitNoAddress
	}
	if batch.SuccessCount == 0 {
		return exitNoAddress
	}
	return exitOK
}

// extractFiles reads every path and extracts them as one batch. A file
// that cannot be read yields a failed result at its position.
func extractFiles(ctx context.Context, svc *pdf.Service, paths []string) pdf.BatchResult {
	docs := make([]pdf.Document, 0, len(paths))
	readErrs := make(map[int]error)
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			readErrs[i] = err
		}
		docs = append(docs, pdf.Document{Name: filepath.Base(path), Data: data})
	}

	if len(readErrs) == 0 {
		return svc.ExtractBatch(ctx, docs)
	}

	readable := make([]pdf.Document, 0, len(docs)-len(readErrs))
	for i, doc := range docs {
		if _, failed := readErrs[i]; !failed {
			readable = append(readable, doc)
		}
	}
	extracted := svc.ExtractBatch(ctx, readable).Results

	results := make([]pdf.FileResult, 0, len(docs))
	for i, doc := range docs {
		if err, failed := readErrs[i]; failed {
			results = append(results, pdf.FileResult{Result: address.Faulted(err), FileName: doc.Name})
			continue
		}
		results = append(results, extracted[0])
		extracted = extracted[1:]
	}
	return pdf.NewBatchResult(results)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "sar-extract - extract the postal address of SAR PDF documents")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  sar-extract [OPTIONS] <file.pdf>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXIT STATUS:")
	fmt.Fprintln(w, "  0  at least one address was extracted")
	fmt.Fprintln(w, "  1  no address could be extracted")
	fmt.Fprintln(w, "  2  usage error")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  sar-extract raccordement.pdf")
	fmt.Fprintln(w, "  sar-extract --pretty --workers 8 exports/*.pdf")
}
