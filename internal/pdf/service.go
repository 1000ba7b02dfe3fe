package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/connectfiber/sar-extractor/internal/address"
	"github.com/connectfiber/sar-extractor/internal/pdf/security"
)

const (
	DefaultWorkers      = 4
	DefaultMaxDirectory = 500
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize int64
	// Timeout bounds the extraction of one document; zero disables it.
	Timeout time.Duration
	Workers int
	// Directory confines file based extraction. Empty disables it.
	Directory string
	Logger    *slog.Logger
	Lines     LineExtractor
}

// Service runs SAR documents through validation, line extraction and the
// address engine.
type Service struct {
	maxFileSize   int64
	timeout       time.Duration
	workers       int
	validator     *Validator
	search        *Search
	lines         LineExtractor
	pathValidator *security.PathValidator
	logger        *slog.Logger
}

// NewService creates a new extraction service with all components
func NewService(opts Options) (*Service, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Lines == nil {
		opts.Lines = NewRowLineExtractor()
	}

	s := &Service{
		maxFileSize: opts.MaxFileSize,
		timeout:     opts.Timeout,
		workers:     opts.Workers,
		validator:   NewValidator(opts.MaxFileSize),
		search:      NewSearch(opts.MaxFileSize, DefaultMaxDirectory),
		lines:       opts.Lines,
		logger:      opts.Logger,
	}

	if opts.Directory != "" {
		pathValidator, err := security.NewPathValidator(opts.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to create path validator: %w", err)
		}
		s.pathValidator = pathValidator
	}

	return s, nil
}

// ExtractDocument extracts the address of a single document. It always
// returns a result; failures are carried inside it.
func (s *Service) ExtractDocument(ctx context.Context, doc Document) FileResult {
	logger := s.logger.With("file", doc.Name)
	logger.Info("processing document", "size", len(doc.Data))
	start := time.Now()

	result := s.extractWithDeadline(ctx, doc, logger)

	if result.Success {
		logger.Info("extraction succeeded", "page", result.Page, "duration", time.Since(start))
	} else {
		logger.Warn("extraction failed", "error", result.Error, "duration", time.Since(start))
	}
	return FileResult{Result: result, FileName: doc.Name}
}

// ExtractBatch extracts every document on at most workers goroutines.
// Results keep the order of docs.
func (s *Service) ExtractBatch(ctx context.Context, docs []Document) BatchResult {
	return s.extractAll(ctx, docs, nil)
}

// extractAll extracts docs concurrently and keeps their order. A document
// with an entry in readErrs gets a faulted result in its place instead.
func (s *Service) extractAll(ctx context.Context, docs []Document, readErrs map[int]error) BatchResult {
	results := make([]FileResult, len(docs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, doc := range docs {
		if err, failed := readErrs[i]; failed {
			results[i] = FileResult{Result: address.Faulted(err), FileName: doc.Name}
			continue
		}
		g.Go(func() error {
			results[i] = s.ExtractDocument(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	batch := NewBatchResult(results)
	s.logger.Info("batch finished", "success_count", batch.SuccessCount, "count", batch.Count)
	return batch
}

// ExtractFile reads a PDF from disk, confined to the configured directory.
func (s *Service) ExtractFile(ctx context.Context, path string) (FileResult, error) {
	path, err := s.confine(path)
	if err != nil {
		return FileResult{}, err
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FileResult{}, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return FileResult{}, fmt.Errorf("cannot access file: %w", err)
	}
	if err := s.validator.ValidateFileInfo(path, fileInfo); err != nil {
		return FileResult{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to read file: %w", err)
	}

	return s.ExtractDocument(ctx, Document{Name: filepath.Base(path), Data: data}), nil
}

// ExtractDirectory extracts every PDF found under directory. An empty
// directory argument means the configured directory.
func (s *Service) ExtractDirectory(ctx context.Context, directory string) (BatchResult, error) {
	if directory == "" {
		directory = s.Directory()
	}
	directory, err := s.confine(directory)
	if err != nil {
		return BatchResult{}, err
	}

	files, err := s.search.FindPDFs(directory)
	if err != nil {
		return BatchResult{}, err
	}

	docs := make([]Document, len(files))
	readErrs := make(map[int]error)
	for i, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			readErrs[i] = err
		}
		docs[i] = Document{Name: f.Name, Data: data}
	}

	return s.extractAll(ctx, docs, readErrs), nil
}

// FindPDFs lists the PDF files of the configured directory.
func (s *Service) FindPDFs() ([]FileInfo, error) {
	if s.pathValidator == nil {
		return nil, fmt.Errorf("no PDF directory configured")
	}
	return s.search.FindPDFs(s.pathValidator.GetConfiguredDirectory())
}

// Directory returns the configured directory, or "" when file access is disabled.
func (s *Service) Directory() string {
	if s.pathValidator == nil {
		return ""
	}
	return s.pathValidator.GetConfiguredDirectory()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Timeout returns the per-document extraction deadline
func (s *Service) Timeout() time.Duration {
	return s.timeout
}

func (s *Service) confine(path string) (string, error) {
	if s.pathValidator == nil {
		return "", fmt.Errorf("file access is disabled: no PDF directory configured")
	}
	path = s.pathValidator.Resolve(path)
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return path, nil
}

// extractWithDeadline runs extract off the caller's goroutine so a stuck
// decoder cannot hold the caller past the deadline.
func (s *Service) extractWithDeadline(ctx context.Context, doc Document, logger *slog.Logger) address.Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan address.Result, 1)
	go func() {
		done <- s.extract(doc, logger)
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return address.Faulted(fmt.Errorf("%w (%s)", ErrTimeout, s.timeout))
		}
		return address.Faulted(ctx.Err())
	}
}

func (s *Service) extract(doc Document, logger *slog.Logger) (result address.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("extraction panic", "panic", r)
			result = address.Faulted(r)
		}
	}()

	inspection, err := s.validator.Inspect(doc.Data)
	if err != nil {
		return address.Faulted(err)
	}
	if inspection.StructureErr != nil {
		logger.Warn("pdfcpu could not read document structure, trying text extraction anyway",
			"error", inspection.StructureErr)
	} else {
		logger.Debug("document inspected", "pages", inspection.PageCount, "size", inspection.Size)
	}

	pages, err := s.lines.ExtractLines(doc.Data)
	if err != nil || !anyReadable(pages) {
		if fallback, ok := s.contentLines(inspection, logger); ok {
			pages, err = fallback, nil
		}
	}
	if err != nil {
		return address.Faulted(err)
	}

	return address.NewEngine(logger).Extract(pages)
}

// contentLines reads the document text from the pdfcpu context kept by the
// inspection. It reports false when pdfcpu did not read the document or
// found no text in it.
func (s *Service) contentLines(inspection *Inspection, logger *slog.Logger) ([]address.Page, bool) {
	if inspection.context == nil {
		return nil, false
	}
	pages, err := contextLines(inspection.context)
	if err != nil {
		logger.Debug("content stream extraction failed", "error", err)
		return nil, false
	}
	if !anyReadable(pages) {
		return nil, false
	}
	logger.Info("text read from content streams", "pages", len(pages))
	return pages, true
}

func anyReadable(pages []address.Page) bool {
	for _, p := range pages {
		if p.Readable() {
			return true
		}
	}
	return false
}
