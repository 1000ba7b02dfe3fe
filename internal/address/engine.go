// Package address recovers the street address, postal code (npa) and
// locality (commune) from the linearized text of SAR documents.
//
// The engine only looks at line order. It performs no I/O and keeps no
// state between calls, so one Engine may serve any number of goroutines.
package address

import (
	"log/slog"
	"strings"
)

// Engine applies the label strategy and then the fallback strategy to
// each page in order.
type Engine struct {
	logger *slog.Logger
}

// NewEngine returns an engine logging to logger. A nil logger discards output.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: logger}
}

// Extract returns the first successful extraction across pages. It never
// panics: unexpected faults become failure results.
func (e *Engine) Extract(pages []Page) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("address extraction fault", "panic", r)
			result = Faulted(r)
		}
	}()

	for _, page := range pages {
		if !page.Readable() {
			e.logger.Warn("page empty or unreadable", "page", page.Number)
			continue
		}

		if f, strategy, ok := e.extractPage(page); ok {
			e.logger.Info("address extracted",
				"page", page.Number,
				"strategy", strategy,
				"npa", f.NPA,
				"commune", f.Commune,
			)
			return Succeeded(f, page.Number)
		}
	}

	e.logger.Info("no address found", "pages", len(pages))
	return Failed(FormatNotRecognized)
}

func (e *Engine) extractPage(page Page) (Fields, string, bool) {
	lines := cleanLines(page.Lines)

	if f, ok := scanLabelBlocks(lines); ok {
		return f, "label", true
	}
	e.logger.Debug("label strategy found nothing, trying fallback", "page", page.Number)

	if f, ok := scanFallback(lines); ok {
		return f, "fallback", true
	}
	return Fields{}, "", false
}

// Extract runs a silent engine over pages.
func Extract(pages []Page) Result {
	return NewEngine(nil).Extract(pages)
}

// SplitLines splits page text on line breaks, accepting CRLF.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
