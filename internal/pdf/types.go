package pdf

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/connectfiber/sar-extractor/internal/address"
)

// Document is one named PDF payload.
type Document struct {
	Name string
	Data []byte
}

// FileResult is an extraction result tagged with its file name.
type FileResult struct {
	address.Result
	FileName string `json:"file_name"`
}

// BatchResult aggregates the results of one batch. Success is true as
// soon as the batch could be processed; per-document outcomes live in
// Results.
type BatchResult struct {
	Success      bool         `json:"success"`
	Results      []FileResult `json:"results"`
	Count        int          `json:"count"`
	SuccessCount int          `json:"success_count"`
}

// NewBatchResult counts successes over results.
func NewBatchResult(results []FileResult) BatchResult {
	if results == nil {
		results = []FileResult{}
	}
	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}
	return BatchResult{
		Success:      true,
		Results:      results,
		Count:        len(results),
		SuccessCount: successCount,
	}
}

// FileInfo represents a PDF file found on disk
type FileInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Inspection is what the validator learned about a payload.
type Inspection struct {
	Size      int64
	PageCount int
	// StructureErr is set when pdfcpu could not read the document. Text
	// extraction is still attempted.
	StructureErr error

	// context is the document as read by pdfcpu, nil on StructureErr.
	context *model.Context
}
