package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfHeaderWindow is how far into the payload the %PDF- marker may start.
const pdfHeaderWindow = 1024

func init() {
	// pdfcpu would otherwise create a configuration directory on first use.
	api.DisableConfigDir()
}

// Validator handles PDF payload validation
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Inspect rejects payloads that cannot be a PDF and reads the document
// with pdfcpu in relaxed mode. Documents that need a password to open are
// rejected with ErrEncrypted.
func (v *Validator) Inspect(data []byte) (*Inspection, error) {
	size := int64(len(data))
	if size == 0 {
		return nil, ErrEmptyDocument
	}
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return nil, fmt.Errorf("%w: %d octets (max: %d octets)", ErrFileTooLarge, size, v.maxFileSize)
	}

	head := data
	if len(head) > pdfHeaderWindow {
		head = head[:pdfHeaderWindow]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	inspection := &Inspection{Size: size}

	ctx, err := readContext(data)
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return nil, ErrEncrypted
	}
	if err != nil {
		inspection.StructureErr = fmt.Errorf("failed to read PDF context: %w", err)
		return inspection, nil
	}
	if err := ctx.EnsurePageCount(); err != nil {
		inspection.StructureErr = fmt.Errorf("failed to ensure page count: %w", err)
		return inspection, nil
	}
	inspection.PageCount = ctx.PageCount
	inspection.context = ctx

	return inspection, nil
}

func readContext(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ReadContext(bytes.NewReader(data), conf)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyDocument, filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("%w: %d octets (max: %d octets)",
			ErrFileTooLarge, fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
