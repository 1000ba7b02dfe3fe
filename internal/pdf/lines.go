package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/connectfiber/sar-extractor/internal/address"
)

const (
	// gapRatio is the horizontal gap, relative to the font size, above
	// which two text runs on the same row are separated by a space.
	gapRatio = 0.15

	// Used to estimate run widths when the decoder reports none.
	assumedFontSize = 10.0
	charWidthRatio  = 0.5
)

// LineExtractor turns a PDF payload into pages of text lines in reading order.
type LineExtractor interface {
	ExtractLines(data []byte) ([]address.Page, error)
}

// RowLineExtractor builds lines from ledongthuc/pdf text rows and falls
// back to the plain text stream when a page has no rows.
type RowLineExtractor struct{}

// NewRowLineExtractor creates a line extractor backed by ledongthuc/pdf
func NewRowLineExtractor() *RowLineExtractor {
	return &RowLineExtractor{}
}

// ExtractLines decodes data and returns one entry per page. Pages whose
// text cannot be read have nil Lines.
func (x *RowLineExtractor) ExtractLines(data []byte) (pages []address.Page, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed documents
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	numPages := reader.NumPage()
	pages = make([]address.Page, 0, numPages)
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, address.Page{Number: pageNum})
			continue
		}
		pages = append(pages, address.Page{Number: pageNum, Lines: pageLines(page)})
	}

	return pages, nil
}

// pageLines returns the lines of a page, or nil when the page carries no
// text.
func pageLines(page pdf.Page) (lines []string) {
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	if rows, err := page.GetTextByRow(); err == nil && len(rows) > 0 {
		for _, row := range rows {
			lines = appendLine(lines, joinRow(row.Content))
		}
		if lines = textOrNil(lines); lines != nil {
			return lines
		}
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return nil
	}
	for _, line := range address.SplitLines(text) {
		lines = appendLine(lines, line)
	}
	return textOrNil(lines)
}

// appendLine keeps blank lines as empty strings. They still count toward
// the lines scanned after a label.
func appendLine(lines []string, line string) []string {
	return append(lines, strings.TrimRightFunc(line, unicode.IsSpace))
}

// textOrNil returns nil when no line carries visible text.
func textOrNil(lines []string) []string {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return lines
		}
	}
	return nil
}

// joinRow concatenates the text runs of one row, inserting a space where
// the runs are visibly apart.
func joinRow(texts []pdf.Text) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 && needsSpace(texts[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
	}
	return b.String()
}

func needsSpace(prev, next pdf.Text) bool {
	if endsWithSpace(prev.S) || startsWithSpace(next.S) {
		return false
	}

	fontSize := prev.FontSize
	if fontSize <= 0 {
		fontSize = assumedFontSize
	}
	width := prev.W
	if width <= 0 {
		width = float64(utf8.RuneCountInString(prev.S)) * fontSize * charWidthRatio
	}

	return next.X-(prev.X+width) > fontSize*gapRatio
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}
