// Package pdftest builds small single-font PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

const (
	pageTop    = 800
	lineHeight = 16
	leftMargin = 56
)

// Build returns a PDF with one page per entry of pages, each line drawn
// on its own baseline. A nil or empty entry produces a page without text.
func Build(pages ...[]string) []byte {
	contents := make([]string, len(pages))
	for i, lines := range pages {
		contents[i] = contentStream(lines)
	}
	return build(contents)
}

func build(contents []string) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// 1 catalog, 2 page tree, 3 font, then page/content pairs from 4.
	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, content := range contents {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// Encrypt protects data with AES-256 and an open password.
func Encrypt(data []byte, userPW string) ([]byte, error) {
	var out bytes.Buffer
	conf := model.NewAESConfiguration(userPW, userPW+"-owner", 256)
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Raw wraps a hand written content stream in a one page PDF.
func Raw(content string) []byte {
	return build([]string{content})
}

func contentStream(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		y := pageTop - i*lineHeight
		fmt.Fprintf(&b, "BT /F1 11 Tf %d %d Td (%s) Tj ET\n", leftMargin, y, escape(line))
	}
	return b.String()
}

// escape encodes s as WinAnsi and escapes it for a PDF literal string.
func escape(s string) string {
	encoded, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		encoded = s
	}

	var b strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
