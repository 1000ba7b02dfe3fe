package pdf

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"

	"github.com/connectfiber/sar-extractor/internal/address"
)

const (
	// Baselines closer than this, in text space units, share a line.
	baselineTolerance = 1.0

	// A TJ adjustment below this, in thousandths of an em, reads as a
	// word gap.
	tjSpaceThreshold = -200.0
)

// contextLines reads text operators from the page content streams that
// pdfcpu decoded, one entry per page. It covers documents whose fonts or
// object layout ledongthuc/pdf cannot decode.
func contextLines(ctx *model.Context) (pages []address.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	pages = make([]address.Page, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pages = append(pages, address.Page{Number: pageNr, Lines: contentPageLines(ctx, pageNr)})
	}
	return pages, nil
}

func contentPageLines(ctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	content, err := io.ReadAll(r)
	if err != nil || len(content) == 0 {
		return nil
	}
	return textOrNil(layoutText(content))
}

// layoutText runs the text operators of a content stream and returns its
// lines from top to bottom. Runs drawn on the same baseline are joined,
// even when they come from different text objects.
func layoutText(content []byte) []string {
	l := &textLayout{}
	sc := &contentScanner{data: content}

	var operands []any
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		op, isOp := tok.(contentOperator)
		if !isOp {
			operands = append(operands, tok)
			continue
		}
		if op == "ID" {
			sc.skipInlineImage()
		}
		l.apply(string(op), operands)
		operands = operands[:0]
	}

	sort.SliceStable(l.lines, func(i, j int) bool { return l.lines[i].y > l.lines[j].y })

	var lines []string
	for _, line := range l.lines {
		lines = appendLine(lines, line.text.String())
	}
	return lines
}

type textLine struct {
	y    float64
	text strings.Builder
}

// textLayout tracks the vertical text position, which is all line
// grouping needs. Horizontal moves only mark word boundaries.
type textLayout struct {
	lines []*textLine
	cur   *textLine

	lineY   float64
	leading float64
	gap     bool
}

func (l *textLayout) apply(op string, operands []any) {
	switch op {
	case "BT":
		l.lineY = 0
		l.cur = nil
	case "TL":
		if v, ok := number(operands, 0); ok {
			l.leading = v
		}
	case "Td", "TD":
		tx, _ := number(operands, 0)
		ty, _ := number(operands, 1)
		if op == "TD" {
			l.leading = -ty
		}
		l.moveTo(l.lineY+ty, tx != 0)
	case "Tm":
		if f, ok := number(operands, 5); ok {
			l.moveTo(f, true)
		}
	case "T*":
		l.moveTo(l.lineY-l.leading, false)
	case "Tj":
		l.show(lastString(operands))
	case "'", "\"":
		l.moveTo(l.lineY-l.leading, false)
		l.show(lastString(operands))
	case "TJ":
		if len(operands) == 0 {
			return
		}
		arr, _ := operands[len(operands)-1].([]any)
		for _, el := range arr {
			switch v := el.(type) {
			case []byte:
				l.show(v)
			case float64:
				if v < tjSpaceThreshold {
					l.gap = true
				}
			}
		}
	}
}

// moveTo sets the baseline for the next run. A move along the current
// baseline separates words when horizontal is set.
func (l *textLayout) moveTo(y float64, horizontal bool) {
	l.lineY = y
	if l.cur != nil && math.Abs(l.cur.y-y) < baselineTolerance {
		l.gap = l.gap || horizontal
		return
	}
	l.cur = nil
}

func (l *textLayout) show(raw []byte) {
	if len(raw) == 0 {
		return
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return
	}

	if l.cur == nil {
		l.cur = l.lineAt(l.lineY)
	}
	s := string(text)
	if l.gap && l.cur.text.Len() > 0 && !endsWithSpace(l.cur.text.String()) && !startsWithSpace(s) {
		l.cur.text.WriteByte(' ')
	}
	l.gap = false
	l.cur.text.WriteString(s)
}

// lineAt returns the line on baseline y, creating it when needed. Text
// resumed on an earlier baseline starts a new word.
func (l *textLayout) lineAt(y float64) *textLine {
	for _, line := range l.lines {
		if math.Abs(line.y-y) < baselineTolerance {
			l.gap = true
			return line
		}
	}
	line := &textLine{y: y}
	l.lines = append(l.lines, line)
	return line
}

func number(operands []any, i int) (float64, bool) {
	if i >= len(operands) {
		return 0, false
	}
	v, ok := operands[i].(float64)
	return v, ok
}

func lastString(operands []any) []byte {
	if len(operands) == 0 {
		return nil
	}
	b, _ := operands[len(operands)-1].([]byte)
	return b
}
