package address

import "strings"

// windowSize is how many lines after a label may hold the address fields.
const windowSize = 5

type blockState int

const (
	seekingLabel blockState = iota
	collectingFields
	blockDone
)

// labelBlock collects address fields from the lines that follow one
// label occurrence. The zero value is seeking a label.
type labelBlock struct {
	state     blockState
	remaining int

	address    string
	hasAddress bool

	npa     string
	commune string
	hasPair bool
}

// open starts collecting after a label hit.
func (b *labelBlock) open(m LabelMatch) {
	*b = labelBlock{state: collectingFields, remaining: windowSize}
	if m.Inline != "" {
		b.address = m.Inline
		b.hasAddress = true
	}
}

// feed consumes the next line of the window. Lines fed outside the
// collecting state are ignored.
func (b *labelBlock) feed(line string) {
	if b.state != collectingFields {
		return
	}

	c := classify(line)
	switch c.Kind {
	case CandidatePostal:
		if !b.hasPair {
			b.npa, b.commune, b.hasPair = c.NPA, c.Commune, true
		}
	case CandidateAddress:
		if !b.hasAddress {
			b.address, b.hasAddress = c.Text, true
		}
	}

	b.remaining--
	if b.remaining <= 0 {
		b.state = blockDone
	}
}

// close ends the window early, e.g. at the end of the page.
func (b *labelBlock) close() {
	b.state = blockDone
}

// fields returns the collected fields once the window is done and a
// postal code/locality pair was seen.
func (b *labelBlock) fields() (Fields, bool) {
	if b.state != blockDone || !b.hasPair {
		return Fields{}, false
	}
	address := b.address
	if !b.hasAddress {
		address = Unspecified
	}
	return Fields{Address: address, NPA: b.npa, Commune: b.commune}, true
}

// scanLabelBlocks runs the label strategy over one page and returns the
// first label block that yields a complete pair.
func scanLabelBlocks(lines []string) (Fields, bool) {
	for i, line := range lines {
		m, ok := matchLabel(i, line)
		if !ok {
			continue
		}

		var b labelBlock
		b.open(m)
		for j := i + 1; j < len(lines) && b.state == collectingFields; j++ {
			b.feed(lines[j])
		}
		b.close()

		if f, ok := b.fields(); ok {
			return f, true
		}
	}
	return Fields{}, false
}

// scanFallback looks for a postal code and locality anywhere on the page
// and takes the address from the three lines before it.
func scanFallback(lines []string) (Fields, bool) {
	for i, line := range lines {
		npa, commune, ok := findPostalLocality(line)
		if !ok {
			continue
		}

		f := Fields{Address: Unspecified, NPA: npa, Commune: commune}
		for j := max(0, i-3); j < i; j++ {
			candidate := strings.TrimSpace(lines[j])
			if matchAddressLike(candidate) {
				f.Address = candidate
				break
			}
		}
		return f, true
	}
	return Fields{}, false
}
