package address

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	npaLength     = 4
	minLineLength = 3
)

var (
	labelPattern = regexp.MustCompile(`(?i)libell[eé]\s+d['’]adresse\s*:\s*(.*)`)

	// postalLinePattern is anchored: the whole trimmed line is "<digits> <locality>".
	postalLinePattern = regexp.MustCompile(`^(\d{4,6})\s+(.+)$`)
	postalPrefix      = regexp.MustCompile(`^\d{4,6}\s`)

	// postalAnywherePattern finds "<digits> <Locality>" anywhere in a line.
	postalAnywherePattern = regexp.MustCompile(`(\d{4,6})\s+([A-ZÀ-ÖØ-Þ][A-Za-zÀ-ÖØ-öø-ÿ\s-]*)`)

	// addressLikePattern accepts "av. du Simplon 4A"-shaped lines.
	addressLikePattern = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ].*\d+[A-Za-z]?$`)

	excludedAddressPrefixes = []string{"données", "contact", "client", "swisscom"}

	spaceFolder = strings.NewReplacer("\u00a0", " ", "\u202f", " ")
)

// matchLabel reports whether line carries the address label and returns
// the trimmed text that follows it on the same line.
func matchLabel(index int, line string) (LabelMatch, bool) {
	m := labelPattern.FindStringSubmatch(line)
	if m == nil {
		return LabelMatch{}, false
	}
	return LabelMatch{Index: index, Inline: strings.TrimSpace(m[1])}, true
}

// matchPostalLocality matches a trimmed line of the form "1870 Monthey".
func matchPostalLocality(line string) (npa, commune string, ok bool) {
	m := postalLinePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return normalizeNPA(m[1]), strings.TrimSpace(m[2]), true
}

// findPostalLocality looks for a postal code followed by a capitalised
// locality anywhere in line.
func findPostalLocality(line string) (npa, commune string, ok bool) {
	m := postalAnywherePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	commune = strings.TrimSpace(m[2])
	if commune == "" {
		return "", "", false
	}
	return normalizeNPA(m[1]), commune, true
}

// matchAddressLike reports whether a trimmed line looks like a street
// line ending in a house number.
func matchAddressLike(line string) bool {
	return addressLikePattern.MatchString(line)
}

// isExcludedAddress reports whether line opens with a known non-address heading.
func isExcludedAddress(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range excludedAddressPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// classify turns one window line into at most one candidate.
func classify(raw string) Candidate {
	line := strings.TrimSpace(raw)
	if utf8.RuneCountInString(line) < minLineLength {
		return Candidate{Kind: CandidateNone}
	}

	if npa, commune, ok := matchPostalLocality(line); ok {
		return Candidate{Kind: CandidatePostal, NPA: npa, Commune: commune}
	}

	if postalPrefix.MatchString(line) || isExcludedAddress(line) {
		return Candidate{Kind: CandidateNone}
	}

	return Candidate{Kind: CandidateAddress, Text: line}
}

// normalizeNPA keeps the leading four digits of a longer run.
func normalizeNPA(digits string) string {
	if len(digits) > npaLength {
		return digits[:npaLength]
	}
	return digits
}

// cleanLines folds non-breaking spaces and composes accents so that
// decomposed "é" from PDF text layers matches like the precomposed form.
func cleanLines(lines []string) []string {
	cleaned := make([]string, len(lines))
	for i, line := range lines {
		line = spaceFolder.Replace(line)
		cleaned[i] = norm.NFC.String(line)
	}
	return cleaned
}
