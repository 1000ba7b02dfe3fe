package address

import "fmt"

const (
	// FormatNotRecognized is returned when no page yields a postal code and locality.
	FormatNotRecognized = "Impossible d'extraire l'adresse du PDF. Format non reconnu."

	// Unspecified stands in for the street address when none could be located.
	Unspecified = "Non spécifiée"

	faultPrefix = "Erreur lors de l'extraction: "
)

// Page is one page of linearized text. A nil Lines slice marks a page
// whose text could not be read.
type Page struct {
	Number int
	Lines  []string
}

// Readable reports whether the page carried any text at all.
func (p Page) Readable() bool {
	return len(p.Lines) > 0
}

// Fields holds the three recovered address parts.
type Fields struct {
	Address string `json:"address"`
	NPA     string `json:"npa"`
	Commune string `json:"commune"`
}

// Result is the outcome of extracting one document.
// Data and Page are set iff Success; Error is set iff not.
type Result struct {
	Success bool    `json:"success"`
	Data    *Fields `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`
	Page    int     `json:"page,omitempty"`
}

// Succeeded builds a successful result for the given page.
func Succeeded(fields Fields, page int) Result {
	if fields.Address == "" {
		fields.Address = Unspecified
	}
	return Result{Success: true, Data: &fields, Page: page}
}

// Failed builds a failure result carrying message.
func Failed(message string) Result {
	return Result{Success: false, Error: message}
}

// Faulted builds a failure result for an unexpected fault during extraction.
func Faulted(cause any) Result {
	if err, ok := cause.(error); ok {
		return Failed(faultPrefix + err.Error())
	}
	return Failed(faultPrefix + fmt.Sprint(cause))
}

// LabelMatch is a hit of the address label on a line.
type LabelMatch struct {
	Index  int
	Inline string
}

// CandidateKind classifies a line inside the proximity window.
type CandidateKind int

const (
	CandidateNone CandidateKind = iota
	CandidatePostal
	CandidateAddress
)

// String returns the kind name
func (k CandidateKind) String() string {
	switch k {
	case CandidatePostal:
		return "postal"
	case CandidateAddress:
		return "address"
	default:
		return "none"
	}
}

// Candidate is the classification of a single window line. Postal
// candidates carry NPA and Commune, address candidates carry Text.
type Candidate struct {
	Kind    CandidateKind
	NPA     string
	Commune string
	Text    string
}
