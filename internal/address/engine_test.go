package address

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var npaShape = regexp.MustCompile(`^\d{4}$`)

func page(number int, lines ...string) Page {
	return Page{Number: number, Lines: lines}
}

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		pages    []Page
		want     *Fields
		wantPage int
		wantErr  string
	}{
		{
			name: "inline address after label",
			pages: []Page{page(1,
				"Réseau : X",
				"Libellé d'adresse : av. du Simplon 4A",
				"1870 Monthey",
			)},
			want:     &Fields{Address: "av. du Simplon 4A", NPA: "1870", Commune: "Monthey"},
			wantPage: 1,
		},
		{
			name: "address on next line with six digit code",
			pages: []Page{page(1,
				"Libellé d'adresse :",
				"av. du Simplon 4A",
				"187000 Monthey",
			)},
			want:     &Fields{Address: "av. du Simplon 4A", NPA: "1870", Commune: "Monthey"},
			wantPage: 1,
		},
		{
			name: "no label falls back to embedded code",
			pages: []Page{page(1,
				"Some header",
				"contact: Jean Dupont",
				"1950 Sion",
			)},
			want:     &Fields{Address: Unspecified, NPA: "1950", Commune: "Sion"},
			wantPage: 1,
		},
		{
			name:    "nothing recognisable",
			pages:   []Page{page(1, "Notes diverses", "aucune correspondance ici")},
			wantErr: FormatNotRecognized,
		},
		{
			name:    "no extractable text",
			pages:   []Page{{Number: 1}, {Number: 2}},
			wantErr: FormatNotRecognized,
		},
		{
			name:    "no pages at all",
			pages:   nil,
			wantErr: FormatNotRecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.pages)

			if tt.wantErr != "" {
				assert.False(t, got.Success)
				assert.Nil(t, got.Data)
				assert.Zero(t, got.Page)
				assert.Equal(t, tt.wantErr, got.Error)
				return
			}

			require.True(t, got.Success, "error: %s", got.Error)
			require.NotNil(t, got.Data)
			assert.Empty(t, got.Error)
			assert.Equal(t, *tt.want, *got.Data)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Regexp(t, npaShape, got.Data.NPA)
		})
	}
}

func TestExtract_LabelWindow(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		wantOK      bool
		wantAddress string
		wantNPA     string
		wantCommune string
	}{
		{
			name:        "inline text wins over later lines",
			lines:       []string{"Libellé d'adresse : Route de Collombey 12", "Chemin des Vignes 3", "1870 Monthey"},
			wantOK:      true,
			wantAddress: "Route de Collombey 12",
			wantNPA:     "1870",
			wantCommune: "Monthey",
		},
		{
			name:        "swisscom line never becomes the address",
			lines:       []string{"Libellé d'adresse :", "Swisscom (Suisse) SA", "1870 Monthey"},
			wantOK:      true,
			wantAddress: Unspecified,
			wantNPA:     "1870",
			wantCommune: "Monthey",
		},
		{
			name:        "excluded headings are skipped",
			lines:       []string{"Libellé d'adresse :", "Données du raccordement", "Client: 42", "Contact technique", "Rue du Bourg 8", "1950 Sion"},
			wantOK:      true,
			wantAddress: "Rue du Bourg 8",
			wantNPA:     "1950",
			wantCommune: "Sion",
		},
		{
			name:        "short and blank lines are ignored",
			lines:       []string{"Libellé d'adresse :", "", "AB", "Rue du Bourg 8", "1950 sion"},
			wantOK:      true,
			wantAddress: "Rue du Bourg 8",
			wantNPA:     "1950",
			wantCommune: "sion",
		},
		{
			name:        "address after the code line is still taken",
			lines:       []string{"Libellé d'adresse :", "1870 monthey", "av. du Simplon 4A"},
			wantOK:      true,
			wantAddress: "av. du Simplon 4A",
			wantNPA:     "1870",
			wantCommune: "monthey",
		},
		{
			name:        "first code line in the window wins",
			lines:       []string{"Libellé d'adresse : av. de France 1", "1870 monthey", "1950 sion"},
			wantOK:      true,
			wantAddress: "av. de France 1",
			wantNPA:     "1870",
			wantCommune: "monthey",
		},
		{
			name:        "code on the fifth line is inside the window",
			lines:       []string{"Libellé d'adresse :", "Rue du Bourg 8", "xxx", "yyy", "zzz", "1950 sion"},
			wantOK:      true,
			wantAddress: "Rue du Bourg 8",
			wantNPA:     "1950",
			wantCommune: "sion",
		},
		{
			name:   "code on the sixth line is outside the window",
			lines:  []string{"Libellé d'adresse :", "Rue du Bourg 8", "xxx", "yyy", "zzz", "www", "1950 sion"},
			wantOK: false,
		},
		{
			name:   "blank lines count toward the window",
			lines:  []string{"Libellé d'adresse :", "Rue du Bourg 8", "", "", "", "", "1950 sion"},
			wantOK: false,
		},
		{
			name:   "label at end of page",
			lines:  []string{"texte", "Libellé d'adresse : Rue du Bourg 8"},
			wantOK: false,
		},
		{
			name:   "digits without locality shape",
			lines:  []string{"Libellé d'adresse :", "Rue du Bourg 8", "1870"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := scanLabelBlocks(tt.lines)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantAddress, f.Address)
			assert.Equal(t, tt.wantNPA, f.NPA)
			assert.Equal(t, tt.wantCommune, f.Commune)
		})
	}
}

// Repeated label blocks are not disambiguated: the first complete block
// wins even when a later one is cleaner.
func TestExtract_RepeatedLabelFirstBlockWins(t *testing.T) {
	got := Extract([]Page{page(1,
		"Libellé d'adresse :",
		"Case postale",
		"1870 Monthey",
		"Point de desserte",
		"Libellé d'adresse : av. du Simplon 4A",
		"1870 Monthey",
	)})

	require.True(t, got.Success)
	assert.Equal(t, "Case postale", got.Data.Address)
}

func TestExtract_LabelVariants(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"plain apostrophe", "Libellé d'adresse : Rue 1"},
		{"typographic apostrophe", "Libellé d’adresse : Rue 1"},
		{"no accent", "Libelle d'adresse : Rue 1"},
		{"upper case", "LIBELLÉ D'ADRESSE : Rue 1"},
		{"no space before colon", "Libellé d'adresse: Rue 1"},
		{"decomposed accent", "Libelle\u0301 d'adresse : Rue 1"},
		{"embedded in a longer line", "Réseau de raccordement : 69MOH/Los17 Libellé d'adresse : Rue 1 "},
		{"non-breaking space", "Libellé d'adresse\u00a0: Rue 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract([]Page{page(1, tt.line, "1870 Monthey")})
			require.True(t, got.Success, got.Error)
			assert.Equal(t, "Rue 1", got.Data.Address)
		})
	}
}

func TestExtract_Fallback(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		wantAddress string
		wantNPA     string
		wantCommune string
	}{
		{
			name:        "address found in lookback",
			lines:       []string{"Adresse de livraison", "Rue du Rhône 14", "1950 Sion"},
			wantAddress: "Rue du Rhône 14",
			wantNPA:     "1950",
			wantCommune: "Sion",
		},
		{
			name:        "earliest lookback line wins",
			lines:       []string{"Avenue de la Gare 2", "Rue du Rhône 14B", "1950 Sion"},
			wantAddress: "Avenue de la Gare 2",
			wantNPA:     "1950",
			wantCommune: "Sion",
		},
		{
			name:        "lookback limited to three lines",
			lines:       []string{"Avenue de la Gare 2", "a", "b", "c", "1950 Sion"},
			wantAddress: Unspecified,
			wantNPA:     "1950",
			wantCommune: "Sion",
		},
		{
			name:        "code embedded mid line",
			lines:       []string{"Lieu: 3960 Sierre-Est"},
			wantAddress: Unspecified,
			wantNPA:     "3960",
			wantCommune: "Sierre-Est",
		},
		{
			name:        "accented locality and six digits",
			lines:       []string{"Chemin 5", "zone 196500 Évolène"},
			wantAddress: "Chemin 5",
			wantNPA:     "1965",
			wantCommune: "Évolène",
		},
		{
			name:        "label without pair falls through to fallback",
			lines:       []string{"Libellé d'adresse :", "Chemin 5", "a", "b", "c", "d", "Ville: 1950 Sion"},
			wantAddress: Unspecified,
			wantNPA:     "1950",
			wantCommune: "Sion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract([]Page{page(3, tt.lines...)})
			require.True(t, got.Success, got.Error)
			assert.Equal(t, 3, got.Page)
			assert.Equal(t, Fields{Address: tt.wantAddress, NPA: tt.wantNPA, Commune: tt.wantCommune}, *got.Data)
		})
	}
}

func TestExtract_SkipsUnreadablePages(t *testing.T) {
	got := Extract([]Page{
		{Number: 1},
		page(2, "Notes diverses"),
		page(3, "Libellé d'adresse : av. du Simplon 4A", "1870 Monthey"),
		page(4, "Libellé d'adresse : Rue du Bourg 8", "1950 Sion"),
	})

	require.True(t, got.Success)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, "1870", got.Data.NPA)
}

func TestExtract_Idempotent(t *testing.T) {
	pages := []Page{page(1, "Libellé d'adresse :", "av. du Simplon 4A", "187000 Monthey")}
	engine := NewEngine(nil)

	first := engine.Extract(pages)
	second := engine.Extract(pages)

	assert.Equal(t, first, second)
	assert.Equal(t, "187000 Monthey", pages[0].Lines[2], "input must not be modified")
}

func TestFaulted(t *testing.T) {
	r := Faulted("index out of range")
	assert.False(t, r.Success)
	assert.Equal(t, "Erreur lors de l'extraction: index out of range", r.Error)
	assert.Nil(t, r.Data)
}

func TestSucceeded_DefaultsAddress(t *testing.T) {
	r := Succeeded(Fields{NPA: "1870", Commune: "Monthey"}, 2)
	require.NotNil(t, r.Data)
	assert.Equal(t, Unspecified, r.Data.Address)
	assert.Equal(t, 2, r.Page)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\r\nb\n"))
}
