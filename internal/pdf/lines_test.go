package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfiber/sar-extractor/internal/pdf/pdftest"
)

func TestRowLineExtractor_ExtractLines(t *testing.T) {
	data := pdftest.Build(
		[]string{"Réseau de raccordement : 69MOH/Los17", "Libellé d’adresse :", "av. du Simplon 4A", "1870 Monthey"},
		nil,
		[]string{"Notes (diverses)"},
	)

	pages, err := NewRowLineExtractor().ExtractLines(data)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, []string{
		"Réseau de raccordement : 69MOH/Los17",
		"Libellé d’adresse :",
		"av. du Simplon 4A",
		"1870 Monthey",
	}, pages[0].Lines)

	assert.Equal(t, 2, pages[1].Number)
	assert.False(t, pages[1].Readable())

	assert.Equal(t, []string{"Notes (diverses)"}, pages[2].Lines)
}

func TestRowLineExtractor_InvalidData(t *testing.T) {
	_, err := NewRowLineExtractor().ExtractLines([]byte("%PDF-1.4 not really"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestJoinRow(t *testing.T) {
	tests := []struct {
		name  string
		texts []pdf.Text
		want  string
	}{
		{
			name:  "single run",
			texts: []pdf.Text{{S: "1870 Monthey", X: 10}},
			want:  "1870 Monthey",
		},
		{
			name: "separated runs get a space",
			texts: []pdf.Text{
				{S: "1870", X: 10, W: 20, FontSize: 10},
				{S: "Monthey", X: 34, W: 35, FontSize: 10},
			},
			want: "1870 Monthey",
		},
		{
			name: "adjacent glyphs are joined",
			texts: []pdf.Text{
				{S: "S", X: 10, W: 5, FontSize: 10},
				{S: "i", X: 15, W: 2, FontSize: 10},
				{S: "on", X: 17, W: 10, FontSize: 10},
			},
			want: "Sion",
		},
		{
			name: "explicit space is kept once",
			texts: []pdf.Text{
				{S: "Libellé ", X: 10, W: 40, FontSize: 10},
				{S: "d'adresse", X: 80, W: 40, FontSize: 10},
			},
			want: "Libellé d'adresse",
		},
		{
			name: "width estimated when missing",
			texts: []pdf.Text{
				{S: "av.", X: 0},
				{S: "du", X: 40},
			},
			want: "av. du",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinRow(tt.texts))
		})
	}
}

func TestAppendLine(t *testing.T) {
	var lines []string
	lines = appendLine(lines, "Libellé d'adresse :")
	lines = appendLine(lines, "   ")
	lines = appendLine(lines, "  Rue 1  ")
	assert.Equal(t, []string{"Libellé d'adresse :", "", "  Rue 1"}, lines)
}

func TestTextOrNil(t *testing.T) {
	assert.Nil(t, textOrNil(nil))
	assert.Nil(t, textOrNil([]string{"", "  ", "\t"}))
	assert.Equal(t, []string{"", "1870 Monthey"}, textOrNil([]string{"", "1870 Monthey"}))
}
