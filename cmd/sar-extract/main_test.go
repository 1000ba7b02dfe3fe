package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfiber/sar-extractor/internal/pdf"
	"github.com/connectfiber/sar-extractor/internal/pdf/pdftest"
)

func writePDF(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pdftest.Build(lines), 0o644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	monthey := writePDF(t, dir, "monthey.pdf", "Libellé d'adresse : av. du Simplon 4A", "1870 Monthey")
	notes := writePDF(t, dir, "notes.pdf", "Notes diverses")
	missing := filepath.Join(dir, "missing.pdf")

	t.Run("mixed batch keeps argument order", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{notes, missing, monthey}, &stdout, &stderr)
		assert.Equal(t, exitOK, code, stderr.String())

		var batch pdf.BatchResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &batch))
		assert.Equal(t, 3, batch.Count)
		assert.Equal(t, 1, batch.SuccessCount)
		require.Len(t, batch.Results, 3)

		assert.Equal(t, "notes.pdf", batch.Results[0].FileName)
		assert.False(t, batch.Results[0].Success)
		assert.Equal(t, "missing.pdf", batch.Results[1].FileName)
		assert.Contains(t, batch.Results[1].Error, "Erreur lors de l'extraction: ")
		assert.Equal(t, "monthey.pdf", batch.Results[2].FileName)
		require.True(t, batch.Results[2].Success)
		assert.Equal(t, "1870", batch.Results[2].Data.NPA)
	})

	t.Run("nothing extracted", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{notes}, &stdout, &stderr)
		assert.Equal(t, exitNoAddress, code)
		assert.Contains(t, stdout.String(), `"success_count":0`)
	})

	t.Run("pretty output", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{"--pretty", "--workers", "2", monthey}, &stdout, &stderr)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout.String(), "\n  \"results\": [")
		assert.Contains(t, stdout.String(), `"address": "av. du Simplon 4A"`)
	})

	t.Run("verbose logs to stderr", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{"--verbose", monthey}, &stdout, &stderr)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stderr.String(), "file=monthey.pdf")
	})
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no files", args: nil, want: exitUsage},
		{name: "unknown flag", args: []string{"--bogus", "a.pdf"}, want: exitUsage},
		{name: "zero workers", args: []string{"--workers", "0", "a.pdf"}, want: exitUsage},
		{name: "help", args: []string{"--help"}, want: exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
			assert.Contains(t, stderr.String(), "sar-extract")
		})
	}
}
