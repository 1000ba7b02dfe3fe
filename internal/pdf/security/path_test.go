package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathValidator(t *testing.T) {
	_, err := NewPathValidator("")
	assert.Error(t, err)

	v, err := NewPathValidator(".")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.GetConfiguredDirectory()))
}

func TestPathValidator_ValidatePath(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "sar", "doc.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0o750))
	require.NoError(t, os.WriteFile(inside, []byte("%PDF-1.4"), 0o600))

	outside := t.TempDir()

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file inside root", inside, false},
		{"root itself", root, false},
		{"missing file inside root", filepath.Join(root, "missing.pdf"), false},
		{"traversal", filepath.Join(root, "..", "etc", "passwd"), true},
		{"sibling directory", outside, true},
		{"empty path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPathValidator_Symlink(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pdf")
	require.NoError(t, os.WriteFile(target, []byte("%PDF-1.4"), 0o600))

	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	v, err := NewPathValidator(root)
	require.NoError(t, err)
	assert.Error(t, v.ValidatePath(link))
}

func TestPathValidator_Resolve(t *testing.T) {
	v, err := NewPathValidator("/srv/sar")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(v.GetConfiguredDirectory(), "a.pdf"), v.Resolve("a.pdf"))
	assert.Equal(t, "/tmp/b.pdf", v.Resolve("/tmp/../tmp/b.pdf"))
}
