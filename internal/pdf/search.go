package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search discovers PDF files under a directory
type Search struct {
	validator *Validator
	maxFiles  int
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64, maxFiles int) *Search {
	return &Search{
		validator: NewValidator(maxFileSize),
		maxFiles:  maxFiles,
	}
}

// FindPDFs walks directory and returns the PDF files it contains, sorted
// by path. Files rejected by the validator (empty, too large) are skipped.
func (s *Search) FindPDFs(directory string) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	info, err := os.Stat(directory)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", directory)
	}

	var files []FileInfo
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() && path != directory {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != directory && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			return nil
		}
		if s.validator.ValidateFileInfo(path, fileInfo) != nil {
			return nil
		}

		files = append(files, FileInfo{Path: path, Name: d.Name(), Size: fileInfo.Size()})
		if s.maxFiles > 0 && len(files) >= s.maxFiles {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
