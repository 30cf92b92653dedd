package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// Load reads filename from storageDir and parses it into a Document. A
// missing file is reported as a plain *os.PathError so callers can
// translate it into scerr.ErrNotFound with the right context.
func Load(storageDir, filename string) (*Document, error) {
	data, err := os.ReadFile(filepath.Join(storageDir, filename))
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

// Save writes doc's canonical serialisation to storageDir/filename.
// Writing to a temp file and renaming into place means a concurrent
// reader always sees either the previous or the new byte sequence,
// never a partial write. Callers are expected to already hold the
// per-filename mutex that serialises all mutation of this file.
func Save(storageDir, filename string, doc *Document) error {
	target := filepath.Join(storageDir, filename)
	tmp, err := os.CreateTemp(storageDir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("document: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(doc.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("document: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("document: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("document: rename into place: %w", err)
	}
	return nil
}
