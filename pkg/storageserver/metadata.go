package storageserver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Metadata is a file's storage-node-local bookkeeping record, persisted
// as a small JSON sidecar file carrying the fields the name node's file
// entry needs plus the storage node's own copy: size/word/char/sentence
// counts and the three timestamps its persisted-state record requires.
// JSON via encoding/json is the one ambient concern left on the
// standard library here: the concrete on-disk encoding is otherwise
// unconstrained, and there is no store-backend-specific format to
// reuse for a local sidecar file — see DESIGN.md.
type Metadata struct {
	Filename   string    `json:"filename"`
	Owner      string    `json:"owner"`
	Size       int       `json:"size"`
	Words      int       `json:"words"`
	Chars      int       `json:"chars"`
	Sentences  int       `json:"sentences"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

const metaSuffix = ".meta"

func metaPath(storageDir, filename string) string {
	return filepath.Join(storageDir, filename+metaSuffix)
}

func backupPath(storageDir, filename string) string {
	return filepath.Join(storageDir, filename+".backup")
}

// loadMetadata reads filename's sidecar metadata file.
func loadMetadata(storageDir, filename string) (*Metadata, error) {
	data, err := os.ReadFile(metaPath(storageDir, filename))
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveMetadata writes m to its sidecar file, overwriting any previous
// content. Callers are expected to already hold the per-filename mutex.
func saveMetadata(storageDir string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath(storageDir, m.Filename), data, 0o644)
}

func removeMetadata(storageDir, filename string) error {
	err := os.Remove(metaPath(storageDir, filename))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
