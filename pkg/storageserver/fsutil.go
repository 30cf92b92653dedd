package storageserver

import (
	"os"
	"path/filepath"
)

func dataPath(storageDir, filename string) string {
	return filepath.Join(storageDir, filename)
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func removeFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// writeFileAtomic overwrites storageDir/filename with data via
// create-then-rename, the same durability contract document.Save gives
// ordinary writes. Used by UNDO, which restores raw
// snapshot bytes rather than a re-serialised Document.
func writeFileAtomic(storageDir, filename string, data []byte) error {
	target := dataPath(storageDir, filename)
	tmp, err := os.CreateTemp(storageDir, filename+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, target)
}

// snapshotBeforeWrite copies the current on-disk bytes of filename to
// its .backup sidecar, overwriting any previous snapshot. Called once
// per WRITE session at open: at most one backup per file, created on
// write open, consulted by UNDO, never versioned.
func snapshotBeforeWrite(storageDir, filename string) error {
	data, err := os.ReadFile(dataPath(storageDir, filename))
	if os.IsNotExist(err) {
		data = nil
	} else if err != nil {
		return err
	}
	return os.WriteFile(backupPath(storageDir, filename), data, 0o644)
}
