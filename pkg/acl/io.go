package acl

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/scriptoria/scriptoria/pkg/scerr"
)

// Load populates t from path's persisted cache. A missing cache file is
// not an error — a fresh name node simply starts with an empty table.
func Load(path string) (*Table, error) {
	t := New()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("acl: open cache: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := t.loadLine(line); err != nil {
			return nil, fmt.Errorf("acl: parse cache line %q: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("acl: read cache: %w", err)
	}
	return t, nil
}

func (t *Table) loadLine(line string) error {
	fields := strings.SplitN(line, "|", 3)
	if len(fields) < 2 {
		return scerr.New(scerr.ErrMissingField, "expected filename|owner|grants")
	}
	filename, owner := fields[0], fields[1]
	if err := t.Add(filename, owner); err != nil {
		return err
	}

	if len(fields) < 3 || fields[2] == "" {
		return nil
	}
	for _, pair := range strings.Split(fields[2], ",") {
		userLevel := strings.SplitN(pair, ":", 2)
		if len(userLevel) != 2 {
			return scerr.New(scerr.ErrMissingField, "expected user:level in %q", pair)
		}
		level, err := ParseLevel(userLevel[1])
		if err != nil {
			return err
		}
		t.entries[filename].Grants[userLevel[0]] = level
	}
	return nil
}

// Save writes t's full table to path as one line per file, overwriting
// any previous cache. Called on clean shutdown.
func (t *Table) Save(path string) error {
	lines := t.Snapshot()
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("acl: write cache: %w", err)
	}
	return nil
}
