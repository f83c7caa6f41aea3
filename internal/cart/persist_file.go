package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot stores the snapshot as one JSON file, overwritten in full on
// every save. Writes go through a temp file and rename so a crash mid-write
// leaves the previous snapshot intact.
type FileSlot struct {
	path string
}

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

func (f *FileSlot) Load(_ context.Context) ([]LineItem, bool, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cart snapshot %s: %w", f.path, err)
	}
	return items, true, nil
}

func (f *FileSlot) Save(_ context.Context, items []LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileSlot) Ping(_ context.Context) error {
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("cart snapshot dir %s: %w", dir, err)
	}
	return nil
}
