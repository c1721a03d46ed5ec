package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parqedit/parqedit/utils"
)

// DiskStore resolves bare paths under DATA_DIR.
type DiskStore struct{}

func (ds *DiskStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(utils.DATA_DIR, path)
}

func (ds *DiskStore) Read(_ context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile(ds.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	return b, nil
}

// Write goes through a temp file and rename so a failed save never leaves a
// truncated file at the target path.
func (ds *DiskStore) Write(_ context.Context, path string, b []byte) error {
	target := ds.resolve(path)
	f, err := os.CreateTemp(filepath.Dir(target), ".parqedit-*")
	if err != nil {
		return fmt.Errorf("error in os.CreateTemp: %w", err)
	}
	tmpName := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error in os.Rename: %w", err)
	}
	return nil
}
