package slot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSlot はキーごとに <dir>/<key>.json へ保存する。
type FileSlot struct {
	dir string
}

func NewFileSlot(dir string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}
	return &FileSlot{dir: dir}, nil
}

func (s *FileSlot) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileSlot) Read(key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return data, true, nil
}

// Write は一時ファイルに書いてからrenameする（途中で落ちても半端なファイルを残さない）。
func (s *FileSlot) Write(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync slot %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close slot %q: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename slot %q: %w", key, err)
	}
	return nil
}
