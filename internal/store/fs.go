package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FS — хранилище артефактов на локальной файловой системе.
type FS struct {
	dir string
}

// NewFS создаёт FS-хранилище, при необходимости создавая каталог.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FS{dir: dir}, nil
}

// Exists проверяет наличие файла.
func (s *FS) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.Location(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

// Write сохраняет артефакт, перезаписывая существующий файл.
// Пишем во временный файл и переименовываем, чтобы конкурентный
// читатель не увидел полузаписанный PDF.
func (s *FS) Write(_ context.Context, key string, data []byte) (string, error) {
	path := s.Location(key)

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w", key, err)
	}

	return path, nil
}

// Open открывает артефакт на чтение.
func (s *FS) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.Location(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// Location возвращает путь артефакта на диске.
func (s *FS) Location(key string) string {
	return filepath.Join(s.dir, key)
}
