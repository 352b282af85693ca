package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iudanet/confsync/internal/models"
)

// DirStore хранит объекты файлами в каталоге. Подходит для общей папки,
// которую синхронизирует сторонний сервис (Dropbox, Syncthing, NFS).
type DirStore struct {
	baseDir string
}

// NewDirStore создает хранилище в каталоге baseDir.
func NewDirStore(baseDir string) (*DirStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	return &DirStore{baseDir: filepath.Clean(absDir)}, nil
}

// BaseDir returns the absolute root directory.
func (d *DirStore) BaseDir() string {
	return d.baseDir
}

// safePath не дает ключу выйти за пределы baseDir
func (d *DirStore) safePath(key string) (string, error) {
	resolved := filepath.Clean(filepath.Join(d.baseDir, filepath.FromSlash(key)))
	if resolved != d.baseDir && !strings.HasPrefix(resolved, d.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid key %q: path traversal attempt detected", key)
	}
	return resolved, nil
}

// Get читает файл объекта.
func (d *DirStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := d.safePath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, models.ErrNotFound
	}
	return data, err
}

// Put записывает объект атомарно: во временный файл, затем rename.
// Читатель никогда не увидит частично записанный объект.
func (d *DirStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := d.safePath(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return os.Rename(tmpName, path)
}

// Delete удаляет файл объекта.
func (d *DirStore) Delete(ctx context.Context, key string) error {
	path, err := d.safePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List возвращает ключи файлов под префиксом. Временные файлы пропускаются.
func (d *DirStore) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath, err := d.safePath(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = filepath.WalkDir(searchPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".tmp-") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(d.baseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}
