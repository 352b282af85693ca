package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher следит за каталогом DirStore и сообщает о новых объектах других
// устройств. Используется командой watch, чтобы запускать цикл синхронизации
// сразу после того, как сторонний сервис доставил файл.
type Watcher struct {
	logger   *slog.Logger
	baseDir  string
	deviceID string
	debounce time.Duration
}

// NewWatcher создает наблюдатель. События собственного лога deviceID
// игнорируются.
func NewWatcher(store *DirStore, deviceID string, logger *slog.Logger) *Watcher {
	return &Watcher{
		logger:   logger,
		baseDir:  store.BaseDir(),
		deviceID: deviceID,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce задает окно объединения событий.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run блокируется до отмены ctx, вызывая onChange после серии изменений.
// fsnotify не рекурсивен, поэтому каталоги устройств добавляются по мере
// появления.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	opsDir := filepath.Join(w.baseDir, filepath.FromSlash(strings.TrimSuffix(opsPrefix, "/")))
	if err := os.MkdirAll(opsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create ops directory: %w", err)
	}

	for _, dir := range []string{w.baseDir, opsDir} {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	entries, err := os.ReadDir(opsDir)
	if err != nil {
		return fmt.Errorf("failed to read ops directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.watchDevice(fw, filepath.Join(opsDir, entry.Name()))
		}
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.relevant(fw, opsDir, event) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			onChange()
		}
	}
}

func (w *Watcher) watchDevice(fw *fsnotify.Watcher, dir string) {
	if filepath.Base(dir) == w.deviceID {
		return
	}
	if err := fw.Add(dir); err != nil {
		w.logger.Warn("failed to watch device directory", "dir", dir, "error", err)
	}
}

// relevant фильтрует события: временные файлы, собственный лог и удаления
// не запускают синхронизацию
func (w *Watcher) relevant(fw *fsnotify.Watcher, opsDir string, event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".tmp-") {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}

	// новый каталог устройства
	if filepath.Dir(event.Name) == opsDir {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchDevice(fw, event.Name)
			return name != w.deviceID
		}
	}

	if filepath.Base(filepath.Dir(event.Name)) == w.deviceID {
		return false
	}
	return true
}
