// Package filewatch следит за одним файлом и сообщает об изменениях его содержимого.
package filewatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"nicenote/pkg/logger"
)

// Константы ошибок и сообщений.
const (
	ErrCreateWatcher = "failed to create watcher"
	ErrWatchDir      = "failed to watch directory"
	ErrReadFile      = "failed to read watched file"

	LogWatchStarted = "watching file"
	LogWatchError   = "watcher error"
	LogFileChanged  = "watched file changed"
)

// Watcher следит за каталогом файла, а не за самим файлом: редакторы часто
// сохраняют через rename, и прямой watch теряется после первой записи.
type Watcher struct {
	path    string
	last    string
	watcher *fsnotify.Watcher
}

// New открывает watcher. Начальное содержимое считается уже известным.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrCreateWatcher, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s: %w", ErrWatchDir, err)
	}

	fw := &Watcher{path: abs, watcher: w}
	if data, err := os.ReadFile(abs); err == nil {
		fw.last = string(data)
	}
	return fw, nil
}

// Path возвращает абсолютный путь наблюдаемого файла.
func (w *Watcher) Path() string { return w.path }

// Run вызывает onChange с новым содержимым, пока ctx не отменён или watcher не закрыт.
func (w *Watcher) Run(ctx context.Context, onChange func(content string)) error {
	log := logger.Log(ctx).With(zap.String("method", "Watcher.Run"), zap.String("path", w.path))
	log.Debug(ctx, LogWatchStarted)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			content, changed, err := w.read()
			if err != nil {
				log.Warn(ctx, ErrReadFile, zap.Error(err))
				continue
			}
			if changed {
				log.Debug(ctx, LogFileChanged, zap.Int("bytes", len(content)))
				onChange(content)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, LogWatchError, zap.Error(err))
		}
	}
}

// Close освобождает watcher; Run после этого завершается.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) read() (string, bool, error) {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		// промежуточное состояние atomic save
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	content := string(data)
	if content == w.last {
		return content, false, nil
	}
	w.last = content
	return content, true, nil
}
