// Package watcher reports changes to measurement CSV files.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-energy-report/internal/util"
)

// FileEvent is a change to a measurement file.
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher watches directory trees recursively and emits events for CSV files.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	paths     []string
	events    chan FileEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		paths:   paths,
		events:  make(chan FileEvent, 100),
		done:    make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New run directories must be watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addPath(event.Name); err != nil {
						util.LogWarnf("Failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !isCSV(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			select {
			case fw.events <- FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

// Batches groups events separated by less than quiet into one slice. The
// channel closes when ctx is done or the watcher is closed.
func (fw *FileWatcher) Batches(ctx context.Context, quiet time.Duration) <-chan []FileEvent {
	out := make(chan []FileEvent)
	go func() {
		defer close(out)

		var pending []FileEvent
		timer := time.NewTimer(quiet)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.events:
				if !ok {
					return
				}
				pending = append(pending, ev)
				timer.Reset(quiet)
			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				select {
				case out <- pending:
				case <-ctx.Done():
					return
				}
				pending = nil
			}
		}
	}()
	return out
}
