package goodvibes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/integration/claude"
)

const defaultDebounce = 500 * time.Millisecond

// TranscriptWatcher reports transcripts that were written under the projects
// directory. Bursts of writes are collapsed into one callback.
type TranscriptWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	log      zerolog.Logger
}

// NewTranscriptWatcher watches root and its project subdirectories.
func NewTranscriptWatcher(root string) (*TranscriptWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &TranscriptWatcher{
		watcher:  watcher,
		root:     root,
		debounce: defaultDebounce,
		log:      logging.Component("watcher"),
	}

	if err := w.addTree(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange with the transcripts written
// during each debounce window.
func (w *TranscriptWatcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer func() { _ = w.watcher.Close() }()

	changed := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Debug().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}

			if !claude.IsTranscriptFile(event.Name) || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			changed[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(changed) == 0 {
				continue
			}
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(changed)

			w.log.Debug().Int("files", len(paths)).Msg("transcripts changed")
			onChange(paths)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// addTree watches dir and its immediate project subdirectories. Transcripts
// live one level below the root, so deeper directories are ignored.
func (w *TranscriptWatcher) addTree(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if filepath.Clean(dir) != filepath.Clean(w.root) {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := w.watcher.Add(p); err != nil {
			w.log.Debug().Err(err).Str("dir", p).Msg("skipping project directory")
		}
	}
	return nil
}
