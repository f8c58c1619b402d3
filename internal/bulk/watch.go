package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultSettle is how long Watch waits after the last write to a file
// before importing it, so a spreadsheet still being copied into the
// drop directory is not parsed half-written.
const defaultSettle = 2 * time.Second

// Watch runs imports from a drop directory: every spreadsheet file that
// appears is run through the pipeline once its writes settle. Non-
// spreadsheet files are ignored. Runs until ctx is canceled. onResult
// receives each run's outcome; it may be nil.
func (p *Pipeline) Watch(ctx context.Context, dir string, settle time.Duration, onResult func(string, *Result, error)) error {
	if settle <= 0 {
		settle = defaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("bulk: creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("bulk: watching %s: %w", dir, err)
	}

	p.logger.Info("watching drop directory", slog.String("dir", dir))

	// pending maps path -> settle deadline. A single coarse ticker is
	// plenty here; imports are occasional, not high-frequency.
	pending := make(map[string]time.Time)

	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(pending, event.Name)
				continue
			}

			// Chmod is noise here: file managers and scp touch modes
			// right after copying, which must not cancel the import.
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if !IsSpreadsheet(event.Name) {
				continue
			}

			pending[event.Name] = time.Now().Add(settle)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			p.logger.Warn("drop directory watcher error",
				slog.String("error", watchErr.Error()),
			)

		case now := <-ticker.C:
			for path, deadline := range pending {
				if now.Before(deadline) {
					continue
				}

				delete(pending, path)

				p.logger.Info("importing dropped spreadsheet",
					slog.String("file", filepath.Base(path)),
				)

				result, runErr := p.Run(ctx, path)
				if onResult != nil {
					onResult(path, result, runErr)
				}
			}
		}
	}
}
