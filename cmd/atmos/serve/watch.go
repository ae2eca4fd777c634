package servecmder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/ingest"
)

// corpusWatcher keeps the document corpus in sync with a directory of
// plain-text files. Files are ingested on startup and re-ingested on
// change; removed files are deleted from the corpus.
type corpusWatcher struct {
	dir      string
	ingestor *ingest.Ingestor
	logger   *zap.Logger
}

func newCorpusWatcher(dir string, ingestor *ingest.Ingestor, logger *zap.Logger) *corpusWatcher {
	return &corpusWatcher{
		dir:      dir,
		ingestor: ingestor,
		logger:   logger,
	}
}

// Run sweeps the directory once, then watches it until ctx is cancelled.
func (w *corpusWatcher) Run(ctx context.Context) error {
	if err := w.sweep(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching corpus dir: %w", err)
	}

	w.logger.Info("watching corpus directory", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events:
			if !isCorpusFile(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				if err := w.ingestFile(ctx, event.Name); err != nil {
					w.logger.Warn("ingesting changed file",
						zap.String("path", event.Name),
						zap.Error(err),
					)
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if err := w.ingestor.Delete(ctx, documentID(w.dir, event.Name)); err != nil {
					w.logger.Warn("deleting removed file",
						zap.String("path", event.Name),
						zap.Error(err),
					)
				}
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("corpus watcher error: %w", err)
		}
	}
}

// sweep ingests every corpus file already present in the directory.
func (w *corpusWatcher) sweep(ctx context.Context) error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isCorpusFile(path) {
			return nil
		}

		if err := w.ingestFile(ctx, path); err != nil {
			w.logger.Warn("ingesting existing file",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return nil
	})
}

func (w *corpusWatcher) ingestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	doc := document.Document{
		ID:   documentID(w.dir, path),
		Text: string(data),
		Metadata: document.Metadata{
			Source:    path,
			Timestamp: time.Now().UTC(),
			MimeType:  "text/plain",
		},
	}

	chunks, err := w.ingestor.Ingest(ctx, doc)
	if err != nil {
		return err
	}

	w.logger.Info("ingested file",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

func isCorpusFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// documentID derives a stable ID from the file's path relative to the
// watched directory, so renames outside the directory don't collide.
func documentID(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
