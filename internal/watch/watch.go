// Package watch runs the pipeline over workbooks dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"uninames/internal/pipeline"
)

// settleDelay lets exporters finish writing before a file is processed.
const settleDelay = 2 * time.Second

// Watcher processes files appearing in a drop directory.
type Watcher struct {
	proc   *pipeline.Processor
	log    *zap.Logger
	outDir string
}

// New builds a Watcher writing results into outDir.
func New(proc *pipeline.Processor, outDir string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{proc: proc, log: logger, outDir: outDir}
}

// Run watches dir until the context is canceled. Newly created or renamed
// .xlsx/.csv files are debounced and run through the pipeline.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}
	w.log.Info("watching directory", zap.String("dir", dir), zap.String("out", w.outDir))

	pending := make(map[string]time.Time)
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.eligible(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-tick.C:
			now := time.Now()
			for path, seen := range pending {
				if now.Sub(seen) < settleDelay {
					continue
				}
				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

// eligible filters out office temp files and our own outputs.
func (w *Watcher) eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	if strings.Contains(base, "_cleaned") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

func (w *Watcher) process(ctx context.Context, path string) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	out := filepath.Join(w.outDir, stem+"_cleaned.xlsx")

	w.log.Info("processing dropped file", zap.String("input", path), zap.String("output", out))
	stats, err := w.proc.Run(ctx, pipeline.Request{InputPath: path, OutputPath: out})
	if err != nil {
		w.log.Error("processing failed", zap.String("input", path), zap.Error(err))
		return
	}
	w.log.Info("file processed",
		zap.String("input", path),
		zap.Int("persons", stats.Persons),
		zap.Int("facilities", stats.Facilities),
		zap.Duration("elapsed", stats.Elapsed))
}
