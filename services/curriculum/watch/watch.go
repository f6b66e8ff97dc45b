// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs validation when lesson content changes on disk.
//
// Changes are batched with a debounce window, so saving a week file from
// an editor (often several write events) triggers a single re-run.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the type of a file change.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

// String returns the lowercase operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one content file event.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Handler receives each debounced batch. It is called from one goroutine,
// so a slow handler delays the next batch rather than overlapping it.
type Handler func(ctx context.Context, changes []Change)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the tree must be quiet before a batch fires.
	Debounce time.Duration

	// Extensions are the file suffixes that count as content.
	Extensions []string

	// IgnoreDirs are directory names never descended into.
	IgnoreDirs []string

	// BufferSize bounds pending events between reader and debouncer.
	BufferSize int
}

// DefaultOptions returns the options used by the watch command.
func DefaultOptions() Options {
	return Options{
		Debounce:   500 * time.Millisecond,
		Extensions: []string{".json", ".yaml", ".yml"},
		IgnoreDirs: []string{".git", "node_modules", ".idea"},
		BufferSize: 1000,
	}
}

// Watcher watches a content root recursively.
//
// Thread Safety: Run may be called once. Stop is safe from any goroutine.
type Watcher struct {
	root    string
	opts    Options
	handler Handler
	logger  *slog.Logger
	fsw     *fsnotify.Watcher

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher for root. A nil logger discards output.
func New(root string, handler Handler, opts Options, logger *slog.Logger) (*Watcher, error) {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = def.Extensions
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = def.BufferSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:    root,
		opts:    opts,
		handler: handler,
		logger:  logger.With(slog.String("component", "watch")),
		fsw:     fsw,
		changes: make(chan Change, opts.BufferSize),
		done:    make(chan struct{}),
	}, nil
}

// Run watches until ctx is cancelled or Stop is called. Pending changes
// are flushed to the handler before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		w.Stop()
		return err
	}
	w.logger.Info("watching content", slog.String("root", w.root), slog.Duration("debounce", w.opts.Debounce))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processEvents(ctx)
	}()
	w.debounceLoop(ctx)
	w.Stop()
	wg.Wait()
	return nil
}

// Stop ends watching.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) ignoredDir(name string) bool {
	for _, ignored := range w.opts.IgnoreDirs {
		if name == ignored {
			return true
		}
	}
	return strings.HasPrefix(name, ".")
}

func (w *Watcher) isContent(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// New level directories must be watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.ignoredDir(info.Name()) {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !w.isContent(event.Name) {
				continue
			}
			select {
			case w.changes <- Change{Path: event.Name, Op: convertOp(event.Op), Time: time.Now()}:
			default:
				w.logger.Warn("change buffer full, dropping event", slog.String("path", event.Name))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func(ctx context.Context) {
		if len(batch) > 0 && w.handler != nil {
			w.handler(ctx, dedupe(batch))
		}
		batch = batch[:0]
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			flush(ctx)
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}
		case <-timerC:
			flush(ctx)
		}
	}
}

// dedupe keeps the latest change per path, in first-seen order.
func dedupe(changes []Change) []Change {
	seen := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if i, ok := seen[c.Path]; ok {
			out[i] = c
			continue
		}
		seen[c.Path] = len(out)
		out = append(out, c)
	}
	return out
}
