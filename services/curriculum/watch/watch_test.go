// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe_KeepsLatestPerPath(t *testing.T) {
	now := time.Now()
	got := dedupe([]Change{
		{Path: "a.json", Op: OpCreate, Time: now},
		{Path: "b.json", Op: OpWrite, Time: now},
		{Path: "a.json", Op: OpWrite, Time: now.Add(time.Millisecond)},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "a.json", got[0].Path)
	assert.Equal(t, OpWrite, got[0].Op)
	assert.Equal(t, "b.json", got[1].Path)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "rename", OpRename.String())
	assert.Equal(t, "unknown", Op(99).String())
}

func TestWatcher_IsContent(t *testing.T) {
	w := &Watcher{opts: DefaultOptions()}
	assert.True(t, w.isContent("primary/week-01.json"))
	assert.True(t, w.isContent("primary/Week_02.YAML"))
	assert.False(t, w.isContent("primary/notes.md"))
	assert.True(t, w.ignoredDir(".git"))
	assert.True(t, w.ignoredDir(".cache"))
	assert.False(t, w.ignoredDir("primary"))
}

func TestWatcher_MissingRoot(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"), nil, Options{}, nil)
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "primary"), 0o755))
	path := filepath.Join(root, "primary", "week-01.json")

	var mu sync.Mutex
	var batches [][]Change
	fired := make(chan struct{}, 10)
	handler := func(_ context.Context, changes []Change) {
		mu.Lock()
		batches = append(batches, changes)
		mu.Unlock()
		fired <- struct{}{}
	}

	w, err := New(root, handler, Options{Debounce: 100 * time.Millisecond}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte(`[]`+string(rune('0'+i))), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "primary", "notes.md"), []byte("x"), 0o644))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("handler was not called")
	}

	w.Stop()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)
	require.Len(t, batches[0], 1, "repeated writes to one file collapse into one change")
	assert.Equal(t, path, batches[0][0].Path)
}
