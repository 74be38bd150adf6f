// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lazyload defers a cache read until the consuming element is
// about to become visible. One Loader serves one UI element; the element's
// visibility source (an intersection observer or equivalent) drives it
// through OnVisible.
package lazyload

import (
	"context"
	"sync"

	"github.com/fawa-io/mediavault/pkg/cache"
)

// State of the per-target machine.
type State int

const (
	StateIdle State = iota
	StateObserving
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateObserving:
		return "observing"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultRootMarginPx is the lead margin handed to the visibility source
// so loading begins slightly before the element scrolls into view.
const DefaultRootMarginPx = 50

// Fetcher resolves a content id to a handle, normally the memory cache's
// GetOrLoad bound to the durable store.
type Fetcher func(ctx context.Context, id string) (*cache.Handle, error)

// Options configures one Loader.
type Options struct {
	// RootMarginPx is advisory metadata for the visibility source.
	// Zero selects DefaultRootMarginPx.
	RootMarginPx int
	// Threshold is the intersection ratio the visibility source should
	// report at, also advisory.
	Threshold float64
	// HighPriority starts the load immediately, bypassing Observing.
	HighPriority bool
	// Disabled parks the machine in Idle until SetEnabled(true).
	Disabled bool
}

// Snapshot is the externally visible state of a Loader.
type Snapshot struct {
	Target  string
	State   State
	URL     string
	Err     error
	Visible bool
}

// Loader is the per-target state machine:
// Idle -> Observing -> Loading -> {Loaded | Failed}, reset to Idle when the
// target changes. A result arriving after the target changed is discarded;
// the guard is keyed by target id, which suffices because the cache already
// guarantees at most one load per id.
type Loader struct {
	fetch Fetcher
	opts  Options

	mu       sync.Mutex
	target   string
	state    State
	handle   *cache.Handle
	err      error
	visible  bool
	enabled  bool
	closed   bool
	onChange func(Snapshot)
}

// New creates a Loader in Idle.
func New(fetch Fetcher, opts Options) *Loader {
	if opts.RootMarginPx <= 0 {
		opts.RootMarginPx = DefaultRootMarginPx
	}
	return &Loader{
		fetch:   fetch,
		opts:    opts,
		state:   StateIdle,
		enabled: !opts.Disabled,
	}
}

// RootMarginPx reports the lead margin the visibility source should use.
func (l *Loader) RootMarginPx() int {
	return l.opts.RootMarginPx
}

// Threshold reports the advisory intersection threshold.
func (l *Loader) Threshold() float64 {
	return l.opts.Threshold
}

// OnChange registers a callback invoked after every state change. The
// callback runs without the loader lock held.
func (l *Loader) OnChange(fn func(Snapshot)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// SetTarget points the machine at a new content id. Any in-flight result
// for the previous target will be discarded. With an empty id the machine
// stays Idle.
func (l *Loader) SetTarget(id string) {
	l.mu.Lock()
	if l.closed || l.target == id {
		l.mu.Unlock()
		return
	}
	l.target = id
	l.handle = nil
	l.err = nil
	l.visible = false
	l.state = StateIdle
	l.armLocked()
	notify := l.notifierLocked()
	l.mu.Unlock()
	notify()
}

// SetEnabled turns lazy loading on or off. Enabling with a pending target
// re-arms the machine.
func (l *Loader) SetEnabled(enabled bool) {
	l.mu.Lock()
	if l.closed || l.enabled == enabled {
		l.mu.Unlock()
		return
	}
	l.enabled = enabled
	if enabled && l.state == StateIdle {
		l.armLocked()
	}
	notify := l.notifierLocked()
	l.mu.Unlock()
	notify()
}

// OnVisible is called by the visibility source when the element
// intersects the viewport. Only the first call after arming transitions
// Observing -> Loading; later calls just record visibility.
func (l *Loader) OnVisible() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.visible = true
	if l.state != StateObserving {
		l.mu.Unlock()
		return
	}
	l.startLoadLocked()
	notify := l.notifierLocked()
	l.mu.Unlock()
	notify()
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Close tears the machine down. It stops observing and guarantees no
// further state changes; an in-flight fetch is left to finish on its own
// and its result is dropped.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// armLocked moves Idle to Observing (or straight to Loading for
// high-priority requests) when a target is present and loading is enabled.
func (l *Loader) armLocked() {
	if l.target == "" || !l.enabled || l.state != StateIdle {
		return
	}
	if l.opts.HighPriority {
		l.startLoadLocked()
		return
	}
	l.state = StateObserving
}

// startLoadLocked fires the fetch for the current target. The result is
// applied only if the target is unchanged and the loader is still open.
func (l *Loader) startLoadLocked() {
	l.state = StateLoading
	target := l.target

	go func() {
		h, err := l.fetch(context.Background(), target)

		l.mu.Lock()
		if l.closed || l.target != target || l.state != StateLoading {
			l.mu.Unlock()
			return
		}
		if err != nil || h == nil {
			l.state = StateFailed
			l.err = err
		} else {
			l.state = StateLoaded
			l.handle = h
		}
		notify := l.notifierLocked()
		l.mu.Unlock()
		notify()
	}()
}

func (l *Loader) snapshotLocked() Snapshot {
	snap := Snapshot{
		Target:  l.target,
		State:   l.state,
		Err:     l.err,
		Visible: l.visible,
	}
	if l.handle != nil {
		snap.URL = l.handle.URL
	}
	return snap
}

func (l *Loader) notifierLocked() func() {
	fn := l.onChange
	if fn == nil {
		return func() {}
	}
	snap := l.snapshotLocked()
	return func() { fn(snap) }
}
