// Package watch triggers rebuilds when source files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
	"github.com/notname9390/lol/pkg/utils"
)

// DefaultSettlingDelay is how long a burst of file events must stay
// quiet before a rebuild fires.
const DefaultSettlingDelay = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Languages restricts which source languages trigger rebuilds.
	// Empty means every known language.
	Languages []types.Language

	// IgnorePatterns are glob patterns for paths that never trigger.
	IgnorePatterns []string

	// SettlingDelay overrides DefaultSettlingDelay when positive.
	SettlingDelay time.Duration
}

// Watcher watches a directory tree and coalesces source file changes
// into rebuild triggers.
type Watcher struct {
	root     string
	registry *toolchain.Registry
	log      logger.Logger
	settling time.Duration
	ignore   *utils.PatternMatcher
	selected map[types.Language]bool

	fs      *fsnotify.Watcher
	trigger chan struct{}

	mu      sync.Mutex
	pending map[string]time.Time
	settled map[string]struct{}
}

// New creates a watcher rooted at the given directory. Call Start to
// begin receiving triggers.
func New(root string, registry *toolchain.Registry, log logger.Logger, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	ignore, err := utils.NewPatternMatcher(opts.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	selected := make(map[types.Language]bool, len(opts.Languages))
	for _, lang := range opts.Languages {
		selected[lang] = true
	}

	settling := opts.SettlingDelay
	if settling <= 0 {
		settling = DefaultSettlingDelay
	}

	return &Watcher{
		root:     abs,
		registry: registry,
		log:      log.WithScope("watch"),
		settling: settling,
		ignore:   ignore,
		selected: selected,
		fs:       fs,
		trigger:  make(chan struct{}, 1),
		pending:  make(map[string]time.Time),
		settled:  make(map[string]struct{}),
	}, nil
}

// Start registers the directory tree and begins processing events in
// the background until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	go w.processEvents(ctx)

	w.log.Info(fmt.Sprintf("Watching %s for changes", w.root))
	return nil
}

// Trigger fires once per settled burst of changes. Drain the changed
// paths with TakeChanges.
func (w *Watcher) Trigger() <-chan struct{} {
	return w.trigger
}

// TakeChanges returns the settled change set, sorted, and clears it.
func (w *Watcher) TakeChanges() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.settled))
	for rel := range w.settled {
		paths = append(paths, rel)
	}
	w.settled = make(map[string]struct{})
	sort.Strings(paths)
	return paths
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Private methods

// addTree watches dir and every non-hidden, non-ignored subdirectory.
func (w *Watcher) addTree(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if w.excludedDir(sub) {
			continue
		}
		if err := w.addTree(sub); err != nil {
			w.log.Warn(fmt.Sprintf("Failed to watch %s: %v", sub, err))
		}
	}

	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error(fmt.Sprintf("Watcher error: %v", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Chmod-only events fire on every editor save path; builds only
	// care about content changes.
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if hasHiddenSegment(rel) || w.ignore.Match(rel) {
		return
	}

	// New directories must be watched before their contents change.
	// Symlinked directories stay unwatched, matching discovery.
	if event.Op&fsnotify.Create == fsnotify.Create && !utils.IsSymlink(event.Name) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn(fmt.Sprintf("Failed to watch %s: %v", event.Name, err))
			}
			return
		}
	}

	lang, ok := w.registry.ForExtension(filepath.Ext(event.Name))
	if !ok {
		return
	}
	if len(w.selected) > 0 && !w.selected[lang] {
		return
	}

	w.noteChange(rel)
}

// noteChange records the event and schedules a settle check. A path
// only fires once no further events have touched it for the settling
// delay, so rapid save bursts collapse into one trigger.
func (w *Watcher) noteChange(rel string) {
	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.mu.Unlock()

	time.AfterFunc(w.settling, func() {
		w.maybeFire(rel)
	})
}

func (w *Watcher) maybeFire(rel string) {
	w.mu.Lock()
	last, exists := w.pending[rel]
	if !exists || time.Since(last) < w.settling {
		// A newer event rescheduled its own check.
		w.mu.Unlock()
		return
	}
	delete(w.pending, rel)
	w.settled[rel] = struct{}{}
	w.mu.Unlock()

	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) excludedDir(dir string) bool {
	rel, err := filepath.Rel(w.root, dir)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	return hasHiddenSegment(rel) || w.ignore.Match(rel)
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
