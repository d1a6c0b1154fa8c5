package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ImportFlavors maps an import name to the flavor name it should use.
// It is the "already agreed-upon outcome" of rule parsing that the
// security layer's Sec.Adapt path consumes (spec section 1: "Rule
// parsing and configuration storage; we take the outcome as an input").
type ImportFlavors map[string]string

// RuleWatcher watches a flavor-rule file and invokes a callback with
// the freshly parsed import-to-flavor map whenever the file changes.
// It mirrors the teacher's policy file watcher: a single background
// goroutine draining one fsnotify.Watcher, debounced by relying on the
// OS to coalesce rapid writes into one or more Write events that all
// produce the same resulting map.
type RuleWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	onChange func(ImportFlavors)

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
}

// NewRuleWatcher creates a watcher for path. It does not start watching
// until Start is called.
func NewRuleWatcher(path string, onChange func(ImportFlavors)) (*RuleWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config: rule watcher requires a non-empty path")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create file watcher: %w", err)
	}

	return &RuleWatcher{
		path:    path,
		watcher: w,
		onChange: onChange,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the configured file in a background goroutine.
// It performs one initial parse-and-callback synchronously so the
// first flavor set is available before Start returns.
func (w *RuleWatcher) Start() error {
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("config: failed to watch %q: %w", w.path, err)
	}

	if flavors, err := ParseRuleFile(w.path); err == nil {
		w.onChange(flavors)
	}

	go w.loop()
	return nil
}

func (w *RuleWatcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			flavors, err := ParseRuleFile(w.path)
			if err != nil {
				slog.Warn("config: failed to reparse rule file after change", "path", w.path, "error", err)
				continue
			}
			w.onChange(flavors)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: rule file watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *RuleWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.watcher.Close()
}

// ParseRuleFile parses a flat "import = flavor" rule file, one binding
// per line, blank lines and '#'-prefixed comments ignored. This is
// intentionally a minimal, dependency-free format: the spec places
// rule-language parsing out of scope, so the format only needs to be
// expressive enough to hand the security layer an outcome to apply.
func ParseRuleFile(path string) (ImportFlavors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read rule file %q: %w", path, err)
	}

	flavors := make(ImportFlavors)
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("config: rule file %q line %d: expected \"import = flavor\"", path, lineNo+1)
		}
		name := strings.TrimSpace(parts[0])
		flavor := strings.TrimSpace(parts[1])
		if name == "" || flavor == "" {
			return nil, fmt.Errorf("config: rule file %q line %d: empty import or flavor", path, lineNo+1)
		}
		flavors[name] = flavor
	}

	return flavors, nil
}
