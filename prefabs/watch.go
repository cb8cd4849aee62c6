package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const settleDelay = 100 * time.Millisecond

// Change is an edit to a spec or script file, reported once the file has
// been quiet for a short while.
type Change struct {
	Path   string
	Script bool
}

// Watcher reports edits to prefab specs and behavior scripts. Editors often
// write a file several times per save; those bursts collapse into one Change.
type Watcher struct {
	fs     *fsnotify.Watcher
	Events chan Change
	Errors chan error

	done chan struct{}
	once sync.Once
}

// NewWatcher watches dirs, or Dir and its scripts directory when none are
// given.
func NewWatcher(dirs ...string) (*Watcher, error) {
	if len(dirs) == 0 {
		dirs = []string{Dir, filepath.Join(Dir, "scripts")}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:     fw,
		Events: make(chan Change, 16),
		Errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.Events)
	defer close(w.Errors)

	pending := make(map[string]time.Time)
	timer := time.NewTimer(settleDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			if len(pending) == 0 {
				timer.Reset(settleDelay)
			}
			pending[ev.Name] = time.Now()
		case <-timer.C:
			if !w.flush(pending) {
				return
			}
			if len(pending) > 0 {
				timer.Reset(settleDelay)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// flush emits the files that have settled and keeps the rest pending. It
// reports false once the watcher is closed.
func (w *Watcher) flush(pending map[string]time.Time) bool {
	now := time.Now()
	for name, at := range pending {
		if now.Sub(at) < settleDelay {
			continue
		}
		delete(pending, name)
		select {
		case w.Events <- Change{Path: name, Script: isScriptFile(name)}:
		case <-w.done:
			return false
		}
	}
	return true
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return isSpecFile(ev.Name) || isScriptFile(ev.Name)
}

func isSpecFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tengo")
}
