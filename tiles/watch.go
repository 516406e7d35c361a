package tiles

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is one tile file change. Removed distinguishes a deleted or
// renamed-away file from a written or created one, so a consumer can retire
// the tile instead of re-reading it.
type Event struct {
	Path    string
	Name    string
	Removed bool
}

// Watcher reports changes to tile imagery on disk so an open editor can
// refresh its library without restarting. Writes and creates are debounced
// (editors often emit several writes per save); removals pass straight
// through.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Event
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan Event, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isTileFile(event.Name) {
				continue
			}
			out := Event{Path: event.Name, Name: filepath.Base(event.Name)}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				out.Removed = true
				delete(last, event.Name)
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				now := time.Now()
				if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
					continue
				}
				last[event.Name] = now
			default:
				continue
			}
			w.Events <- out
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Errors <- err
		case <-w.closeCh:
			return
		}
	}
}
