package events

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDuration = 500 * time.Millisecond

// Watcher reports changes to the storage directory that happen outside the
// gateway, such as files copied in or removed by hand.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	hub     *Hub
}

// Watch starts watching dir. Events for names under the staging area are
// not reported; only the top-level directory is watched.
func Watch(dir string, hub *Hub) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("events: watching %s for external changes", dir)

	w := &Watcher{watcher: fw, done: make(chan struct{}), hub: hub}
	go w.loop(fw)
	return w, nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.watcher = nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	var (
		timer   *time.Timer
		pending string
	)
	fire := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			pending = filepath.Base(event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDuration, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.hub.Publish(KindChanged, pending)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("events: watcher error: %v", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) == ".staging" {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)
}
