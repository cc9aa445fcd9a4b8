package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const headSize = 256

// EventType says how a watched file changed
type EventType string

const (
	EventReloaded EventType = "reloaded" // Records replaces the whole list
	EventAppended EventType = "appended" // Records extends the list
)

// WatchEvent carries records read after a file change
type WatchEvent struct {
	Type    EventType
	Path    string
	Records []Record
}

// Watcher reloads an items file when it changes on disk.
// Line-oriented files that only grew are read from the last offset.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	format    Format
	offset    int64
	line      int
	head      []byte // first bytes at the last full load
	mu        sync.Mutex

	Events chan WatchEvent
	Errors chan error
	done   chan struct{}
	once   sync.Once
}

// NewWatcher creates a watcher for path. Call Start to begin delivering events.
func NewWatcher(path string, format Format) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors often replace the file with a rename
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		path:      abs,
		format:    format,
		Events:    make(chan WatchEvent, 16),
		Errors:    make(chan error, 4),
		done:      make(chan struct{}),
	}
	return w, nil
}

// Load reads the whole file and remembers where incremental reads resume
func (w *Watcher) Load() ([]Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadLocked()
}

func (w *Watcher) loadLocked() ([]Record, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, err
	}
	data, err := readLimited(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	if w.format == FormatAuto {
		w.format = DetectFormat(w.path, data)
	}

	var records []Record
	line := 0
	if w.format == FormatYAML {
		records, err = parseYAML(data)
	} else {
		records, _, line, err = parseLines(data, 0, true, w.format)
	}
	if err != nil {
		return nil, err
	}

	w.head = data[:min(len(data), headSize)]
	w.offset = int64(len(data))
	w.line = line
	return records, nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	switch {
	case event.Has(fsnotify.Write):
		w.handleWrite()
	case event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
		w.handleReplace()
	}
}

// handleWrite reads only the appended lines when the file grew and its
// beginning is unchanged, otherwise reloads it.
func (w *Watcher) handleWrite() {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil {
		return
	}
	if w.format == FormatYAML || info.Size() < w.offset || !w.sameHead() {
		w.reloadLocked()
		return
	}
	if info.Size() == w.offset {
		return
	}

	records, offset, line, err := LoadFrom(w.path, w.format, w.offset, w.line)
	if err != nil {
		w.sendError(err)
		return
	}
	w.offset = offset
	w.line = line
	if len(records) == 0 {
		return
	}
	w.send(WatchEvent{Type: EventAppended, Path: w.path, Records: records})
}

func (w *Watcher) handleReplace() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := os.Stat(w.path); err != nil {
		// renamed away; wait for the replacement to be created
		return
	}
	w.reloadLocked()
}

func (w *Watcher) reloadLocked() {
	records, err := w.loadLocked()
	if err != nil {
		w.sendError(err)
		return
	}
	w.send(WatchEvent{Type: EventReloaded, Path: w.path, Records: records})
}

func (w *Watcher) sameHead() bool {
	head, err := readHead(w.path)
	if err != nil || len(head) < len(w.head) {
		return false
	}
	return bytes.Equal(head[:len(w.head)], w.head)
}

// readHead returns up to headSize bytes from the start of path
func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, headSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// send blocks until the event is taken or the watcher stops
func (w *Watcher) send(ev WatchEvent) {
	select {
	case w.Events <- ev:
	case <-w.done:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.Errors <- err:
	default:
		// Error channel full, drop
	}
}
