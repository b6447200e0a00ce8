package watcher

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Handler is invoked once per arrived file, after the file's size has
// been stable for a full poll interval.
type Handler func(path string)

type pending struct {
	size     int64
	notified bool
}

// Watcher polls a directory for files that appear after the watch
// started and notifies a handler once each file is fully written.
// Writers that are still appending show a growing size between polls;
// a file only counts as ready when two consecutive polls observe the
// same size.
type Watcher struct {
	dir       string
	extension string
	interval  time.Duration
	handler   Handler

	seen map[string]*pending

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a watcher over dir. Only files matching extension (e.g.
// ".jpg") are considered; an empty extension matches every file.
func New(dir, extension string, interval time.Duration, handler Handler) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{
		dir:       dir,
		extension: extension,
		interval:  interval,
		handler:   handler,
		seen:      make(map[string]*pending),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start snapshots the directory's current contents and launches the
// polling loop. Names present in the snapshot never notify; only files
// that appear afterwards count as arrivals. File timestamps are not
// compared against the wall clock: mtimes come from the kernel's coarse
// clock and can lag a just-taken time.Now, which would skip genuinely
// new files forever.
func (w *Watcher) Start() {
	if entries, err := os.ReadDir(w.dir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			w.seen[entry.Name()] = &pending{notified: true}
		}
	}
	go w.run()
}

// Stop requests graceful loop termination and waits until it is done.
func (w *Watcher) Stop() {
	select {
	case <-w.doneCh:
		return
	default:
	}
	close(w.stopCh)
	<-w.doneCh
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.scan()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.Printf("watch %s: %v", w.dir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if w.extension != "" && !strings.EqualFold(filepath.Ext(name), w.extension) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		state, known := w.seen[name]
		if !known {
			w.seen[name] = &pending{size: info.Size()}
			continue
		}
		if state.notified {
			continue
		}
		if info.Size() != state.size {
			state.size = info.Size()
			continue
		}

		state.notified = true
		path := filepath.Join(w.dir, name)
		log.Printf("file ready: %s", path)
		if w.handler != nil {
			w.handler(path)
		}
	}
}

// Copy copies src to dst, creating dst's parent directories and
// overwriting any existing file.
func Copy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
