// Package progress keeps the byte counters of the fetch phase.
//
// The total counter is the only state shared by every transfer, it is an
// atomic. Per-file counters live only while their file is in flight.
package progress

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Listener is notified synchronously from the transfer goroutines, implementations must be goroutine safe.
type Listener interface {
	FileStarted(url string, size int64)
	BytesTransferred(url string, n int64)
	FileFinished(url string, success bool)
}

type Tracker struct {
	known       int64
	transferred atomic.Int64

	mu       sync.Mutex
	inFlight map[*File]struct{}

	listeners []Listener
}

// NewTracker creates a tracker for a run whose declared sizes add up to known bytes.
func NewTracker(known int64, listeners ...Listener) *Tracker {
	return &Tracker{
		known:     known,
		inFlight:  make(map[*File]struct{}),
		listeners: listeners,
	}
}

// File is the live counter of one transfer.
type File struct {
	tracker     *Tracker
	url         string
	size        int64
	transferred atomic.Int64
}

func (t *Tracker) Begin(url string, size int64) *File {
	f := &File{tracker: t, url: url, size: size}

	t.mu.Lock()
	t.inFlight[f] = struct{}{}
	t.mu.Unlock()

	for _, l := range t.listeners {
		l.FileStarted(url, size)
	}
	return f
}

// Add advances both the file counter and the shared total.
func (f *File) Add(n int) {
	if n <= 0 {
		return
	}
	f.transferred.Add(int64(n))
	f.tracker.transferred.Add(int64(n))
	for _, l := range f.tracker.listeners {
		l.BytesTransferred(f.url, int64(n))
	}
}

func (f *File) Transferred() int64 {
	return f.transferred.Load()
}

// End drops the file from the in-flight set, calling it twice is harmless.
func (f *File) End(success bool) {
	t := f.tracker
	t.mu.Lock()
	_, ok := t.inFlight[f]
	delete(t.inFlight, f)
	t.mu.Unlock()

	if !ok {
		return
	}
	for _, l := range t.listeners {
		l.FileFinished(f.url, success)
	}
}

func (t *Tracker) Known() int64 {
	return t.known
}

func (t *Tracker) Transferred() int64 {
	return t.transferred.Load()
}

type FileSnapshot struct {
	URL         string
	Size        int64
	Transferred int64
}

type Snapshot struct {
	Known       int64
	Transferred int64
	InFlight    []FileSnapshot
}

// Snapshot returns the current counters, in-flight files sorted by url.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	files := make([]FileSnapshot, 0, len(t.inFlight))
	for f := range t.inFlight {
		files = append(files, FileSnapshot{URL: f.url, Size: f.size, Transferred: f.Transferred()})
	}
	t.mu.Unlock()

	sort.Slice(files, func(i, j int) bool { return files[i].URL < files[j].URL })
	return Snapshot{
		Known:       t.known,
		Transferred: t.Transferred(),
		InFlight:    files,
	}
}
