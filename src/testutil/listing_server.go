// Package testutil serves fake autoindex trees for tests.
package testutil

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type File struct {
	Path    string // slash separated, relative to the listing root
	Content []byte
}

// ListingServer serves Files below Prefix as an nginx style autoindex.
// Directories are implied by the file paths and listed in file order.
type ListingServer struct {
	*httptest.Server

	Prefix string
	Files  []File

	// raw hrefs appended to the listing of a directory ("" for the root)
	ExtraHrefs map[string][]string
	// status returned to GET and HEAD of a file or directory, keyed by path below the root
	Status map[string]int
	// paths whose HEAD requests answer 500
	FailHead map[string]bool
	// paths whose HEAD responses carry no Content-Length
	HideLength map[string]bool
	// delay applied to every file GET before the body is sent
	Delay time.Duration

	mu       sync.Mutex
	requests []string

	active        atomic.Int64
	maxActive     atomic.Int64
	activeClients map[string]int
	maxClients    atomic.Int64
}

func NewListingServer(t testing.TB, prefix string, files ...File) *ListingServer {
	t.Helper()
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	s := &ListingServer{
		Prefix:        prefix,
		Files:         files,
		ExtraHrefs:    map[string][]string{},
		Status:        map[string]int{},
		FailHead:      map[string]bool{},
		HideLength:    map[string]bool{},
		activeClients: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Root is the absolute url of the listing root, with trailing slash.
func (s *ListingServer) Root() string {
	return s.URL + s.Prefix
}

// FileURL returns the absolute url of a file below the root.
func (s *ListingServer) FileURL(rel string) string {
	return s.Root() + rel
}

// Requests returns "METHOD /path" for every request served so far.
func (s *ListingServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// MaxConcurrentGets is the highest number of file GETs that were served at the same time.
func (s *ListingServer) MaxConcurrentGets() int64 {
	return s.maxActive.Load()
}

// MaxConcurrentConnections is the highest number of distinct client connections with a file GET in flight.
func (s *ListingServer) MaxConcurrentConnections() int64 {
	return s.maxClients.Load()
}

func (s *ListingServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	if !strings.HasPrefix(r.URL.Path, s.Prefix) {
		http.NotFound(w, r)
		return
	}
	rel := strings.TrimPrefix(r.URL.Path, s.Prefix)

	if code, ok := s.Status[rel]; ok {
		w.WriteHeader(code)
		return
	}

	if rel == "" || strings.HasSuffix(rel, "/") {
		s.serveDir(w, strings.TrimSuffix(rel, "/"))
		return
	}

	for _, f := range s.Files {
		if f.Path == rel {
			s.serveFile(w, r, f)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *ListingServer) serveFile(w http.ResponseWriter, r *http.Request, f File) {
	if r.Method == http.MethodHead {
		if s.FailHead[f.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !s.HideLength[f.Path] {
			w.Header().Set("Content-Length", fmt.Sprint(len(f.Content)))
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	s.enter(r.RemoteAddr)
	defer s.leave(r.RemoteAddr)
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprint(len(f.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = bytes.NewReader(f.Content).WriteTo(w)
}

func (s *ListingServer) enter(client string) {
	raiseMax(&s.maxActive, s.active.Add(1))

	s.mu.Lock()
	s.activeClients[client]++
	n := int64(len(s.activeClients))
	s.mu.Unlock()
	raiseMax(&s.maxClients, n)
}

func (s *ListingServer) leave(client string) {
	s.active.Add(-1)

	s.mu.Lock()
	s.activeClients[client]--
	if s.activeClients[client] == 0 {
		delete(s.activeClients, client)
	}
	s.mu.Unlock()
}

func raiseMax(m *atomic.Int64, v int64) {
	for {
		cur := m.Load()
		if v <= cur || m.CompareAndSwap(cur, v) {
			return
		}
	}
}

func (s *ListingServer) serveDir(w http.ResponseWriter, dir string) {
	var children []string
	seen := map[string]bool{}
	for _, f := range s.Files {
		name, ok := childOf(dir, f.Path)
		if ok && !seen[name] {
			seen[name] = true
			children = append(children, name)
		}
	}
	if len(children) == 0 && dir != "" && len(s.ExtraHrefs[dir]) == 0 {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}

	var b strings.Builder
	title := html.EscapeString(path.Join(s.Prefix, dir) + "/")
	fmt.Fprintf(&b, "<html>\n<head><title>Index of %s</title></head>\n<body>\n", title)
	fmt.Fprintf(&b, "<h1>Index of %s</h1><hr><pre>\n", title)
	b.WriteString(`<a href="../">../</a>` + "\n")
	b.WriteString(`<a href="?C=N;O=D">Name</a>` + "\n")
	for _, c := range children {
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", html.EscapeString(c), html.EscapeString(c))
	}
	for _, h := range s.ExtraHrefs[dir] {
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", html.EscapeString(h), html.EscapeString(h))
	}
	b.WriteString("</pre><hr></body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(b.String()))
}

// childOf returns the first path element of p below dir, directories keep their trailing slash.
func childOf(dir string, p string) (string, bool) {
	if dir != "" {
		if !strings.HasPrefix(p, dir+"/") {
			return "", false
		}
		p = strings.TrimPrefix(p, dir+"/")
	}
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i+1], true
	}
	return p, true
}
