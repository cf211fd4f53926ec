package lister

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/testutil"
)

type recordingObserver struct {
	mu     sync.Mutex
	ok     int
	failed []string
}

func (r *recordingObserver) ProbeFinished(url string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.ok++
	} else {
		r.failed = append(r.failed, url)
	}
}

func file(p string, size int) testutil.File {
	return testutil.File{Path: p, Content: bytes.Repeat([]byte{'x'}, size)}
}

func TestListExampleTree(t *testing.T) {
	srv := testutil.NewListingServer(t, "/files/afdb/1.0.0/", file("a.bin", 100), file("sub/b.bin", 200))
	logger, _ := test.NewNullLogger()

	entries, err := NewSimpleLister(logger, 0, 0, nil).List(context.Background(), srv.Root())
	require.NoError(t, err)

	assert.Equal(t, []entity.ListingEntry{
		{URL: srv.FileURL("a.bin"), Size: 100},
		{URL: srv.FileURL("sub/b.bin"), Size: 200},
	}, entries)
	assert.Equal(t, int64(300), entity.TotalSize(entries))
}

func TestListDepthFirstOrder(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/",
		file("x/1", 1),
		file("a", 2),
		file("x/y/2", 3),
		file("b", 4),
		file("x/3", 5),
		file("z/w/v/deep", 6),
	)
	logger, _ := test.NewNullLogger()

	entries, err := NewSimpleLister(logger, 0, 0, nil).List(context.Background(), srv.Root())
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, strings.TrimPrefix(e.URL, srv.Root()))
	}
	assert.Equal(t, []string{"x/1", "x/y/2", "x/3", "a", "b", "z/w/v/deep"}, got)
	assert.Equal(t, int64(1+2+3+4+5+6), entity.TotalSize(entries))
}

func TestListSkipsNavigationAndForeignLinks(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("keep.bin", 10), file("sub/inner.bin", 20))
	srv.ExtraHrefs[""] = []string{
		"/data/abs.bin",
		"http://example.com/remote.bin",
		"https://example.com/remote/",
		"?C=M;O=A",
		"../up.bin",
		"#top",
		"mailto:someone@example.com",
		"./",
		"sub/../",
		"sub/../../x.bin",
		"%2e%2e/x.bin",
		"%2e%2e/",
	}
	srv.ExtraHrefs["sub"] = []string{"../keep.bin", "/data/sub/inner.bin"}
	logger, _ := test.NewNullLogger()

	entries, err := NewSimpleLister(logger, 0, 0, nil).List(context.Background(), srv.Root())
	require.NoError(t, err)

	assert.Equal(t, []entity.ListingEntry{
		{URL: srv.FileURL("keep.bin"), Size: 10},
		{URL: srv.FileURL("sub/inner.bin"), Size: 20},
	}, entries)

	for _, r := range srv.Requests() {
		assert.NotContains(t, r, "abs.bin")
		assert.NotContains(t, r, "up.bin")
		assert.NotContains(t, r, "remote")
		assert.NotContains(t, r, "x.bin")
		assert.NotContains(t, r, "%2e")
	}
}

func TestListKeepsDuplicates(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("a.bin", 3))
	srv.ExtraHrefs[""] = []string{"a.bin"}
	logger, _ := test.NewNullLogger()

	entries, err := NewSimpleLister(logger, 0, 0, nil).List(context.Background(), srv.Root())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, entries[0], entries[1])
}

func TestListProbeFailureKeepsEntry(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("a.bin", 100), file("b.bin", 200), file("c.bin", 300))
	srv.FailHead["b.bin"] = true
	srv.HideLength["c.bin"] = true
	logger, hook := test.NewNullLogger()
	observer := &recordingObserver{}

	entries, err := NewSimpleLister(logger, 0, 0, observer).List(context.Background(), srv.Root())
	require.NoError(t, err)

	assert.Equal(t, []entity.ListingEntry{
		{URL: srv.FileURL("a.bin"), Size: 100},
		{URL: srv.FileURL("b.bin"), Size: 0},
		{URL: srv.FileURL("c.bin"), Size: 0},
	}, entries)
	assert.Equal(t, int64(100), entity.TotalSize(entries))

	assert.Equal(t, 2, observer.ok)
	assert.Equal(t, []string{srv.FileURL("b.bin")}, observer.failed)

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, srv.FileURL("b.bin"), hook.LastEntry().Data["url"])
}

func TestListUnreachableProbeHost(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("a.bin", 1))
	logger, _ := test.NewNullLogger()
	l := NewSimpleLister(logger, 0, 0, nil).(*SimpleLister)

	size := l.probe(context.Background(), "http://127.0.0.1:1/nothing.bin")
	assert.Equal(t, int64(0), size)

	entries, err := l.List(context.Background(), srv.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListSubdirectoryFailureAbortsCrawl(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("a.bin", 1), file("sub/b.bin", 2))
	srv.Status["sub/"] = http.StatusInternalServerError
	logger, _ := test.NewNullLogger()

	entries, err := NewSimpleLister(logger, 0, 0, nil).List(context.Background(), srv.Root())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListingFetch)
	assert.Contains(t, err.Error(), srv.FileURL("sub/"))
	assert.Nil(t, entries)
}

func TestListRootUnreachable(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewSimpleLister(logger, 1, 0, nil).List(context.Background(), "http://127.0.0.1:1/data/")
	assert.ErrorIs(t, err, ErrListingFetch)
}

func TestListHonoursCancelledContext(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("a.bin", 1))
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimpleLister(logger, 0, 0, nil).List(ctx, srv.Root())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListWithProbeRate(t *testing.T) {
	srv := testutil.NewListingServer(t, "/data/", file("a.bin", 1), file("b.bin", 2), file("c.bin", 3))
	logger, _ := test.NewNullLogger()

	entries, err := NewSimpleLister(logger, 0, 1000, nil).List(context.Background(), srv.Root())
	require.NoError(t, err)
	assert.Equal(t, int64(6), entity.TotalSize(entries))
}

func TestFollowable(t *testing.T) {
	tests := []struct {
		href     string
		expected bool
	}{
		{"a.bin", true},
		{"sub/", true},
		{"04015.dat", true},
		{"file%20name.txt", true},
		{"httpd.conf", true},
		{".hidden", true},
		{"", false},
		{"?C=N;O=D", false},
		{"/abs/path", false},
		{"//cdn.example.com/x", false},
		{"http://example.com/", false},
		{"https://example.com/a.bin", false},
		{"ftp://example.com/a.bin", false},
		{"mailto:a@example.com", false},
		{"../", false},
		{"../sibling/", false},
		{"#top", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.expected, Followable(tt.href))
		})
	}
}
