// walks an autoindex tree depth first and probes every file with HEAD
// the walk is sequential: one request in flight, in link order
// NOTE: a listing page that cannot be read aborts the whole walk, only probes are allowed to fail
package lister

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/andrewyi/dirfetch/src/analyzer"
	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/util"
)

var ErrListingFetch = errors.New("fail to fetch listing page")

// one listing page on the walk stack
type crawlState struct {
	url   *url.URL
	links []string
	next  int
}

type SimpleLister struct {
	logger   *log.Logger
	client   *http.Client
	analyzer analyzer.Analyzer
	limiter  *rate.Limiter
	observer ProbeObserver
}

// timeout is in seconds and applies to each page fetch and probe, 0 disables it.
// probeRate limits HEAD requests per second, 0 disables it. observer may be nil.
func NewSimpleLister(logger *log.Logger, timeout uint32, probeRate float64, observer ProbeObserver) Lister {
	limit := rate.Inf
	burst := 0
	if probeRate > 0 {
		limit = rate.Limit(probeRate)
		burst = int(math.Max(1, math.Ceil(probeRate)))
	}

	return &SimpleLister{
		logger: logger,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		analyzer: analyzer.NewSimpleAnalyzer(),
		limiter:  rate.NewLimiter(limit, burst),
		observer: observer,
	}
}

func (s *SimpleLister) List(ctx context.Context, rootURL string) ([]entity.ListingEntry, error) {
	root, err := s.readPage(ctx, rootURL)
	if err != nil {
		return nil, err
	}

	var entries []entity.ListingEntry
	stack := []*crawlState{root}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.links) {
			stack = stack[:len(stack)-1]
			continue
		}
		href := top.links[top.next]
		top.next++

		if !Followable(href) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			s.logger.WithError(err).WithField("href", href).Warn("fail to parse link")
			continue
		}
		abs := top.url.ResolveReference(ref)
		absURL := abs.String()

		// "sub/../../x" or "%2e%2e/x" leave the tree after resolution
		if _, err := util.RelativePath(rootURL, absURL); err != nil {
			s.logger.WithField("url", absURL).Debug("skip link outside of the crawl root")
			continue
		}

		if strings.HasSuffix(absURL, "/") {
			// "./" or "a/../" point back at the page itself
			if !isBelow(top.url, abs) {
				s.logger.WithField("url", absURL).Debug("skip directory link that does not descend")
				continue
			}
			sub, err := s.readPage(ctx, absURL)
			if err != nil {
				return nil, err
			}
			stack = append(stack, sub)
			continue
		}

		entries = append(entries, entity.ListingEntry{
			URL:  absURL,
			Size: s.probe(ctx, absURL),
		})
	}

	return entries, nil
}

func (s *SimpleLister) readPage(ctx context.Context, pageURL string) (*crawlState, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListingFetch, pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListingFetch, pageURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListingFetch, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: unexpected status %s", ErrListingFetch, pageURL, resp.Status)
	}

	links, err := s.analyzer.Analyze(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListingFetch, pageURL, err)
	}

	s.logger.WithField("url", pageURL).WithField("links", len(links)).Debug("listing page read")
	return &crawlState{url: u, links: links}, nil
}

// probe never fails, an unknown size is reported as 0
func (s *SimpleLister) probe(ctx context.Context, fileURL string) int64 {
	size, err := s.headSize(ctx, fileURL)
	if s.observer != nil {
		s.observer.ProbeFinished(fileURL, err == nil)
	}
	if err != nil {
		s.logger.WithError(err).WithField("url", fileURL).Warn("fail to get file size")
		return 0
	}
	return size
}

func (s *SimpleLister) headSize(ctx context.Context, fileURL string) (int64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fileURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	cl := resp.Header.Get("Content-Length")
	if cl == "" {
		return 0, nil
	}
	size, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid content length %q", cl)
	}
	return size, nil
}

// Followable reports whether href is a relative link inside the listed tree.
// query strings, absolute paths, absolute urls, fragments and parent links are not.
func Followable(href string) bool {
	if href == "" {
		return false
	}
	for _, prefix := range []string{"?", "/", "..", "#"} {
		if strings.HasPrefix(href, prefix) {
			return false
		}
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return true
}

func isBelow(parent *url.URL, child *url.URL) bool {
	p := parent.ResolveReference(&url.URL{Path: "./"}).String()
	c := child.String()
	return len(c) > len(p) && strings.HasPrefix(c, p)
}
