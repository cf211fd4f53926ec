// streams one file to disk in fixed size chunks
// NOTE:
// 1. the http client must not carry a timeout, large files take as long as they take
// 2. no retry: any failure is logged and reported as an unsuccessful result
// 3. a transfer that breaks off leaves the partially written file behind
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/enum"
	"github.com/andrewyi/dirfetch/src/filestorage"
	"github.com/andrewyi/dirfetch/src/progress"
	"github.com/andrewyi/dirfetch/src/util"
)

var ErrUnexpectedStatus = errors.New("unexpected http status")

type SimpleDownloader struct {
	logger    *log.Logger
	rootURL   string
	chunkSize uint32

	client  *http.Client
	file    filestorage.FileStorage
	tracker *progress.Tracker
}

// rootURL is the listing root the entries were found under, local paths are relative to it.
func NewSimpleDownloader(
	logger *log.Logger, client *http.Client, file filestorage.FileStorage, tracker *progress.Tracker,
	rootURL string, chunkSize uint32) Downloader {

	if chunkSize == 0 {
		chunkSize = enum.DefaultChunkSize
	}
	return &SimpleDownloader{
		logger:    logger,
		rootURL:   rootURL,
		chunkSize: chunkSize,
		client:    client,
		file:      file,
		tracker:   tracker,
	}
}

func (s *SimpleDownloader) Download(ctx context.Context, entry entity.ListingEntry) entity.DownloadResult {
	written, err := s.download(ctx, entry)
	if err != nil {
		s.logger.WithError(err).WithField("url", entry.URL).Error("fail to download file")
		return entity.DownloadResult{
			URL:   entry.URL,
			Bytes: written,
			Err:   err,
		}
	}

	s.logger.WithField("url", entry.URL).WithField("bytes", written).Debug("file downloaded")
	return entity.DownloadResult{
		URL:     entry.URL,
		Success: true,
		Bytes:   written,
	}
}

func (s *SimpleDownloader) download(ctx context.Context, entry entity.ListingEntry) (written int64, err error) {
	rel, err := util.RelativePath(s.rootURL, entry.URL)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	w, err := s.file.Create(rel)
	if err != nil {
		return 0, err
	}
	fp := s.tracker.Begin(entry.URL, entry.Size)
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		fp.End(err == nil)
	}()

	buf := make([]byte, s.chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			fp.Add(n)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
