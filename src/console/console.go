// Package console renders the run on a terminal: report lines and one overall byte progress bar
// whose description lists the files currently in flight.
package console

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/progress"
)

const (
	overallDescription = "Overall progress"
	maxShownFiles      = 3
	describeEvery      = 100 * time.Millisecond
)

type Reporter struct {
	out    io.Writer
	logger *log.Logger
}

func NewReporter(out io.Writer, logger *log.Logger) *Reporter {
	return &Reporter{out: out, logger: logger}
}

func (r *Reporter) Scanning(rootURL string) {
	fmt.Fprintf(r.out, "Scanning %s and calculating sizes...\n", rootURL)
}

func (r *Reporter) Found(files int, total int64) {
	fmt.Fprintf(r.out, "Found %d files to download (%s total)\n", files, humanize.IBytes(uint64(total)))
}

func (r *Reporter) Downloading(concurrency uint32) {
	fmt.Fprintf(r.out, "Downloading with maximum %d concurrent connections\n", concurrency)
}

func (r *Reporter) Complete(s entity.Summary) {
	fmt.Fprintf(r.out, "\nDownload complete: %d successful, %d failed (%s written)\n",
		s.Succeeded, s.Failed, humanize.IBytes(uint64(s.Bytes)))
}

// Bar returns a progress.Listener drawing the overall bytes of a run whose declared sizes add up to total.
func (r *Reporter) Bar(total int64) *Bar {
	return newBar(r.out, r.logger, total)
}

type Bar struct {
	logger *log.Logger

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	max  int64
	done int64

	tracker     *progress.Tracker
	desc        string
	describedAt time.Time
}

func newBar(out io.Writer, logger *log.Logger, total int64) *Bar {
	limit := total
	if limit <= 0 {
		// unknown total, spinner mode
		limit = -1
	}
	return &Bar{
		logger: logger,
		max:    limit,
		desc:   overallDescription,
		bar: progressbar.NewOptions64(limit,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(overallDescription),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		),
	}
}

// Watch makes the bar list the in-flight files of t next to the overall progress.
func (b *Bar) Watch(t *progress.Tracker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracker = t
}

func (b *Bar) FileStarted(url string, size int64) {
	b.logger.WithField("url", url).WithField("size", humanize.IBytes(uint64(size))).Debug("transfer started")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.describe()
}

func (b *Bar) BytesTransferred(_ string, n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done += n
	// declared sizes can be 0 or wrong, grow instead of overflowing
	if b.max > 0 && b.done > b.max {
		b.max = b.done
		b.bar.ChangeMax64(b.max)
	}
	if time.Since(b.describedAt) >= describeEvery {
		b.describe()
	}
	_ = b.bar.Add64(n)
}

func (b *Bar) FileFinished(url string, success bool) {
	b.logger.WithField("url", url).WithField("success", success).Debug("transfer finished")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.describe()
}

// caller holds b.mu
func (b *Bar) describe() {
	if b.tracker == nil {
		return
	}
	b.desc = describeSnapshot(b.tracker.Snapshot())
	b.describedAt = time.Now()
	b.bar.Describe(b.desc)
}

func describeSnapshot(snap progress.Snapshot) string {
	if len(snap.InFlight) == 0 {
		return overallDescription
	}

	var parts []string
	for i, f := range snap.InFlight {
		if i == maxShownFiles {
			parts = append(parts, fmt.Sprintf("+%d more", len(snap.InFlight)-maxShownFiles))
			break
		}
		size := "?"
		if f.Size > 0 {
			size = humanize.IBytes(uint64(f.Size))
		}
		parts = append(parts, fmt.Sprintf("%s %s/%s", path.Base(f.URL), humanize.IBytes(uint64(f.Transferred)), size))
	}
	return overallDescription + " [" + strings.Join(parts, ", ") + "]"
}

func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
}
