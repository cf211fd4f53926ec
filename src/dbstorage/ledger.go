package dbstorage

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/dirfetch/src/dbstorage/schema"
	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/enum"
)

// RunLedger records the files of one run and what became of them.
// It is safe for concurrent use, every call runs in its own transaction.
type RunLedger struct {
	db     *SimpleDBStorage
	runID  string
	logger *log.Logger
}

func NewRunLedger(db *SimpleDBStorage, runID string, logger *log.Logger) *RunLedger {
	return &RunLedger{
		db:     db,
		runID:  runID,
		logger: logger,
	}
}

func (l *RunLedger) RunID() string {
	return l.runID
}

// RecordEntries inserts every listed url as pending, duplicates collapse into one row.
func (l *RunLedger) RecordEntries(entries []entity.ListingEntry) error {
	t, err := l.db.NewTransaction()
	if err != nil {
		return err
	}
	defer t.Close()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}

		_, err = t.InsertFile(&schema.File{
			RunID: l.runID,
			URL:   e.URL,
			Size:  e.Size,
			State: enum.FileStatePending,
		})
		if err != nil {
			return err
		}
	}

	if err = t.Commit(); err != nil {
		return err
	}
	l.logger.WithField("run_id", l.runID).WithField("files", len(seen)).Debug("listing recorded")
	return nil
}

func (l *RunLedger) RecordResult(r entity.DownloadResult) error {
	t, err := l.db.NewTransaction()
	if err != nil {
		return err
	}
	defer t.Close()

	file, err := t.GetFileWithLock(l.runID, r.URL)
	if err != nil {
		return err
	}

	file.BytesWritten = r.Bytes
	file.FetchedAt = time.Now()
	if r.Success {
		file.State = enum.FileStateSuccess
		file.Remark = ""
	} else {
		file.State = enum.FileStateFail
		if r.Err != nil {
			file.Remark = r.Err.Error()
		}
	}

	if _, err = t.UpdateFileResult(file); err != nil {
		return err
	}
	return t.Commit()
}

type Counts struct {
	Pending   int64
	Succeeded int64
	Failed    int64
}

func (l *RunLedger) Counts() (Counts, error) {
	var c Counts

	t, err := l.db.NewTransaction()
	if err != nil {
		return c, err
	}
	defer t.Close()

	if c.Pending, err = t.CountFiles(l.runID, enum.FileStatePending); err != nil {
		return c, err
	}
	if c.Succeeded, err = t.CountFiles(l.runID, enum.FileStateSuccess); err != nil {
		return c, err
	}
	if c.Failed, err = t.CountFiles(l.runID, enum.FileStateFail); err != nil {
		return c, err
	}
	return c, nil
}
