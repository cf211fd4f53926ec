// one table: a row per distinct file url of a run
package schema

import (
	"time"
)

type File struct {
	ID           uint64    `xorm:"bigint pk autoincr 'id'"`
	RunID        string    `xorm:"varchar(36) notnull unique(uk_run_url) index 'run_id'"`
	URL          string    `xorm:"varchar(2048) notnull unique(uk_run_url) 'url'"`
	Size         int64     `xorm:"bigint 'size'"`
	State        uint8     `xorm:"int 'state'"`
	Remark       string    `xorm:"text 'remark'"`
	BytesWritten int64     `xorm:"bigint 'bytes_written'"`
	FetchedAt    time.Time `xorm:"datetime 'fetched_at'"`
	CreatedAt    time.Time `xorm:"created notnull 'created_at'"`
	UpdatedAt    time.Time `xorm:"updated notnull 'updated_at'"`
}

func (f *File) TableName() string {
	return "files"
}
