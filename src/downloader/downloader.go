package downloader

import (
	"context"

	"github.com/andrewyi/dirfetch/src/entity"
)

type Downloader interface {
	Download(context.Context, entity.ListingEntry) entity.DownloadResult
}
