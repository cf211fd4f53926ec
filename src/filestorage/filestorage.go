package filestorage

import (
	"io"
)

type FileStorage interface {
	// Create opens the file at the slash separated path below the storage root for writing,
	// creating missing directories and truncating an existing file.
	Create(rel string) (io.WriteCloser, error)
}
