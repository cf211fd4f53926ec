package filestorage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/andrewyi/dirfetch/src/util"
)

type SimpleFileStorage struct {
	location string
}

func NewSimpleFileStorage(location string) FileStorage {
	return &SimpleFileStorage{
		location: location,
	}
}

// the remote directory layout is kept as is below location
// no existence check: a second run overwrites what the first one wrote
func (s *SimpleFileStorage) Create(rel string) (io.WriteCloser, error) {
	fp := util.LocalPath(s.location, rel)

	err := os.MkdirAll(filepath.Dir(fp), os.ModePerm)
	if err != nil {
		if os.IsExist(err) {
			err = nil // ignore
		} else {
			return nil, err
		}
	}

	return os.Create(fp)
}
