package analyzer

import (
	"io"
)

type Analyzer interface {
	Analyze(io.Reader) ([]string, error)
}
