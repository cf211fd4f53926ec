package entity

// a file link found on a listing page
// Size 0 means the size is unknown (probe failed) or the file is empty, callers do not tell them apart
type ListingEntry struct {
	URL  string
	Size int64
}

// outcome of a single file transfer, Err is only kept for logging and the ledger remark
type DownloadResult struct {
	URL     string
	Success bool
	Bytes   int64
	Err     error
}

type Summary struct {
	Succeeded int
	Failed    int
	Bytes     int64
}

func (s Summary) Total() int {
	return s.Succeeded + s.Failed
}

// TotalSize sums the declared sizes of all entries, unknown sizes count as 0.
func TotalSize(entries []ListingEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total
}
