package heap

import (
	"github.com/pkg/errors"
	"heapfile/buffer"
	"heapfile/disk"
	"heapfile/disk/pages"
)

var (
	ErrRecordTooLarge       = errors.New("record is larger than a page can hold")
	ErrInvalidScanParameter = errors.New("invalid scan parameter")

	// ErrEndOfFile is returned by ScanNext when there is no more matching record in the chain. It is not a failure,
	// it means the scan is complete.
	ErrEndOfFile = errors.New("end of heap file")

	ErrNoCurrentRecord    = errors.New("no current record")
	ErrRecordSizeMismatch = errors.New("updated record must have the same length")
	ErrHandleClosed       = errors.New("heap file is closed")
	ErrCorruptChain       = errors.New("page chain is corrupt")
)

// errors reported by the layers below, re-exported so callers of this package can match them without importing
// those layers.
var (
	ErrFileExists       = disk.ErrFileExists
	ErrFileNotFound     = disk.ErrFileNotFound
	ErrRecordNotFound   = pages.ErrRecordNotFound
	ErrCorruptHeader    = pages.ErrCorruptHeader
	ErrAllocationFailed = buffer.ErrAllocationFailed
	ErrUnpinFailed      = buffer.ErrUnpinFailed
)
