package common

import "math"

const (
	// PageSize is the size of every page in a page file and of every frame in the buffer pool.
	PageSize int = 4096

	// InvalidPageID marks the absence of a page, e.g. the successor link of the last page of a chain.
	InvalidPageID uint64 = math.MaxUint64

	// DefaultPoolSize is the number of frames a buffer pool gets when no size is configured.
	DefaultPoolSize = 32
)
