package disk

import "github.com/pkg/errors"

var (
	ErrFileNotFound = errors.New("file not found")
	ErrFileExists   = errors.New("file already exists")
	ErrFileOpen     = errors.New("file is open")
	ErrFileClosed   = errors.New("file is closed")
	ErrEmptyFile    = errors.New("file has no pages")
	ErrReadFailed   = errors.New("page read failed")
	ErrWriteFailed  = errors.New("page write failed")
	ErrPartialPage  = errors.New("partial page encountered")
)
