package pages

import "github.com/pkg/errors"

var (
	// ErrNoSpace is returned by InsertTuple when the page cannot hold the tuple. Heap files react to it by growing
	// the chain.
	ErrNoSpace = errors.New("not enough space in heap page")

	ErrEmptyPage      = errors.New("page has no records")
	ErrEndOfPage      = errors.New("no more records in page")
	ErrRecordNotFound = errors.New("record not found")
	ErrCorruptHeader  = errors.New("corrupt file header page")
)
