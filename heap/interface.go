package heap

import (
	"heapfile/buffer"
	"heapfile/disk"
	"heapfile/disk/pages"
)

var (
	_ PageStore = &buffer.BufferPool{}
	_ FileStore = &disk.Store{}
)

// PageStore is the buffer pool as seen by heap files. *buffer.BufferPool implements it.
type PageStore interface {
	NewPage(f *disk.File) (*pages.RawPage, error)
	GetPage(f *disk.File, pageId uint64) (*pages.RawPage, error)
	Unpin(f *disk.File, pageId uint64, isDirty bool) error
	FlushFile(f *disk.File) error
	DiscardFile(name string) error
}

// FileStore creates, opens and removes named page files. *disk.Store implements it.
type FileStore interface {
	Create(name string) error
	Open(name string) (*disk.File, error)
	Close(f *disk.File) error
	Destroy(name string) error
}
