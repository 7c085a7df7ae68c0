package buffer

import (
	"github.com/pkg/errors"
	"heapfile/disk"
	"heapfile/disk/pages"
)

// Unpinner is the part of the pool a PageReleaser needs.
type Unpinner interface {
	Unpin(f *disk.File, pageId uint64, isDirty bool) error
}

var ErrAlreadyReleased = errors.New("page is already released")

// PageReleaser owns one pin on a page. Modifications are recorded with MarkDirty and the pin is given back with a
// single call to Release which passes the accumulated dirty flag to the pool.
type PageReleaser struct {
	*pages.RawPage
	file     *disk.File
	pool     Unpinner
	dirty    bool
	released bool
}

func NewPageReleaser(pool Unpinner, f *disk.File, p *pages.RawPage) *PageReleaser {
	return &PageReleaser{RawPage: p, file: f, pool: pool}
}

// MarkDirty records that the page is modified. It does not touch the frame's state until the page is released.
func (r *PageReleaser) MarkDirty() {
	r.dirty = true
}

func (r *PageReleaser) Dirty() bool {
	return r.dirty
}

// Release unpins the page. A failed unpin still counts as a release, the pin is not retried.
func (r *PageReleaser) Release() error {
	if r.released {
		return errors.Wrapf(ErrAlreadyReleased, "page %d of %s", r.GetPageId(), r.file.Name())
	}

	r.released = true
	return r.pool.Unpin(r.file, r.GetPageId(), r.dirty)
}
