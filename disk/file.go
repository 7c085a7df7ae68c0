package disk

import (
	"github.com/phuslu/log"
	"github.com/pkg/errors"
	"heapfile/common"
	"io"
	"os"
	"sort"
	"sync"
)

// IPageFile is the page level io interface of a single open file.
type IPageFile interface {
	Name() string
	WritePage(data []byte, pageId uint64) error
	WritePages(data [][]byte, pageIds []uint64) error
	ReadPage(pageId uint64, dest []byte) error
	NewPage() (pageId uint64, err error)
	FirstPageID() (uint64, error)
	NumPages() uint64
	Sync() error
}

var _ IPageFile = &File{}

// File is a page file on disk. Pages are numbered from 0 in the order they are allocated and page n lives at
// offset n*PageSize. A File is shared by every handle that opened it through the same Store; its reference count
// is maintained by the Store.
type File struct {
	file     *os.File
	name     string
	path     string
	numPages uint64
	fsync    bool
	refs     int
	closed   bool
	mu       sync.Mutex
	logger   *log.Logger
}

func openFile(name, path string, fsync bool, logger *log.Logger) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, os.ModePerm)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrFileNotFound, "open %s", name)
		}
		return nil, errors.Wrapf(err, "open %s", name)
	}

	stats, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat %s", name)
	}

	filesize := stats.Size()
	if filesize%int64(common.PageSize) != 0 {
		_ = f.Close()
		return nil, errors.Wrapf(ErrPartialPage, "file %s has size %d", name, filesize)
	}

	logger.Debug().Str("file", name).Int64("size", filesize).Msg("page file opened")
	return &File{
		file:     f,
		name:     name,
		path:     path,
		numPages: uint64(filesize / int64(common.PageSize)),
		fsync:    fsync,
		logger:   logger,
	}, nil
}

func (d *File) Name() string {
	return d.name
}

func (d *File) WritePage(data []byte, pageId uint64) error {
	if len(data) != common.PageSize {
		return errors.Wrapf(ErrWriteFailed, "page %d: data is %d bytes", pageId, len(data))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.Wrap(ErrFileClosed, d.name)
	}
	if pageId >= d.numPages {
		return errors.Wrapf(ErrWriteFailed, "page %d is not allocated in %s", pageId, d.name)
	}

	return d.writeAt(data, pageId)
}

func (d *File) WritePages(pages [][]byte, pageIds []uint64) error {
	if len(pages) != len(pageIds) {
		return errors.New("number of data pages is not equal to number of pageIds")
	}

	idx := make([]int, len(pageIds))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return pageIds[idx[i]] < pageIds[idx[j]]
	})

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.Wrap(ErrFileClosed, d.name)
	}

	// consecutive page ids are written with a single call
	st := 0
	for i := range idx {
		if i < len(idx)-1 && pageIds[idx[i+1]] == pageIds[idx[i]]+1 {
			continue
		}

		write := make([]byte, 0, common.PageSize*(i-st+1))
		for _, j := range idx[st : i+1] {
			if len(pages[j]) != common.PageSize {
				return errors.Wrapf(ErrWriteFailed, "page %d: data is %d bytes", pageIds[j], len(pages[j]))
			}
			if pageIds[j] >= d.numPages {
				return errors.Wrapf(ErrWriteFailed, "page %d is not allocated in %s", pageIds[j], d.name)
			}
			write = append(write, pages[j]...)
		}
		if err := d.writeAt(write, pageIds[idx[st]]); err != nil {
			return err
		}
		st = i + 1
	}

	return nil
}

func (d *File) ReadPage(pageId uint64, dest []byte) error {
	if len(dest) != common.PageSize {
		return errors.Wrapf(ErrReadFailed, "page %d: destination is %d bytes", pageId, len(dest))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.Wrap(ErrFileClosed, d.name)
	}
	if pageId >= d.numPages {
		return errors.Wrapf(ErrReadFailed, "page %d does not exist in %s", pageId, d.name)
	}

	n, err := d.file.ReadAt(dest, int64(common.PageSize)*int64(pageId))
	if err != nil && err != io.EOF {
		return errors.Wrapf(ErrReadFailed, "page %d of %s: %v", pageId, d.name, err)
	}
	if n != common.PageSize {
		return errors.Wrapf(ErrPartialPage, "page %d of %s: read %d bytes", pageId, d.name, n)
	}

	return nil
}

// NewPage allocates a page at the end of the file. The page is zero filled on disk so that it can be read back
// before the buffer pool writes its content.
func (d *File) NewPage() (pageId uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.Wrap(ErrFileClosed, d.name)
	}

	pageId = d.numPages
	if err := d.writeAt(make([]byte, common.PageSize), pageId); err != nil {
		return 0, err
	}

	d.numPages++
	return pageId, nil
}

// FirstPageID returns the id of the first page of the file.
func (d *File) FirstPageID() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.Wrap(ErrFileClosed, d.name)
	}
	if d.numPages == 0 {
		return 0, errors.Wrap(ErrEmptyFile, d.name)
	}
	return 0, nil
}

func (d *File) NumPages() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.numPages
}

func (d *File) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.Wrap(ErrFileClosed, d.name)
	}
	return d.file.Sync()
}

func (d *File) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

func (d *File) writeAt(data []byte, startingPageId uint64) error {
	n, err := d.file.WriteAt(data, int64(common.PageSize)*int64(startingPageId))
	if err != nil {
		return errors.Wrapf(ErrWriteFailed, "page %d of %s: %v", startingPageId, d.name, err)
	}
	if n != len(data) {
		return errors.Wrapf(ErrPartialPage, "page %d of %s: wrote %d bytes", startingPageId, d.name, n)
	}

	if d.fsync {
		if err := d.file.Sync(); err != nil {
			return errors.Wrapf(ErrWriteFailed, "sync %s: %v", d.name, err)
		}
	}

	return nil
}
