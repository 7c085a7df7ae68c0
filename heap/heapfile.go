package heap

import (
	"github.com/phuslu/log"
	"github.com/pkg/errors"
	"heapfile/buffer"
	"heapfile/common"
	"heapfile/disk"
	"heapfile/disk/pages"
)

// HeapFile is an open heap file. It keeps the header page pinned for its whole life and at most one data page pinned
// as the current page. A HeapFile is not safe for concurrent use.
type HeapFile struct {
	files  FileStore
	pool   PageStore
	file   *disk.File
	logger *log.Logger

	headerPage *buffer.PageReleaser
	header     pages.FileHeader

	curPage *buffer.PageReleaser
	curRec  RID

	closed bool
}

// Open opens an existing heap file. On success the header page and the first data page are pinned until Close.
func Open(files FileStore, pool PageStore, name string, opts ...Option) (*HeapFile, error) {
	o := buildOptions(opts)

	f, err := files.Open(name)
	if err != nil {
		return nil, err
	}

	h := &HeapFile{
		files:  files,
		pool:   pool,
		file:   f,
		logger: o.logger,
		curRec: NullRID,
	}

	if err := h.pinHeader(); err != nil {
		if cErr := files.Close(f); cErr != nil {
			h.logger.Error().Err(cErr).Str("file", name).Msg("close after failed open failed")
		}
		return nil, err
	}

	if h.header.FirstPage != common.InvalidPageID {
		if err := h.pinCurrent(h.header.FirstPage); err != nil {
			if rErr := h.headerPage.Release(); rErr != nil {
				h.logger.Error().Err(rErr).Str("file", name).Msg("releasing header page failed")
			}
			if cErr := files.Close(f); cErr != nil {
				h.logger.Error().Err(cErr).Str("file", name).Msg("close after failed open failed")
			}
			return nil, err
		}
	}

	h.logger.Debug().Str("file", name).Uint64("records", h.header.RecordCount).Uint64("pages", h.header.PageCount).Msg("heap file opened")
	return h, nil
}

func (h *HeapFile) pinHeader() error {
	pid, err := h.file.FirstPageID()
	if err != nil {
		return errors.Wrapf(ErrCorruptHeader, "%s has no header page: %v", h.file.Name(), err)
	}

	p, err := h.pool.GetPage(h.file, pid)
	if err != nil {
		return err
	}

	header, err := pages.ReadFileHeader(p.GetData())
	if err != nil {
		if uErr := h.pool.Unpin(h.file, pid, false); uErr != nil {
			h.logger.Error().Err(uErr).Str("file", h.file.Name()).Msg("unpin of header page failed")
		}
		return errors.Wrap(err, h.file.Name())
	}

	h.headerPage = buffer.NewPageReleaser(h.pool, h.file, p)
	h.header = header
	return nil
}

// Close releases the pages pinned by the handle, writes dirty pages of the file and closes it. Every step is tried
// even if a previous one fails, the first failure is returned. Closing a closed handle does nothing.
func (h *HeapFile) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	var first error
	keep := func(err error, msg string) {
		if err == nil {
			return
		}
		h.logger.Error().Err(err).Str("file", h.file.Name()).Msg(msg)
		if first == nil {
			first = err
		}
	}

	keep(h.releaseCurrent(), "releasing current page failed")
	if h.headerPage != nil {
		keep(h.headerPage.Release(), "releasing header page failed")
		h.headerPage = nil
	}
	keep(h.pool.FlushFile(h.file), "flushing pages failed")
	keep(h.files.Close(h.file), "closing file failed")

	h.curRec = NullRID
	h.logger.Debug().Str("file", h.file.Name()).Msg("heap file closed")
	return first
}

// RecordCount returns the number of records in the file.
func (h *HeapFile) RecordCount() uint64 {
	h.syncHeader()
	return h.header.RecordCount
}

// PageCount returns the number of pages in the chain including the header page.
func (h *HeapFile) PageCount() uint64 {
	h.syncHeader()
	return h.header.PageCount
}

func (h *HeapFile) FirstPage() uint64 {
	h.syncHeader()
	return h.header.FirstPage
}

func (h *HeapFile) LastPage() uint64 {
	h.syncHeader()
	return h.header.LastPage
}

func (h *HeapFile) Name() string {
	return h.file.Name()
}

// GetRecord reads the record at rid and makes it the current record. The returned data is a copy.
func (h *HeapFile) GetRecord(rid RID) (*Record, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}

	if rid.IsNull() || rid.SlotIdx < 0 || rid.PageID == h.headerPage.GetPageId() {
		return nil, errors.Wrapf(ErrRecordNotFound, "rid %v", rid)
	}

	if err := h.moveTo(rid.PageID); err != nil {
		return nil, err
	}

	data, err := h.currentHeapPage().GetTuple(rid.SlotIdx)
	if err != nil {
		return nil, errors.Wrapf(err, "rid %v", rid)
	}

	h.curRec = rid
	return &Record{Data: common.Clone(data), Rid: rid}, nil
}

func (h *HeapFile) checkOpen() error {
	if h.closed {
		return ErrHandleClosed
	}
	return nil
}

// syncHeader reloads the header from the pinned header page. Handles of the same file share that page, so another
// handle may have changed it.
func (h *HeapFile) syncHeader() {
	if h.headerPage == nil {
		return
	}
	if header, err := pages.ReadFileHeader(h.headerPage.GetData()); err == nil {
		h.header = header
	}
}

// updateHeader applies fn to the header and writes it to the pinned header page.
func (h *HeapFile) updateHeader(fn func(header *pages.FileHeader)) {
	h.syncHeader()
	fn(&h.header)
	pages.WriteFileHeader(h.header, h.headerPage.GetData())
	h.headerPage.MarkDirty()
}

// releaseCurrent unpins the current page if there is one. The page is given up even if unpin fails.
func (h *HeapFile) releaseCurrent() error {
	if h.curPage == nil {
		return nil
	}

	p := h.curPage
	h.curPage = nil
	return p.Release()
}

// pinCurrent pins the page and makes it current. There must be no current page.
func (h *HeapFile) pinCurrent(pageId uint64) error {
	if h.curPage != nil {
		panic("pinning a page while another page is current")
	}

	p, err := h.pool.GetPage(h.file, pageId)
	if err != nil {
		return err
	}

	h.curPage = buffer.NewPageReleaser(h.pool, h.file, p)
	return nil
}

// moveTo makes pageId the current page, releasing the current one if it is another page.
func (h *HeapFile) moveTo(pageId uint64) error {
	if h.curPageID() == pageId {
		return nil
	}

	if err := h.releaseCurrent(); err != nil {
		return err
	}
	return h.pinCurrent(pageId)
}

func (h *HeapFile) curPageID() uint64 {
	if h.curPage == nil {
		return common.InvalidPageID
	}
	return h.curPage.GetPageId()
}

func (h *HeapFile) currentHeapPage() *pages.HeapPage {
	return pages.AsHeapPage(h.curPage.RawPage)
}
