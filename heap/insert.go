package heap

import (
	"github.com/pkg/errors"
	"heapfile/buffer"
	"heapfile/disk/pages"
)

// Inserter appends records to the last page of a heap file. When the last page is full a new page is linked to the
// end of the chain. It needs three frames of the pool, one each for the header, the last page and the new page.
type Inserter struct {
	*HeapFile
}

func OpenInserter(files FileStore, pool PageStore, name string, opts ...Option) (*Inserter, error) {
	h, err := Open(files, pool, name, opts...)
	if err != nil {
		return nil, err
	}

	return &Inserter{HeapFile: h}, nil
}

// InsertRecord stores a copy of data and returns its RID, which becomes the current record.
func (i *Inserter) InsertRecord(data []byte) (RID, error) {
	if err := i.checkOpen(); err != nil {
		return NullRID, err
	}
	if len(data) > pages.MaxRecordSize {
		return NullRID, errors.Wrapf(ErrRecordTooLarge, "record of %d bytes, max %d", len(data), pages.MaxRecordSize)
	}

	i.syncHeader()
	if err := i.moveTo(i.header.LastPage); err != nil {
		return NullRID, err
	}

	idx, err := i.currentHeapPage().InsertTuple(data)
	if errors.Is(err, pages.ErrNoSpace) {
		if err := i.grow(); err != nil {
			return NullRID, err
		}
		idx, err = i.currentHeapPage().InsertTuple(data)
	}
	if err != nil {
		return NullRID, err
	}

	i.curPage.MarkDirty()
	i.updateHeader(func(header *pages.FileHeader) {
		header.RecordCount++
	})

	i.curRec = RID{PageID: i.curPageID(), SlotIdx: idx}
	return i.curRec, nil
}

// grow links a new empty page after the current page, which is the last page, and makes it current.
func (i *Inserter) grow() error {
	p, err := i.pool.NewPage(i.file)
	if err != nil {
		return err
	}

	pages.InitHeapPage(p)
	next := buffer.NewPageReleaser(i.pool, i.file, p)
	next.MarkDirty()

	full := i.curPageID()
	i.currentHeapPage().SetNextPageID(p.GetPageId())
	i.curPage.MarkDirty()

	i.updateHeader(func(header *pages.FileHeader) {
		header.LastPage = p.GetPageId()
		header.PageCount++
	})

	if err := i.releaseCurrent(); err != nil {
		if rErr := next.Release(); rErr != nil {
			i.logger.Error().Err(rErr).Str("file", i.Name()).Uint64("page", p.GetPageId()).Msg("releasing new page failed")
		}
		return err
	}

	i.curPage = next
	i.logger.Debug().Str("file", i.Name()).Uint64("full", full).Uint64("page", p.GetPageId()).Uint64("pages", i.header.PageCount).Msg("heap file grown")
	return nil
}
