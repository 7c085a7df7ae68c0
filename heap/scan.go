package heap

import (
	"github.com/pkg/errors"
	"heapfile/common"
	"heapfile/disk/pages"
)

type scanState int

const (
	unstarted scanState = iota
	positioned
	exhausted
)

type scanMark struct {
	pageId uint64
	rec    RID
	state  scanState
}

// Scan iterates over the records of a heap file in chain order, then slot order in a page. Only records matching
// the predicate given to StartScan are returned. A scan keeps at most one data page pinned.
type Scan struct {
	*HeapFile
	pred  *Predicate
	state scanState
	mark  scanMark
}

// OpenScan opens the heap file for scanning. The scan matches every record until StartScan is called with a
// predicate.
func OpenScan(files FileStore, pool PageStore, name string, opts ...Option) (*Scan, error) {
	h, err := Open(files, pool, name, opts...)
	if err != nil {
		return nil, err
	}

	s := &Scan{HeapFile: h}
	s.resetCursor()
	return s, nil
}

// StartScan restarts the scan from the beginning of the chain with a new predicate. A nil predicate matches every
// record.
func (s *Scan) StartScan(pred *Predicate) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := pred.Validate(); err != nil {
		return err
	}

	err := s.releaseCurrent()
	s.pred = pred
	s.resetCursor()
	return err
}

// ScanNext advances to the next matching record and returns its RID. ErrEndOfFile is returned when the chain has
// no more matching records, after that it keeps returning ErrEndOfFile until the scan is restarted or reset.
func (s *Scan) ScanNext() (RID, error) {
	if err := s.checkOpen(); err != nil {
		return NullRID, err
	}

	s.syncHeader()

	var (
		idx int
		err error
	)

	switch s.state {
	case exhausted:
		return NullRID, ErrEndOfFile
	case unstarted:
		if s.header.FirstPage == common.InvalidPageID {
			s.exhaust()
			return NullRID, ErrEndOfFile
		}
		if err := s.moveTo(s.header.FirstPage); err != nil {
			return NullRID, err
		}
		idx, err = s.currentHeapPage().FirstIdx()
	case positioned:
		if err := s.moveTo(s.curRec.PageID); err != nil {
			return NullRID, err
		}
		idx, err = s.currentHeapPage().GetNextIdx(s.curRec.SlotIdx)
	}

	visited := uint64(1)
	for {
		if err != nil {
			if !errors.Is(err, pages.ErrEmptyPage) && !errors.Is(err, pages.ErrEndOfPage) {
				return NullRID, err
			}

			next := s.currentHeapPage().GetNextPageID()
			if next == common.InvalidPageID {
				s.exhaust()
				return NullRID, ErrEndOfFile
			}

			// header and data pages together can never be more than page count
			visited++
			if visited >= s.header.PageCount {
				return NullRID, errors.Wrapf(ErrCorruptChain, "%s: more than %d pages visited, page %d links to %d", s.Name(), s.header.PageCount, s.curPageID(), next)
			}

			if err := s.moveTo(next); err != nil {
				return NullRID, err
			}
			idx, err = s.currentHeapPage().FirstIdx()
			continue
		}

		data, tErr := s.currentHeapPage().GetTuple(idx)
		if tErr != nil {
			return NullRID, tErr
		}

		if s.pred.Match(data) {
			s.curRec = RID{PageID: s.curPageID(), SlotIdx: idx}
			s.state = positioned
			return s.curRec, nil
		}

		idx, err = s.currentHeapPage().GetNextIdx(idx)
	}
}

// EndScan releases the current page and rewinds the scan. Calling it more than once is harmless.
func (s *Scan) EndScan() error {
	err := s.releaseCurrent()
	s.resetCursor()
	return err
}

// MarkScan remembers the current position so that ResetScan can return to it.
func (s *Scan) MarkScan() {
	s.mark = scanMark{pageId: s.curPageID(), rec: s.curRec, state: s.state}
}

// ResetScan moves the scan back to the position saved by the last MarkScan. The next ScanNext returns the same record
// it returned after MarkScan. Without a mark the scan restarts.
func (s *Scan) ResetScan() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if s.mark.state == unstarted {
		err := s.releaseCurrent()
		s.curRec = NullRID
		s.state = unstarted
		return err
	}

	if s.mark.pageId != s.curPageID() {
		if err := s.releaseCurrent(); err != nil {
			return err
		}
		if s.mark.pageId != common.InvalidPageID {
			if err := s.pinCurrent(s.mark.pageId); err != nil {
				return err
			}
		}
	}

	s.curRec = s.mark.rec
	s.state = s.mark.state
	return nil
}

// GetRecord returns a copy of the record the scan is positioned on.
func (s *Scan) GetRecord() (*Record, error) {
	if err := s.positionOnCurrent(); err != nil {
		return nil, err
	}

	data, err := s.currentHeapPage().GetTuple(s.curRec.SlotIdx)
	if err != nil {
		return nil, errors.Wrapf(err, "rid %v", s.curRec)
	}

	return &Record{Data: common.Clone(data), Rid: s.curRec}, nil
}

// DeleteRecord deletes the record the scan is positioned on. The scan continues with the record after it.
func (s *Scan) DeleteRecord() error {
	if err := s.positionOnCurrent(); err != nil {
		return err
	}

	if err := s.currentHeapPage().DeleteTuple(s.curRec.SlotIdx); err != nil {
		return errors.Wrapf(err, "rid %v", s.curRec)
	}

	s.curPage.MarkDirty()
	s.updateHeader(func(header *pages.FileHeader) {
		header.RecordCount--
	})
	return nil
}

// UpdateRecord overwrites the current record. The new data must have the same length as the record.
func (s *Scan) UpdateRecord(data []byte) error {
	if err := s.positionOnCurrent(); err != nil {
		return err
	}

	p := s.currentHeapPage()
	old, err := p.GetTuple(s.curRec.SlotIdx)
	if err != nil {
		return errors.Wrapf(err, "rid %v", s.curRec)
	}
	if len(old) != len(data) {
		return errors.Wrapf(ErrRecordSizeMismatch, "rid %v has %d bytes, got %d", s.curRec, len(old), len(data))
	}

	if err := p.UpdateTuple(s.curRec.SlotIdx, data); err != nil {
		return err
	}

	s.curPage.MarkDirty()
	return nil
}

// MarkDirty marks the current page as modified. It is used when the caller changes the current record in place.
func (s *Scan) MarkDirty() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.curPage == nil {
		return ErrNoCurrentRecord
	}

	s.curPage.MarkDirty()
	return nil
}

// Close ends the scan and closes the heap file.
func (s *Scan) Close() error {
	err := s.EndScan()
	if cErr := s.HeapFile.Close(); err == nil {
		err = cErr
	}
	return err
}

func (s *Scan) resetCursor() {
	s.curRec = NullRID
	s.state = unstarted
	s.mark = scanMark{pageId: common.InvalidPageID, rec: NullRID, state: unstarted}
}

func (s *Scan) exhaust() {
	s.curRec = NullRID
	s.state = exhausted
}

// positionOnCurrent makes sure the page of the current record is pinned.
func (s *Scan) positionOnCurrent() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.state != positioned || s.curRec.IsNull() {
		return ErrNoCurrentRecord
	}

	return s.moveTo(s.curRec.PageID)
}
