package pages

import (
	"bytes"
	"encoding/binary"
	"github.com/pkg/errors"
	"heapfile/common"
)

/**
 * Heap page format:
 *  ------------------------------------------------------------------
 *  | HEADER | SLOT ARRAY -> | ... FREE SPACE ... | <- TUPLES ...    |
 *  ------------------------------------------------------------------
 *                                               ^
 *                                               free space pointer
 *
 *  Header format (size in bytes):
 *  ------------------------------------------------------------
 *  | FreeSpacePointer (4) | SlotArrLen (2) | NextPageID (8) |
 *  ------------------------------------------------------------
 *  Slot array entry: | Offset (4) | Size (4) |
 *
 *  A slot whose offset is 0 is empty. Deleting a tuple empties its slot and compacts the tuple space, so slot
 *  indexes of the other tuples never change.
 */

type IHeapPage interface {
	GetHeader() HeapPageHeader
	SetHeader(h HeapPageHeader)

	GetNextPageID() uint64
	SetNextPageID(pageID uint64)

	GetFreeSpace() int

	// DeleteTuple deletes the tuple which is pointed by the value in the slot array at idxAtSlot
	DeleteTuple(idxAtSlot int) error
	GetTuple(idxAtSlot int) ([]byte, error)
	InsertTuple(data []byte) (int, error)
	UpdateTuple(idxAtSlot int, data []byte) error

	// FirstIdx returns the smallest slot index holding a tuple. If the page is empty returns ErrEmptyPage.
	FirstIdx() (int, error)

	// GetNextIdx returns the next not deleted slots idx in the slot array. If there is none returns ErrEndOfPage.
	GetNextIdx(currIdxAtSlot int) (int, error)
}

type HeapPageHeader struct {
	FreeSpacePointer uint32
	SLotArrLen       uint16
	NextPageID       uint64
}

type HeapPageArrEntry struct {
	Offset uint32
	Size   uint32
}

const SLOT_ARRAY_ENTRY_SIZE = 8

var HeapPageHeaderSize = binary.Size(HeapPageHeader{})

// MaxRecordSize is the size of the largest tuple an empty heap page can hold.
var MaxRecordSize = common.PageSize - HeapPageHeaderSize - SLOT_ARRAY_ENTRY_SIZE

var _ IHeapPage = &HeapPage{}

type HeapPage struct {
	*RawPage
}

func (hp *HeapPage) GetHeader() HeapPageHeader {
	reader := bytes.NewReader(hp.GetData())
	dest := HeapPageHeader{}

	// NOTE: reading a fixed size struct from a page sized buffer cannot fail
	err := binary.Read(reader, binary.BigEndian, &dest)
	common.PanicIfErr(err)
	return dest
}

func (hp *HeapPage) SetHeader(h HeapPageHeader) {
	buf := bytes.Buffer{}

	// NOTE: this error is actually the error returned by bytes.Buffer.Write call which always returns nil hence no need to check
	err := binary.Write(&buf, binary.BigEndian, &h)
	common.PanicIfErr(err)

	copy(hp.GetData(), buf.Bytes())
}

func (hp *HeapPage) GetNextPageID() uint64 {
	return hp.GetHeader().NextPageID
}

func (hp *HeapPage) SetNextPageID(pageID uint64) {
	h := hp.GetHeader()
	h.NextPageID = pageID
	hp.SetHeader(h)
}

func (hp *HeapPage) GetFreeSpace() int {
	h := hp.GetHeader()
	startingOffset := HeapPageHeaderSize + int(h.SLotArrLen)*SLOT_ARRAY_ENTRY_SIZE
	return int(h.FreeSpacePointer) - startingOffset
}

// NumTuples returns the number of live tuples in the page.
func (hp *HeapPage) NumTuples() int {
	n := 0
	for _, entry := range hp.getSlotArr() {
		if !isEmpty(entry) {
			n++
		}
	}
	return n
}

func (hp *HeapPage) FirstIdx() (int, error) {
	idx, err := hp.GetNextIdx(-1)
	if err == ErrEndOfPage {
		return 0, ErrEmptyPage
	}
	return idx, err
}

func (hp *HeapPage) GetNextIdx(currIdxAtSlot int) (int, error) {
	arr := hp.getSlotArr()
	for i := currIdxAtSlot + 1; i < len(arr); i++ {
		if !isEmpty(arr[i]) {
			return i, nil
		}
	}

	return 0, ErrEndOfPage
}

// GetTuple returns the tuple at idxAtSlot. Returned slice points into the page, callers should copy it if they
// keep it after unpinning the page.
func (hp *HeapPage) GetTuple(idxAtSlot int) ([]byte, error) {
	entry, err := hp.getFromSlotArr(idxAtSlot)
	if err != nil {
		return nil, err
	}
	if isEmpty(entry) {
		return nil, errors.Wrapf(ErrRecordNotFound, "slot %d of page %d is deleted", idxAtSlot, hp.GetPageId())
	}

	return hp.GetData()[entry.Offset : entry.Offset+entry.Size], nil
}

func (hp *HeapPage) InsertTuple(data []byte) (int, error) {
	/*
		first iterate slot arr to see if there is an empty slot that can be reused, then check if there is enough
		space in the page for the tuple and, if no empty slot is found, for a new slot array entry.
	*/
	arr := hp.getSlotArr()
	i := 0
	for ; i < len(arr); i++ {
		if isEmpty(arr[i]) {
			break
		}
	}

	need := len(data)
	if i == len(arr) {
		need += SLOT_ARRAY_ENTRY_SIZE
	}
	if hp.GetFreeSpace() < need {
		return 0, ErrNoSpace
	}

	h := hp.GetHeader()
	h.FreeSpacePointer -= uint32(len(data))
	if i == len(arr) {
		h.SLotArrLen++
	}
	copy(hp.GetData()[h.FreeSpacePointer:], data)
	hp.SetHeader(h)
	hp.setInSlotArr(i, HeapPageArrEntry{
		Offset: h.FreeSpacePointer,
		Size:   uint32(len(data)),
	})
	return i, nil
}

func (hp *HeapPage) UpdateTuple(idxAtSlot int, data []byte) error {
	oldData, err := hp.GetTuple(idxAtSlot)
	if err != nil {
		return err
	}

	if len(oldData) == len(data) {
		copy(oldData, data)
		return nil
	}

	if hp.GetFreeSpace()+len(oldData) < len(data) {
		return ErrNoSpace
	}

	if err := hp.DeleteTuple(idxAtSlot); err != nil {
		return err
	}

	h := hp.GetHeader()
	h.FreeSpacePointer -= uint32(len(data))
	copy(hp.GetData()[h.FreeSpacePointer:], data)
	hp.SetHeader(h)
	hp.setInSlotArr(idxAtSlot, HeapPageArrEntry{
		Offset: h.FreeSpacePointer,
		Size:   uint32(len(data)),
	})

	return nil
}

func (hp *HeapPage) DeleteTuple(idxAtSlot int) error {
	entry, err := hp.getFromSlotArr(idxAtSlot)
	if err != nil {
		return err
	}
	if isEmpty(entry) {
		return errors.Wrapf(ErrRecordNotFound, "slot %d of page %d is already deleted", idxAtSlot, hp.GetPageId())
	}

	h := hp.GetHeader()
	data := hp.GetData()

	// shift tuples stored before the deleted one towards the end of the page
	copy(data[h.FreeSpacePointer+entry.Size:entry.Offset+entry.Size], data[h.FreeSpacePointer:entry.Offset])
	h.FreeSpacePointer += entry.Size
	hp.setInSlotArr(idxAtSlot, HeapPageArrEntry{})
	hp.SetHeader(h)

	// update all tuples' offsets that comes before the deleted one
	for i, currEntry := range hp.getSlotArr() {
		if !isEmpty(currEntry) && currEntry.Offset < entry.Offset {
			currEntry.Offset += entry.Size
			hp.setInSlotArr(i, currEntry)
		}
	}

	return nil
}

func (hp *HeapPage) getSlotArr() []HeapPageArrEntry {
	header := hp.GetHeader()
	return readEntry(int(header.SLotArrLen), hp.GetData()[HeapPageHeaderSize:])
}

func (hp *HeapPage) getFromSlotArr(idx int) (HeapPageArrEntry, error) {
	h := hp.GetHeader()
	if idx < 0 || idx >= int(h.SLotArrLen) {
		return HeapPageArrEntry{}, errors.Wrapf(ErrRecordNotFound, "slot %d does not exist in page %d", idx, hp.GetPageId())
	}

	offset := HeapPageHeaderSize + SLOT_ARRAY_ENTRY_SIZE*idx
	data := hp.GetData()
	return HeapPageArrEntry{
		Offset: binary.BigEndian.Uint32(data[offset:]),
		Size:   binary.BigEndian.Uint32(data[offset+4:]),
	}, nil
}

func (hp *HeapPage) setInSlotArr(idx int, val HeapPageArrEntry) {
	offset := HeapPageHeaderSize + SLOT_ARRAY_ENTRY_SIZE*idx
	if offset+SLOT_ARRAY_ENTRY_SIZE > common.PageSize {
		panic("page overflow error")
	}

	data := hp.GetData()
	binary.BigEndian.PutUint32(data[offset:], val.Offset)
	binary.BigEndian.PutUint32(data[offset+4:], val.Size)
}

func isEmpty(entry HeapPageArrEntry) bool {
	return entry.Offset == 0
}

func readEntry(count int, data []byte) []HeapPageArrEntry {
	reader := bytes.NewReader(data)
	res := make([]HeapPageArrEntry, 0, count)
	for i := 0; i < count; i++ {
		x := HeapPageArrEntry{}
		err := binary.Read(reader, binary.BigEndian, &x)
		common.PanicIfErr(err)
		res = append(res, x)
	}
	return res
}

func AsHeapPage(page *RawPage) *HeapPage {
	return &HeapPage{RawPage: page}
}

// InitHeapPage formats page as an empty heap page with no successor.
func InitHeapPage(page *RawPage) *HeapPage {
	s := &HeapPage{RawPage: page}
	for i := range s.GetData() {
		s.GetData()[i] = 0
	}

	s.SetHeader(HeapPageHeader{
		FreeSpacePointer: uint32(common.PageSize),
		SLotArrLen:       0,
		NextPageID:       common.InvalidPageID,
	})

	return s
}
