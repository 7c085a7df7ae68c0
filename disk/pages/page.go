package pages

import (
	"heapfile/common"
)

// IPage is a wrapper for actual physical pages in the file system. It can provide the actual content of the
// physical page as a byte array. It also keeps some useful information about the page for buffer pool.
type IPage interface {
	GetData() []byte

	// GetPageId returns the page_id of the physical page.
	GetPageId() uint64
	GetPinCount() int
	IsDirty() bool
	SetDirty()
	SetClean()
	IncrPinCount()
	DecrPinCount()
}

var _ IPage = &RawPage{}

// RawPage is the content of a buffer pool frame. Pin count and dirty flag are only modified by the buffer pool
// while holding its lock.
type RawPage struct {
	PageId   uint64
	isDirty  bool
	PinCount int
	Data     []byte
}

func NewRawPage(pageId uint64) *RawPage {
	return &RawPage{
		PageId:   pageId,
		isDirty:  false,
		PinCount: 0,
		Data:     make([]byte, common.PageSize, common.PageSize),
	}
}

func (p *RawPage) IncrPinCount() {
	p.PinCount++
}

func (p *RawPage) DecrPinCount() {
	p.PinCount--
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

func (p *RawPage) GetPageId() uint64 {
	return p.PageId
}

func (p *RawPage) GetPinCount() int {
	return p.PinCount
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

// Clear zeroes page content and resets its state so that the frame can be reused for another page.
func (p *RawPage) Clear() {
	for i := range p.Data {
		p.Data[i] = 0
	}
	p.isDirty = false
	p.PinCount = 0
}
