package heap

import (
	"fmt"
	"heapfile/common"
)

// RID addresses a record by the page it is in and its slot index in that page. It stays valid until the record
// is deleted.
type RID struct {
	PageID  uint64
	SlotIdx int
}

// NullRID means there is no current record.
var NullRID = RID{PageID: common.InvalidPageID, SlotIdx: -1}

func (r RID) IsNull() bool {
	return r == NullRID
}

func (r RID) String() string {
	if r.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d.%d", r.PageID, r.SlotIdx)
}

// Record is a record of a heap file. Heap files do not care about the content of the records, they are kept as
// byte arrays.
type Record struct {
	Data []byte
	Rid  RID
}

func (r *Record) Length() int {
	return len(r.Data)
}
