package pages

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"heapfile/common"
	"testing"
)

type SlotIdxOffsetPair struct {
	offset int
	idx    int
}

func newHeapPageTestInstance() *HeapPage {
	return InitHeapPage(NewRawPage(1))
}

func offsetOf(t *testing.T, p *HeapPage, idx int) int {
	entry, err := p.getFromSlotArr(idx)
	require.NoError(t, err)
	return int(entry.Offset)
}

func TestInsert_Tuple(t *testing.T) {
	p := newHeapPageTestInstance()
	toInsert := []byte("selam")
	_, err := p.InsertTuple(toInsert)
	require.NoError(t, err)
	res, err := p.GetTuple(0)

	assert.NoError(t, err)
	assert.Len(t, p.getSlotArr(), 1)
	assert.Equal(t, toInsert, res)
}

func TestInit_Heap_Page_Should_Have_No_Successor_And_No_Tuples(t *testing.T) {
	p := newHeapPageTestInstance()

	assert.Equal(t, common.InvalidPageID, p.GetNextPageID())
	assert.Equal(t, 0, p.NumTuples())
	assert.Equal(t, MaxRecordSize+SLOT_ARRAY_ENTRY_SIZE, p.GetFreeSpace())

	_, err := p.FirstIdx()
	assert.ErrorIs(t, err, ErrEmptyPage)
}

func TestSet_Next_Page_ID_Should_Not_Touch_Tuples(t *testing.T) {
	p := newHeapPageTestInstance()
	idx, err := p.InsertTuple([]byte("selam"))
	require.NoError(t, err)

	p.SetNextPageID(42)

	assert.Equal(t, uint64(42), p.GetNextPageID())
	res, err := p.GetTuple(idx)
	require.NoError(t, err)
	assert.Equal(t, []byte("selam"), res)
}

func TestAll_Inserted_Should_Be_Found(t *testing.T) {
	p := newHeapPageTestInstance()
	n := 100
	for i := 0; i < n; i++ {
		toInsert := []byte(fmt.Sprintf("selam_%v", i))
		_, err := p.InsertTuple(toInsert)
		require.NoError(t, err)
	}
	assert.Len(t, p.getSlotArr(), n)

	for i := 0; i < n; i++ {
		res, err := p.GetTuple(i)
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("selam_%v", i)), res)
	}
}

func TestInsert_Tuple_Should_Return_ErrNoSpace_When_There_Is_No_Enough_Space_Left(t *testing.T) {
	p := newHeapPageTestInstance()
	freeSpace := p.GetFreeSpace()

	toInsert := make([]byte, freeSpace/3)

	_, err := p.InsertTuple(toInsert)
	assert.NoError(t, err)
	_, err = p.InsertTuple(toInsert)
	assert.NoError(t, err)

	_, err = p.InsertTuple(toInsert)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestInsert_Tuple_Of_Max_Record_Size_Should_Fit_In_Empty_Page(t *testing.T) {
	p := newHeapPageTestInstance()

	_, err := p.InsertTuple(make([]byte, MaxRecordSize))
	require.NoError(t, err)
	assert.Equal(t, 0, p.GetFreeSpace())

	_, err = p.InsertTuple([]byte{})
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestZero_Length_Tuple_Should_Be_Found(t *testing.T) {
	p := newHeapPageTestInstance()

	idx, err := p.InsertTuple([]byte{})
	require.NoError(t, err)

	res, err := p.GetTuple(idx)
	require.NoError(t, err)
	assert.Len(t, res, 0)

	first, err := p.FirstIdx()
	require.NoError(t, err)
	assert.Equal(t, idx, first)
}

func TestHeapPage_Delete_Should_Update_Other_Slots_Offsets_Correctly_When_Deleted_Item_From_End_Of_Tuple_Space(t *testing.T) {
	p := newHeapPageTestInstance()
	tupleSize := 10
	insertCount := 50

	pairs := make([]SlotIdxOffsetPair, 0, insertCount)

	for i := 0; i < insertCount; i++ {
		toInsert := make([]byte, tupleSize)
		idx, err := p.InsertTuple(toInsert)
		assert.NoError(t, err)
		pairs = append(pairs, SlotIdxOffsetPair{idx: idx, offset: offsetOf(t, p, idx)})
	}

	require.NoError(t, p.DeleteTuple(pairs[0].idx))

	for i, pair := range pairs {
		if i == 0 {
			_, err := p.GetTuple(pair.idx)
			assert.ErrorIs(t, err, ErrRecordNotFound)
			continue
		}
		assert.Equal(t, pair.offset+tupleSize, offsetOf(t, p, pair.idx))
	}
}

func TestHeapPage_Delete_Should_Update_Other_Slots_Offsets_Correctly_When_Deleted_Item_From_Middle_Of_Tuple_Space(t *testing.T) {
	p := newHeapPageTestInstance()
	tupleSize := 10
	insertCount := 50
	deleteIdx := 25

	pairs := make([]SlotIdxOffsetPair, 0, insertCount)

	for i := 0; i < insertCount; i++ {
		toInsert := make([]byte, tupleSize)
		idx, err := p.InsertTuple(toInsert)
		assert.NoError(t, err)
		pairs = append(pairs, SlotIdxOffsetPair{idx: idx, offset: offsetOf(t, p, idx)})
	}

	require.NoError(t, p.DeleteTuple(pairs[deleteIdx].idx))

	for i, pair := range pairs {
		if i == deleteIdx {
			_, err := p.GetTuple(pair.idx)
			assert.ErrorIs(t, err, ErrRecordNotFound)
		} else if i < deleteIdx {
			// inserted before the deleted one, stored at higher offsets
			assert.Equal(t, pair.offset, offsetOf(t, p, pair.idx))
		} else {
			assert.Equal(t, pair.offset+tupleSize, offsetOf(t, p, pair.idx))
		}
	}
}

func TestHeapPage_Deleted_Slots_Should_Not_Be_Found_And_Others_Should_Keep_Content(t *testing.T) {
	p := newHeapPageTestInstance()
	tupleSize := 10
	insertCount := 50
	toDeleteIndexes := []int{1, 2, 3, 16, 49}

	for i := 0; i < insertCount; i++ {
		toInsert := make([]byte, tupleSize)
		toInsert[0] = byte(i)
		idx, err := p.InsertTuple(toInsert)
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}

	for _, idx := range toDeleteIndexes {
		require.NoError(t, p.DeleteTuple(idx))
	}

	for i := 0; i < insertCount; i++ {
		tuple, err := p.GetTuple(i)
		if contains(toDeleteIndexes, i) {
			require.ErrorIs(t, err, ErrRecordNotFound)
			continue
		}

		require.NoError(t, err)
		require.Equal(t, byte(i), tuple[0])
	}
	assert.Equal(t, insertCount-len(toDeleteIndexes), p.NumTuples())
}

func TestDelete_Tuple_Twice_Should_Return_ErrRecordNotFound(t *testing.T) {
	p := newHeapPageTestInstance()
	idx, err := p.InsertTuple([]byte("selam"))
	require.NoError(t, err)

	require.NoError(t, p.DeleteTuple(idx))
	assert.ErrorIs(t, p.DeleteTuple(idx), ErrRecordNotFound)
	assert.ErrorIs(t, p.DeleteTuple(idx+1), ErrRecordNotFound)
}

func TestInsert_Should_Reuse_Deleted_Slot_And_Reclaim_Space(t *testing.T) {
	p := newHeapPageTestInstance()
	for i := 0; i < 5; i++ {
		_, err := p.InsertTuple([]byte("0123456789"))
		require.NoError(t, err)
	}
	free := p.GetFreeSpace()

	require.NoError(t, p.DeleteTuple(2))
	assert.Equal(t, free+10, p.GetFreeSpace())

	idx, err := p.InsertTuple([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, free+7, p.GetFreeSpace())
}

func TestNext_Idx_Should_Skip_Deleted_Slots(t *testing.T) {
	p := newHeapPageTestInstance()
	for i := 0; i < 6; i++ {
		_, err := p.InsertTuple([]byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, p.DeleteTuple(0))
	require.NoError(t, p.DeleteTuple(2))
	require.NoError(t, p.DeleteTuple(3))
	require.NoError(t, p.DeleteTuple(5))

	first, err := p.FirstIdx()
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	next, err := p.GetNextIdx(first)
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	// a deleted slot is still a valid position to continue from
	next, err = p.GetNextIdx(2)
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	_, err = p.GetNextIdx(4)
	assert.ErrorIs(t, err, ErrEndOfPage)
}

func TestHeapPage_Update_Should_Not_Return_Error_When_There_Is_Enough_Space_In_Page(t *testing.T) {
	p := newHeapPageTestInstance()
	tupleSize := p.GetFreeSpace() - SLOT_ARRAY_ENTRY_SIZE
	data := make([]byte, tupleSize)
	idx, err := p.InsertTuple(data)
	require.NoError(t, err)

	data[0] = byte('x')
	err = p.UpdateTuple(idx, data)
	require.NoError(t, err)

	newData, err := p.GetTuple(idx)
	require.NoError(t, err)
	require.Equal(t, byte('x'), newData[0])
}

func TestHeapPage_Update_With_Different_Size_Should_Keep_Slot(t *testing.T) {
	p := newHeapPageTestInstance()
	_, err := p.InsertTuple([]byte("first"))
	require.NoError(t, err)
	idx, err := p.InsertTuple([]byte("second"))
	require.NoError(t, err)
	_, err = p.InsertTuple([]byte("third"))
	require.NoError(t, err)

	require.NoError(t, p.UpdateTuple(idx, []byte("a much longer second")))

	for i, expected := range []string{"first", "a much longer second", "third"} {
		res, err := p.GetTuple(i)
		require.NoError(t, err)
		assert.Equal(t, expected, string(res))
	}
}

func TestReadEntry(t *testing.T) {
	test := []HeapPageArrEntry{{
		Offset: 1,
		Size:   1,
	}, {
		Offset: 2,
		Size:   2,
	}}

	buf := bytes.Buffer{}
	err := binary.Write(&buf, binary.BigEndian, &test)
	assert.NoError(t, err)

	res := readEntry(len(test), buf.Bytes())

	assert.ElementsMatch(t, test, res)
}

func contains(arr []int, x int) bool {
	for _, n := range arr {
		if x == n {
			return true
		}
	}
	return false
}
