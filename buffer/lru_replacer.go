package buffer

import (
	"container/list"
	"sync"
)

var _ IReplacer = &LruReplacer{}

// LruReplacer evicts the frame that was unpinned least recently.
type LruReplacer struct {
	// candidates in unpin order, front is the oldest
	order      *list.List
	candidates map[int]*list.Element
	pinned     map[int]struct{}
	victims    uint64
	lock       sync.Mutex
}

func NewLruReplacer() *LruReplacer {
	return &LruReplacer{
		order:      list.New(),
		candidates: make(map[int]*list.Element),
		pinned:     make(map[int]struct{}),
	}
}

func (l *LruReplacer) Pin(frameIdx int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if e, ok := l.candidates[frameIdx]; ok {
		l.order.Remove(e)
		delete(l.candidates, frameIdx)
	}
	l.pinned[frameIdx] = struct{}{}
}

func (l *LruReplacer) Unpin(frameIdx int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if _, ok := l.pinned[frameIdx]; !ok {
		panicNotPinned(frameIdx)
	}

	delete(l.pinned, frameIdx)
	l.candidates[frameIdx] = l.order.PushBack(frameIdx)
}

func (l *LruReplacer) Victim() (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	oldest := l.order.Front()
	if oldest == nil {
		return 0, errNoVictim
	}

	frameIdx := l.order.Remove(oldest).(int)
	delete(l.candidates, frameIdx)
	l.pinned[frameIdx] = struct{}{}
	l.victims++
	return frameIdx, nil
}

func (l *LruReplacer) Stats() ReplacerStats {
	l.lock.Lock()
	defer l.lock.Unlock()

	return ReplacerStats{Pinned: len(l.pinned), Candidates: l.order.Len(), Victims: l.victims}
}
