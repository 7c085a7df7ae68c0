package buffer

import (
	"math/rand"
	"sync"
)

var _ IReplacer = &RandomReplacer{}

// RandomReplacer chooses a random frame among the unpinned ones. It is mostly useful in tests to shake out code
// that depends on a specific eviction order.
type RandomReplacer struct {
	unpinned map[int]struct{}
	pinned   map[int]struct{}
	victims  uint64
	rnd      *rand.Rand
	lock     sync.Mutex
}

func NewRandomReplacer() *RandomReplacer {
	return &RandomReplacer{
		unpinned: make(map[int]struct{}),
		pinned:   make(map[int]struct{}),
		rnd:      rand.New(rand.NewSource(rand.Int63())),
	}
}

func (r *RandomReplacer) Pin(frameIdx int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.unpinned, frameIdx)
	r.pinned[frameIdx] = struct{}{}
}

func (r *RandomReplacer) Unpin(frameIdx int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.pinned[frameIdx]; !ok {
		panicNotPinned(frameIdx)
	}

	delete(r.pinned, frameIdx)
	r.unpinned[frameIdx] = struct{}{}
}

func (r *RandomReplacer) Victim() (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(r.unpinned) == 0 {
		return 0, errNoVictim
	}

	candidates := make([]int, 0, len(r.unpinned))
	for frameIdxx := range r.unpinned {
		candidates = append(candidates, frameIdxx)
	}

	victim := candidates[r.rnd.Intn(len(candidates))]
	delete(r.unpinned, victim)
	r.pinned[victim] = struct{}{}
	r.victims++
	return victim, nil
}

func (r *RandomReplacer) Stats() ReplacerStats {
	r.lock.Lock()
	defer r.lock.Unlock()

	return ReplacerStats{Pinned: len(r.pinned), Candidates: len(r.unpinned), Victims: r.victims}
}
