package buffer

import (
	"fmt"
	"github.com/pkg/errors"
)

var errNoVictim = errors.New("nothing is unpinned")

// ReplacerStats counts the frames a replacer knows about. A frame is known once it is pinned for the first time.
type ReplacerStats struct {
	// Pinned frames hold a page that is in use, or are reserved by the pool.
	Pinned int
	// Candidates are unpinned frames that can be evicted.
	Candidates int
	// Victims is the number of frames chosen for eviction so far.
	Victims uint64
}

// IReplacer decides which frame is evicted when the pool is full. Only unpinned frames are candidates. A frame
// returned by Victim is no longer a candidate, it is treated as pinned until Unpin is called for it.
type IReplacer interface {
	Pin(frameIdx int)
	Unpin(frameIdx int)
	Victim() (frameIdx int, err error)
	Stats() ReplacerStats
}

type ReplacementPolicy int

const (
	ClockPolicy ReplacementPolicy = iota
	LRUPolicy
	RandomPolicy
)

func NewReplacer(policy ReplacementPolicy, poolSize int) IReplacer {
	switch policy {
	case LRUPolicy:
		return NewLruReplacer()
	case RandomPolicy:
		return NewRandomReplacer()
	default:
		return NewClockReplacer(poolSize)
	}
}

func panicNotPinned(frameIdx int) {
	panic(fmt.Sprintf("unpinning frame %d which is not pinned", frameIdx))
}
