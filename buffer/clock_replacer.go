package buffer

import "sync"

var _ IReplacer = &ClockReplacer{}

type clockFrame struct {
	known      bool
	pinned     bool
	referenced bool
}

// ClockReplacer approximates LRU with one reference bit per frame. Unpinning a frame sets its bit. The hand sweeps
// the frames in order and a candidate whose bit is set loses it instead of being chosen, so a frame used since the
// last sweep survives one more round.
type ClockReplacer struct {
	ring  []clockFrame
	hand  int
	stats ReplacerStats
	lock  sync.Mutex
}

func NewClockReplacer(poolSize int) *ClockReplacer {
	return &ClockReplacer{ring: make([]clockFrame, poolSize)}
}

func (c *ClockReplacer) Pin(frameIdx int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	f := &c.ring[frameIdx]
	switch {
	case !f.known:
		f.known = true
	case f.pinned:
		return
	default:
		c.stats.Candidates--
	}

	f.pinned = true
	c.stats.Pinned++
}

func (c *ClockReplacer) Unpin(frameIdx int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	f := &c.ring[frameIdx]
	if !f.pinned {
		panicNotPinned(frameIdx)
	}

	f.pinned = false
	f.referenced = true
	c.stats.Pinned--
	c.stats.Candidates++
}

func (c *ClockReplacer) Victim() (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.stats.Candidates == 0 {
		return 0, errNoVictim
	}

	// a candidate exists, so it is reached with its bit cleared within two revolutions
	for {
		idx := c.hand
		c.hand = (c.hand + 1) % len(c.ring)

		f := &c.ring[idx]
		if !f.known || f.pinned {
			continue
		}
		if f.referenced {
			f.referenced = false
			continue
		}

		f.pinned = true
		c.stats.Candidates--
		c.stats.Pinned++
		c.stats.Victims++
		return idx, nil
	}
}

func (c *ClockReplacer) Stats() ReplacerStats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stats
}
