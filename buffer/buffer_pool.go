package buffer

import (
	"fmt"
	"github.com/phuslu/log"
	"github.com/pkg/errors"
	"heapfile/common"
	"heapfile/disk"
	"heapfile/disk/pages"
	"heapfile/logging"
	"sync"
)

var (
	// ErrAllocationFailed is returned when every frame in the pool is pinned and a new page cannot be brought in.
	ErrAllocationFailed = errors.New("no frame can be allocated, all pages are pinned")

	// ErrUnpinFailed is returned when unpinning a page which is not in the pool or whose pin count is already zero.
	ErrUnpinFailed = errors.New("unpin failed")

	ErrPageStillPinned = errors.New("page is still pinned")
)

type Pool interface {
	// GetPage pins the page and returns it, reading it from the file if it is not in the pool.
	GetPage(f *disk.File, pageId uint64) (*pages.RawPage, error)

	// NewPage allocates a page at the end of the file and returns it pinned.
	NewPage(f *disk.File) (*pages.RawPage, error)

	// Unpin releases one pin on the page. If isDirty is true page is written back to file before it is evicted.
	Unpin(f *disk.File, pageId uint64, isDirty bool) error

	// FlushFile writes every dirty page of the file that is in the pool.
	FlushFile(f *disk.File) error
	FlushAll() error

	// DiscardFile drops every page of the named file from the pool without writing them. It fails if one of them
	// is pinned.
	DiscardFile(name string) error

	// EmptyFrameSize returns the number empty frames which does not hold data of any physical page
	EmptyFrameSize() int
}

type pageKey struct {
	file   string
	pageId uint64
}

type frame struct {
	page *pages.RawPage
	file *disk.File
}

// Options configures a BufferPool.
type Options struct {
	PoolSize int
	Policy   ReplacementPolicy
	Logger   *log.Logger
}

var _ Pool = &BufferPool{}

// BufferPool caches pages of many files in a fixed number of frames. It is safe for concurrent use, a single
// lock protects its state.
type BufferPool struct {
	poolSize    int
	frames      []*frame
	pageMap     map[pageKey]int // (file, physical page_id) => frame index which keeps that page
	emptyFrames []int           // list of indexes that points to empty frames in the pool
	Replacer    IReplacer
	lock        sync.Mutex
	logger      *log.Logger
}

func NewBufferPool(opts Options) *BufferPool {
	if opts.PoolSize <= 0 {
		opts.PoolSize = common.DefaultPoolSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultLogger()
	}

	emptyFrames := make([]int, opts.PoolSize)
	for i := 0; i < opts.PoolSize; i++ {
		emptyFrames[i] = i
	}

	return &BufferPool{
		poolSize:    opts.PoolSize,
		frames:      make([]*frame, opts.PoolSize),
		pageMap:     map[pageKey]int{},
		emptyFrames: emptyFrames,
		Replacer:    NewReplacer(opts.Policy, opts.PoolSize),
		logger:      opts.Logger,
	}
}

func (b *BufferPool) GetPage(f *disk.File, pageId uint64) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	key := pageKey{file: f.Name(), pageId: pageId}
	if frameIdx, ok := b.pageMap[key]; ok {
		// file might have been closed and opened again since the page was read
		b.frames[frameIdx].file = f
		b.pin(frameIdx)
		return b.frames[frameIdx].page, nil
	}

	frameIdx, err := b.reserveFrame()
	if err != nil {
		return nil, errors.Wrapf(err, "get page %d of %s", pageId, f.Name())
	}

	fr := b.frames[frameIdx]
	fr.page.Clear()
	fr.page.PageId = pageId
	fr.file = f

	// read page and put it inside the frame
	if err := f.ReadPage(pageId, fr.page.GetData()); err != nil {
		b.unReserveFrame(frameIdx)
		return nil, err
	}

	b.pageMap[key] = frameIdx
	b.pin(frameIdx)
	return fr.page, nil
}

func (b *BufferPool) NewPage(f *disk.File) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	// frame is reserved first so that file does not grow when there is no room in the pool.
	frameIdx, err := b.reserveFrame()
	if err != nil {
		return nil, errors.Wrapf(err, "new page in %s", f.Name())
	}

	newPageId, err := f.NewPage()
	if err != nil {
		b.unReserveFrame(frameIdx)
		return nil, err
	}

	fr := b.frames[frameIdx]
	fr.page.Clear()
	fr.page.PageId = newPageId
	fr.file = f

	b.pageMap[pageKey{file: f.Name(), pageId: newPageId}] = frameIdx
	b.pin(frameIdx)
	fr.page.SetDirty()
	return fr.page, nil
}

func (b *BufferPool) Unpin(f *disk.File, pageId uint64, isDirty bool) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageKey{file: f.Name(), pageId: pageId}]
	if !ok {
		return errors.Wrapf(ErrUnpinFailed, "page %d of %s is not in the pool", pageId, f.Name())
	}

	fr := b.frames[frameIdx]
	if fr.page.GetPinCount() <= 0 {
		return errors.Wrapf(ErrUnpinFailed, "page %d of %s is not pinned", pageId, f.Name())
	}

	if isDirty {
		fr.page.SetDirty()
	}

	// decrease pin count and if it is 0 unpin frame in the replacer so that new pages can be read
	fr.page.DecrPinCount()
	if fr.page.GetPinCount() == 0 {
		b.Replacer.Unpin(frameIdx)
	}

	return nil
}

func (b *BufferPool) FlushFile(f *disk.File) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.flush(func(key pageKey) bool { return key.file == f.Name() })
}

func (b *BufferPool) FlushAll() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.flush(func(pageKey) bool { return true })
}

func (b *BufferPool) DiscardFile(name string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	toDiscard := make([]pageKey, 0)
	for key, frameIdx := range b.pageMap {
		if key.file != name {
			continue
		}
		if pinCount := b.frames[frameIdx].page.GetPinCount(); pinCount > 0 {
			return errors.Wrapf(ErrPageStillPinned, "page %d of %s, pin count %d", key.pageId, name, pinCount)
		}
		toDiscard = append(toDiscard, key)
	}

	for _, key := range toDiscard {
		frameIdx := b.pageMap[key]
		delete(b.pageMap, key)

		// frame is taken out of the replacer's candidates until it is reserved again.
		b.Replacer.Pin(frameIdx)
		b.frames[frameIdx].file = nil
		b.frames[frameIdx].page.Clear()
		b.emptyFrames = append(b.emptyFrames, frameIdx)
	}

	return nil
}

func (b *BufferPool) EmptyFrameSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.emptyFrames)
}

// ReplacerStats returns the frame counts of the replacement policy.
func (b *BufferPool) ReplacerStats() ReplacerStats {
	return b.Replacer.Stats()
}

// PinnedCount returns total pin count of the pages of the named file that are in the pool.
func (b *BufferPool) PinnedCount(name string) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	n := 0
	for key, frameIdx := range b.pageMap {
		if key.file == name {
			n += b.frames[frameIdx].page.GetPinCount()
		}
	}
	return n
}

// PinCount returns pin count of a page, or 0 if it is not in the pool.
func (b *BufferPool) PinCount(f *disk.File, pageId uint64) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pageMap[pageKey{file: f.Name(), pageId: pageId}]; ok {
		return b.frames[frameIdx].page.GetPinCount()
	}
	return 0
}

// pin increments page's pin count and pins the frame that keeps the page to avoid it being chosen as victim
func (b *BufferPool) pin(frameIdx int) {
	b.frames[frameIdx].page.IncrPinCount()
	b.Replacer.Pin(frameIdx)
}

func (b *BufferPool) flush(filter func(pageKey) bool) error {
	for key, frameIdx := range b.pageMap {
		if !filter(key) {
			continue
		}

		fr := b.frames[frameIdx]
		if !fr.page.IsDirty() {
			continue
		}

		if err := fr.file.WritePage(fr.page.GetData(), key.pageId); err != nil {
			return err
		}
		fr.page.SetClean()
	}

	return nil
}

// reserveFrame returns an unused frame. If there is no empty frame a victim is chosen and written to disk if it is
// dirty. Returned frame is not in the page map and not a candidate of the replacer.
func (b *BufferPool) reserveFrame() (int, error) {
	if len(b.emptyFrames) > 0 {
		emptyFrameIdx := b.emptyFrames[0]
		b.emptyFrames = b.emptyFrames[1:]
		if b.frames[emptyFrameIdx] == nil {
			b.frames[emptyFrameIdx] = &frame{page: pages.NewRawPage(common.InvalidPageID)}
		}
		b.Replacer.Pin(emptyFrameIdx)
		return emptyFrameIdx, nil
	}

	return b.evictVictim()
}

func (b *BufferPool) unReserveFrame(idx int) {
	b.frames[idx].file = nil
	b.frames[idx].page.Clear()
	b.emptyFrames = append(b.emptyFrames, idx)
}

// evictVictim chooses a victim page, writes its data to disk if it is dirty and returns emptied frame's index.
func (b *BufferPool) evictVictim() (int, error) {
	victimFrameIdx, err := b.Replacer.Victim()
	if err != nil {
		return 0, errors.Wrapf(ErrAllocationFailed, "%d of %d frames pinned", b.Replacer.Stats().Pinned, b.poolSize)
	}

	victim := b.frames[victimFrameIdx]
	if victim.page.GetPinCount() != 0 {
		panic(fmt.Sprintf("a page is chosen as victim while it's pin count is not zero. pin count: %v, page_id: %v", victim.page.GetPinCount(), victim.page.GetPageId()))
	}

	if victim.page.IsDirty() {
		if err := victim.file.WritePage(victim.page.GetData(), victim.page.GetPageId()); err != nil {
			// victim stays in the pool and remains a candidate
			b.Replacer.Unpin(victimFrameIdx)
			return 0, err
		}
	}

	stats := b.Replacer.Stats()
	b.logger.Debug().Str("file", victim.file.Name()).Uint64("page", victim.page.GetPageId()).Int("frame", victimFrameIdx).
		Int("candidates", stats.Candidates).Uint64("victims", stats.Victims).Msg("page evicted")

	delete(b.pageMap, pageKey{file: victim.file.Name(), pageId: victim.page.GetPageId()})
	return victimFrameIdx, nil
}
