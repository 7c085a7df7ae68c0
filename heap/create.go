package heap

import (
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/pkg/errors"
	"heapfile/disk"
	"heapfile/disk/pages"
)

// Create creates a heap file made of a header page and one empty data page. It fails with ErrFileExists if a file
// with the same name can be opened.
//
// If a step fails after the file is created, allocated pages are released and the file is closed and removed. The
// file is only left behind when closing it fails too, in which case the close error is returned.
func Create(files FileStore, pool PageStore, name string, opts ...Option) error {
	o := buildOptions(opts)

	if f, err := files.Open(name); err == nil {
		if err := files.Close(f); err != nil {
			o.logger.Error().Err(err).Str("file", name).Msg("close failed")
		}
		return errors.Wrap(ErrFileExists, name)
	}

	if err := files.Create(name); err != nil {
		return err
	}

	f, err := files.Open(name)
	if err != nil {
		return err
	}

	if err := initChain(pool, f, name, o.logger); err != nil {
		return abortCreate(files, pool, f, name, err, o)
	}

	if err := files.Close(f); err != nil {
		return errors.Wrapf(err, "create %s", name)
	}

	o.logger.Debug().Str("file", name).Msg("heap file created")
	return nil
}

// initChain writes the header page and the first data page of a new file and flushes them.
func initChain(pool PageStore, f *disk.File, name string, logger *log.Logger) error {
	hdrPage, err := pool.NewPage(f)
	if err != nil {
		return err
	}

	dataPage, err := pool.NewPage(f)
	if err != nil {
		unpinClean(pool, f, hdrPage.GetPageId(), logger)
		return err
	}

	pages.InitHeapPage(dataPage)

	id, err := uuid.NewRandom()
	if err != nil {
		unpinClean(pool, f, dataPage.GetPageId(), logger)
		unpinClean(pool, f, hdrPage.GetPageId(), logger)
		return errors.Wrap(err, "generate file id")
	}

	pages.WriteFileHeader(pages.FileHeader{
		FileID:      id,
		FileName:    name,
		FirstPage:   dataPage.GetPageId(),
		LastPage:    dataPage.GetPageId(),
		PageCount:   2,
		RecordCount: 0,
	}, hdrPage.GetData())

	if err := pool.Unpin(f, hdrPage.GetPageId(), true); err != nil {
		unpinClean(pool, f, dataPage.GetPageId(), logger)
		return err
	}

	if err := pool.Unpin(f, dataPage.GetPageId(), true); err != nil {
		return err
	}

	return pool.FlushFile(f)
}

// unpinClean releases a page of a file whose creation is being abandoned, its content is not needed.
func unpinClean(pool PageStore, f *disk.File, pageId uint64, logger *log.Logger) {
	if err := pool.Unpin(f, pageId, false); err != nil {
		logger.Error().Err(err).Str("file", f.Name()).Uint64("page", pageId).Msg("releasing page of failed create failed")
	}
}

func abortCreate(files FileStore, pool PageStore, f *disk.File, name string, cause error, o options) error {
	if err := files.Close(f); err != nil {
		o.logger.Error().Err(err).Str("file", name).Msg("close after failed create failed")
		return errors.Wrapf(err, "create %s failed (%v), close failed", name, cause)
	}

	if err := pool.DiscardFile(name); err != nil {
		o.logger.Error().Err(err).Str("file", name).Msg("discarding pages of partially created file failed")
		return cause
	}

	if err := files.Destroy(name); err != nil {
		o.logger.Error().Err(err).Str("file", name).Msg("removing partially created file failed")
	}

	return cause
}

// Destroy removes the heap file. Its pages are dropped from the pool without being written.
func Destroy(files FileStore, pool PageStore, name string) error {
	if err := pool.DiscardFile(name); err != nil {
		return err
	}

	return files.Destroy(name)
}
