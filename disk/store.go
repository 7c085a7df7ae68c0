package disk

import (
	"github.com/phuslu/log"
	"github.com/pkg/errors"
	"heapfile/logging"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExtension = ".hf"

// StoreOptions configures a Store.
type StoreOptions struct {
	// Dir is the directory page files are kept in. It is created if it does not exist.
	Dir string

	// Fsync makes every page write wait for the os to flush it. When it is false data might be lost after a
	// successful write if power is lost before the os flushes its buffers, but tests run much faster.
	Fsync bool

	Logger *log.Logger
}

// Store manages named page files inside a directory. Opening a file that is already open returns the same *File
// and increments its reference count; the os file is closed when the last reference is closed.
type Store struct {
	dir    string
	fsync  bool
	logger *log.Logger

	mu    sync.Mutex
	files map[string]*File
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("store directory is not set")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultLogger()
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create store directory %s", opts.Dir)
	}

	return &Store{
		dir:    opts.Dir,
		fsync:  opts.Fsync,
		logger: opts.Logger,
		files:  map[string]*File{},
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether a file with the given name exists in the store.
func (s *Store) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}

	_, err = os.Stat(path)
	return err == nil
}

// Create creates an empty file. It fails with ErrFileExists if the file is already there.
func (s *Store) Create(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrap(ErrFileExists, name)
		}
		return errors.Wrapf(err, "create %s", name)
	}

	s.logger.Debug().Str("file", name).Msg("page file created")
	return f.Close()
}

// Open opens the file with the given name. It fails with ErrFileNotFound if there is no such file.
func (s *Store) Open(name string) (*File, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.files[name]; ok {
		f.refs++
		return f, nil
	}

	f, err := openFile(name, path, s.fsync, s.logger)
	if err != nil {
		return nil, err
	}

	f.refs = 1
	s.files[name] = f
	return f, nil
}

// Close drops one reference to f. The os file is closed when no reference is left.
func (s *Store) Close(f *File) error {
	if f == nil {
		return errors.New("closing a nil file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opened, ok := s.files[f.name]
	if !ok || opened != f {
		return errors.Wrapf(ErrFileClosed, "close %s", f.name)
	}

	f.refs--
	if f.refs > 0 {
		return nil
	}

	delete(s.files, f.name)
	if err := f.close(); err != nil {
		return errors.Wrapf(err, "close %s", f.name)
	}

	s.logger.Debug().Str("file", f.name).Msg("page file closed")
	return nil
}

// Destroy removes the file from disk. Open files cannot be destroyed.
func (s *Store) Destroy(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; ok {
		return errors.Wrap(ErrFileOpen, name)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(ErrFileNotFound, name)
		}
		return errors.Wrapf(err, "destroy %s", name)
	}

	s.logger.Debug().Str("file", name).Msg("page file destroyed")
	return nil
}

// OpenCount returns the number of references held on the named file.
func (s *Store) OpenCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.files[name]; ok {
		return f.refs
	}
	return 0
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, name+fileExtension), nil
}
