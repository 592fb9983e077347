package repositories

import (
	"io"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Repository owns the Badger handle and hands out the typed repositories.
type Repository struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	isTestDB bool
	seq      *sequences

	Users    *BadgerUserRepository
	Groups   *BadgerGroupRepository
	Posts    *BadgerPostRepository
	Comments *BadgerCommentRepository
	Follows  *BadgerFollowRepository
	Sessions *BadgerSessionRepository
}

// NewRepository opens the database at path. An empty path opens a throwaway
// database in a temp directory that Close removes.
func NewRepository(path string, logger *zap.Logger) (*Repository, error) {
	isTest := false
	if path == "" {
		tempPath, err := os.MkdirTemp("", "yatube_test_db_")
		if err != nil {
			return nil, errors.Wrap(err, "creating temp dir")
		}
		path = tempPath
		isTest = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(path).
		WithLogger(newBadgerLogger(logger)).
		WithNumVersionsToKeep(1)
	if isTest {
		opts = opts.WithSyncWrites(false).WithNumGoroutines(1)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger at %s", path)
	}
	return wrap(db, path, isTest), nil
}

func wrap(db *badger.DB, path string, isTest bool) *Repository {
	seq := newSequences(db)
	return &Repository{
		db:       db,
		dbPath:   path,
		isTestDB: isTest,
		seq:      seq,
		Users:    NewBadgerUserRepository(db, seq),
		Groups:   NewBadgerGroupRepository(db, seq),
		Posts:    NewBadgerPostRepository(db, seq),
		Comments: NewBadgerCommentRepository(db, seq),
		Follows:  NewBadgerFollowRepository(db, seq),
		Sessions: NewBadgerSessionRepository(db),
	}
}

// DB exposes the underlying handle for maintenance commands.
func (r *Repository) DB() *badger.DB {
	return r.db
}

func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.seq.release(); err != nil {
		return err
	}
	if err := r.db.Close(); err != nil {
		return err
	}

	// Clean up test database
	if r.isTestDB {
		if err := os.RemoveAll(r.dbPath); err != nil {
			return errors.Wrap(err, "failed to cleanup test database")
		}
	}
	return nil
}

// Clear drops every key, sequences included.
func (r *Repository) Clear() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.seq.release(); err != nil {
		return err
	}
	return r.db.DropAll()
}

// Backup streams a full backup to w and returns the version it covers.
func (r *Repository) Backup(w io.Writer) (uint64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.db.Backup(w, 0)
}

// Load restores a backup produced by Backup.
func (r *Repository) Load(rd io.Reader) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.Load(rd, 256)
}

// badgerLogger routes Badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func newBadgerLogger(l *zap.Logger) badger.Logger {
	return &badgerLogger{s: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) { l.s.Errorf(f, v...) }

func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }

// Badger is chatty at info level; demote it.
func (l *badgerLogger) Infof(f string, v ...interface{}) { l.s.Debugf(f, v...) }

func (l *badgerLogger) Debugf(f string, v ...interface{}) { l.s.Debugf(f, v...) }
