package repositories

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("record already exists")
	// ErrProtected is returned when a delete is blocked by a referencing record.
	ErrProtected = errors.New("record is referenced and cannot be deleted")
)

const (
	// Key prefixes for different entity types
	UserKeyPrefix    = "user:"
	GroupKeyPrefix   = "group:"
	PostKeyPrefix    = "post:"
	CommentKeyPrefix = "comment:"
	FollowKeyPrefix  = "follow:"
	SessionKeyPrefix = "session:"

	// Secondary indexes
	UserByNameIndex      = "idx:user:username:"
	GroupBySlugIndex     = "idx:group:slug:"
	PostByAuthorIndex    = "idx:post:author:"
	PostByGroupIndex     = "idx:post:group:"
	CommentByIDIndex     = "idx:comment:id:"
	CommentByAuthorIndex = "idx:comment:author:"
	FollowByAuthorIndex  = "idx:follow:author:"
	SessionByUserIndex   = "idx:session:user:"

	// Sequence keys for auto-incrementing IDs
	UserSeqKey    = "seq:user"
	GroupSeqKey   = "seq:group"
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"
	FollowSeqKey  = "seq:follow"
)

// idWidth keeps numeric key segments fixed-width so byte order matches id order.
const idWidth = 10

func idSegment(id int) string {
	return fmt.Sprintf("%0*d", idWidth, id)
}

// key joins a prefix and numeric segments: key("post:", 7) == "post:0000000007".
func key(prefix string, ids ...int) []byte {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = idSegment(id)
	}
	return []byte(prefix + strings.Join(parts, ":"))
}

// prefixKey is key with a trailing separator, for scanning children of ids.
func prefixKey(prefix string, ids ...int) []byte {
	return append(key(prefix, ids...), ':')
}

// lastID parses the trailing numeric segment of a key.
func lastID(k []byte) (int, error) {
	s := string(k)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed key %q", k)
	}
	return id, nil
}

// seqBandwidth is how many ids a sequence leases per disk write.
const seqBandwidth = 100

// sequences hands out ids from Badger sequences, one per key. Ids are
// allocated outside write transactions so creates do not conflict on a
// shared counter. A failed write leaves a gap.
type sequences struct {
	db   *badger.DB
	mu   sync.Mutex
	byID map[string]*badger.Sequence
}

func newSequences(db *badger.DB) *sequences {
	return &sequences{db: db, byID: make(map[string]*badger.Sequence)}
}

// next returns the next id for seqKey, starting at 1.
func (s *sequences) next(seqKey string) (int, error) {
	s.mu.Lock()
	seq, ok := s.byID[seqKey]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte(seqKey), seqBandwidth)
		if err != nil {
			s.mu.Unlock()
			return 0, errors.Wrapf(err, "opening sequence %s", seqKey)
		}
		s.byID[seqKey] = seq
	}
	s.mu.Unlock()

	for {
		n, err := seq.Next()
		if err != nil {
			return 0, errors.Wrapf(err, "advancing sequence %s", seqKey)
		}
		if n > 0 {
			return int(n), nil
		}
	}
}

// release returns unused leases and forgets every sequence.
func (s *sequences) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for k, seq := range s.byID {
		if err := seq.Release(); err != nil && first == nil {
			first = errors.Wrapf(err, "releasing sequence %s", k)
		}
		delete(s.byID, k)
	}
	return first
}

// maxTxnAttempts bounds retries of a write that lost an optimistic
// conflict to a concurrent transaction.
const maxTxnAttempts = 10

// update runs fn in a read-write transaction, retrying on conflict.
// fn must reset any state it sets outside the transaction.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return errors.Wrapf(err, "giving up after %d attempts", maxTxnAttempts)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal entity")
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return errors.Wrap(err, "failed to unmarshal entity")
	}
	return nil
}

// getEntity loads the value at k into entity, mapping a missing key to ErrNotFound.
func getEntity(txn *badger.Txn, k []byte, entity interface{}) error {
	item, err := txn.Get(k)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", k)
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// setEntity marshals entity and stores it at k.
func setEntity(txn *badger.Txn, k []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(k, data)
}

// exists reports whether k is present.
func exists(txn *badger.Txn, k []byte) (bool, error) {
	_, err := txn.Get(k)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getID reads an index entry whose value is a decimal id.
func getID(txn *badger.Txn, k []byte) (int, error) {
	item, err := txn.Get(k)
	if err == badger.ErrKeyNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int
	err = item.Value(func(val []byte) error {
		id, err = strconv.Atoi(string(val))
		return err
	})
	return id, err
}

func setID(txn *badger.Txn, k []byte, id int) error {
	return txn.Set(k, []byte(strconv.Itoa(id)))
}

// scanOptions controls a prefix scan.
type scanOptions struct {
	reverse  bool
	keysOnly bool
}

// scan walks every key under prefix, newest (highest) first when reverse is set.
// fn returns false to stop early.
func scan(txn *badger.Txn, prefix []byte, so scanOptions, fn func(item *badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = so.reverse
	opts.PrefetchValues = !so.keysOnly
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	start := prefix
	if so.reverse {
		start = append(append([]byte{}, prefix...), 0xFF)
	}
	for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
		more, err := fn(it.Item())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

// collectKeys copies every key under prefix. Deleting while iterating is not
// allowed in the same transaction, so cascades gather keys first.
func collectKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := scan(txn, prefix, scanOptions{keysOnly: true}, func(item *badger.Item) (bool, error) {
		keys = append(keys, item.KeyCopy(nil))
		return true, nil
	})
	return keys, err
}

// countKeys counts keys under prefix without reading values.
func countKeys(txn *badger.Txn, prefix []byte) (int, error) {
	n := 0
	err := scan(txn, prefix, scanOptions{keysOnly: true}, func(*badger.Item) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}
