package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerFollowRepository implements FollowRepository using BadgerDB.
// The primary key is follow:<user>:<author>, which makes a pair unique;
// idx:follow:author:<author>:<user> answers "who follows this author".
type BadgerFollowRepository struct {
	db  *badger.DB
	seq *sequences
}

// NewBadgerFollowRepository creates a new BadgerFollowRepository
func NewBadgerFollowRepository(db *badger.DB, seq *sequences) *BadgerFollowRepository {
	return &BadgerFollowRepository{db: db, seq: seq}
}

// GetOrCreate returns the follow for the pair, creating it when missing.
// The bool reports whether a new record was written.
func (r *BadgerFollowRepository) GetOrCreate(userID, authorID int) (*models.Follow, bool, error) {
	var follow models.Follow
	created := false
	err := update(r.db, func(txn *badger.Txn) error {
		created = false
		err := getEntity(txn, key(FollowKeyPrefix, userID, authorID), &follow)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		follow = models.Follow{UserID: userID, AuthorID: authorID}
		if err := follow.Validate(); err != nil {
			return err
		}
		for _, id := range []int{userID, authorID} {
			ok, err := exists(txn, key(UserKeyPrefix, id))
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrapf(ErrNotFound, "user %d", id)
			}
		}

		follow.BeforeCreate()
		id, err := r.seq.next(FollowSeqKey)
		if err != nil {
			return err
		}
		follow.ID = id
		if err := setEntity(txn, key(FollowKeyPrefix, userID, authorID), &follow); err != nil {
			return err
		}
		created = true
		return txn.Set(key(FollowByAuthorIndex, authorID, userID), nil)
	})
	if err != nil {
		return nil, false, err
	}
	return &follow, created, nil
}

// Exists reports whether userID follows authorID.
func (r *BadgerFollowRepository) Exists(userID, authorID int) (bool, error) {
	var ok bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		ok, err = exists(txn, key(FollowKeyPrefix, userID, authorID))
		return err
	})
	return ok, err
}

// Delete removes the follow for the pair. The bool reports whether one existed.
func (r *BadgerFollowRepository) Delete(userID, authorID int) (bool, error) {
	deleted := false
	err := update(r.db, func(txn *badger.Txn) error {
		deleted = false
		ok, err := exists(txn, key(FollowKeyPrefix, userID, authorID))
		if err != nil || !ok {
			return err
		}
		if err := txn.Delete(key(FollowByAuthorIndex, authorID, userID)); err != nil {
			return err
		}
		deleted = true
		return txn.Delete(key(FollowKeyPrefix, userID, authorID))
	})
	return deleted, err
}

// ListAuthorIDs returns the ids of the authors userID follows.
func (r *BadgerFollowRepository) ListAuthorIDs(userID int) ([]int, error) {
	var ids []int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = followedAuthorIDs(txn, userID)
		return err
	})
	return ids, err
}

// CountByUser counts the authors userID follows.
func (r *BadgerFollowRepository) CountByUser(userID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = countKeys(txn, prefixKey(FollowKeyPrefix, userID))
		return err
	})
	return n, err
}
