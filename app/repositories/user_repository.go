package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db  *badger.DB
	seq *sequences
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB, seq *sequences) *BadgerUserRepository {
	return &BadgerUserRepository{db: db, seq: seq}
}

// Create stores a new user, rejecting a taken username with ErrConflict.
func (r *BadgerUserRepository) Create(user *models.User) error {
	user.BeforeCreate()
	return update(r.db, func(txn *badger.Txn) error {
		nameKey := []byte(UserByNameIndex + user.Username)
		taken, err := exists(txn, nameKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		id, err := r.seq.next(UserSeqKey)
		if err != nil {
			return err
		}
		user.ID = id

		if err := setEntity(txn, key(UserKeyPrefix, user.ID), user); err != nil {
			return err
		}
		return setID(txn, nameKey, user.ID)
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, key(UserKeyPrefix, id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user through the username index
func (r *BadgerUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getID(txn, []byte(UserByNameIndex+username))
		if err != nil {
			return err
		}
		return getEntity(txn, key(UserKeyPrefix, id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by id.
func (r *BadgerUserRepository) List() ([]*models.User, error) {
	var users []*models.User
	err := r.db.View(func(txn *badger.Txn) error {
		return scan(txn, []byte(UserKeyPrefix), scanOptions{}, func(item *badger.Item) (bool, error) {
			var user models.User
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &user)
			}); err != nil {
				return false, err
			}
			users = append(users, &user)
			return true, nil
		})
	})
	return users, err
}

// Delete removes a user together with their posts, comments and sessions.
// It fails with ErrProtected while the user follows or is followed by anyone.
func (r *BadgerUserRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		var user models.User
		if err := getEntity(txn, key(UserKeyPrefix, id), &user); err != nil {
			return err
		}

		following, err := countKeys(txn, prefixKey(FollowKeyPrefix, id))
		if err != nil {
			return err
		}
		followers, err := countKeys(txn, prefixKey(FollowByAuthorIndex, id))
		if err != nil {
			return err
		}
		if following > 0 || followers > 0 {
			return ErrProtected
		}

		postKeys, err := collectKeys(txn, prefixKey(PostByAuthorIndex, id))
		if err != nil {
			return err
		}
		for _, k := range postKeys {
			postID, err := lastID(k)
			if err != nil {
				return err
			}
			if err := deletePostTxn(txn, postID); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		commentKeys, err := collectKeys(txn, prefixKey(CommentByAuthorIndex, id))
		if err != nil {
			return err
		}
		for _, k := range commentKeys {
			commentID, err := lastID(k)
			if err != nil {
				return err
			}
			if err := deleteCommentTxn(txn, commentID); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		if err := deleteUserSessionsTxn(txn, id); err != nil {
			return err
		}
		if err := txn.Delete([]byte(UserByNameIndex + user.Username)); err != nil {
			return err
		}
		return txn.Delete(key(UserKeyPrefix, id))
	})
}
