package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGroupRepository implements GroupRepository using BadgerDB
type BadgerGroupRepository struct {
	db  *badger.DB
	seq *sequences
}

// NewBadgerGroupRepository creates a new BadgerGroupRepository
func NewBadgerGroupRepository(db *badger.DB, seq *sequences) *BadgerGroupRepository {
	return &BadgerGroupRepository{db: db, seq: seq}
}

// Create stores a group, rejecting a taken slug with ErrConflict.
func (r *BadgerGroupRepository) Create(group *models.Group) error {
	return update(r.db, func(txn *badger.Txn) error {
		slugKey := []byte(GroupBySlugIndex + group.Slug)
		taken, err := exists(txn, slugKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		id, err := r.seq.next(GroupSeqKey)
		if err != nil {
			return err
		}
		group.ID = id

		if err := setEntity(txn, key(GroupKeyPrefix, group.ID), group); err != nil {
			return err
		}
		return setID(txn, slugKey, group.ID)
	})
}

// GetByID retrieves a group by ID
func (r *BadgerGroupRepository) GetByID(id int) (*models.Group, error) {
	var group models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, key(GroupKeyPrefix, id), &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetBySlug retrieves a group through the slug index
func (r *BadgerGroupRepository) GetBySlug(slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getID(txn, []byte(GroupBySlugIndex+slug))
		if err != nil {
			return err
		}
		return getEntity(txn, key(GroupKeyPrefix, id), &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns all groups ordered by id.
func (r *BadgerGroupRepository) List() ([]*models.Group, error) {
	var groups []*models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		return scan(txn, []byte(GroupKeyPrefix), scanOptions{}, func(item *badger.Item) (bool, error) {
			var group models.Group
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &group)
			}); err != nil {
				return false, err
			}
			groups = append(groups, &group)
			return true, nil
		})
	})
	return groups, err
}

// Delete removes a group. Its posts stay and lose their group.
func (r *BadgerGroupRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		var group models.Group
		if err := getEntity(txn, key(GroupKeyPrefix, id), &group); err != nil {
			return err
		}

		indexKeys, err := collectKeys(txn, prefixKey(PostByGroupIndex, id))
		if err != nil {
			return err
		}
		for _, k := range indexKeys {
			postID, err := lastID(k)
			if err != nil {
				return err
			}
			var post models.Post
			if err := getEntity(txn, key(PostKeyPrefix, postID), &post); err != nil {
				return err
			}
			post.GroupID = 0
			if err := setEntity(txn, key(PostKeyPrefix, postID), &post); err != nil {
				return err
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(GroupBySlugIndex + group.Slug)); err != nil {
			return err
		}
		return txn.Delete(key(GroupKeyPrefix, id))
	})
}
