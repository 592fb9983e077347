package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under their post so a post's thread is one prefix scan.
type BadgerCommentRepository struct {
	db  *badger.DB
	seq *sequences
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB, seq *sequences) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db, seq: seq}
}

// Create creates a new comment on an existing post
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	comment.BeforeCreate()
	return update(r.db, func(txn *badger.Txn) error {
		ok, err := exists(txn, key(PostKeyPrefix, comment.PostID))
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(ErrNotFound, "post %d", comment.PostID)
		}
		ok, err = exists(txn, key(UserKeyPrefix, comment.AuthorID))
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(ErrNotFound, "author %d", comment.AuthorID)
		}

		id, err := r.seq.next(CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		if err := setEntity(txn, key(CommentKeyPrefix, comment.PostID, comment.ID), comment); err != nil {
			return err
		}
		if err := setID(txn, key(CommentByIDIndex, comment.ID), comment.PostID); err != nil {
			return err
		}
		return txn.Set(key(CommentByAuthorIndex, comment.AuthorID, comment.PostID, comment.ID), nil)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		postID, err := getID(txn, key(CommentByIDIndex, id))
		if err != nil {
			return err
		}
		return getEntity(txn, key(CommentKeyPrefix, postID, id), &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns the comments of a post, newest first.
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scan(txn, prefixKey(CommentKeyPrefix, postID), scanOptions{reverse: true}, func(item *badger.Item) (bool, error) {
			var comment models.Comment
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			}); err != nil {
				return false, err
			}
			comments = append(comments, &comment)
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		return deleteCommentTxn(txn, id)
	})
}

func deleteCommentTxn(txn *badger.Txn, id int) error {
	postID, err := getID(txn, key(CommentByIDIndex, id))
	if err != nil {
		return err
	}
	var comment models.Comment
	if err := getEntity(txn, key(CommentKeyPrefix, postID, id), &comment); err != nil {
		return err
	}
	if err := txn.Delete(key(CommentByAuthorIndex, comment.AuthorID, postID, id)); err != nil {
		return err
	}
	if err := txn.Delete(key(CommentByIDIndex, id)); err != nil {
		return err
	}
	return txn.Delete(key(CommentKeyPrefix, postID, id))
}
