package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerPostRepository implements PostRepository using BadgerDB.
// Listings are newest first: ids are allocated in creation order and keys
// are fixed-width, so a reverse prefix scan yields descending ids.
type BadgerPostRepository struct {
	db  *badger.DB
	seq *sequences
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB, seq *sequences) *BadgerPostRepository {
	return &BadgerPostRepository{db: db, seq: seq}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(post *models.Post) error {
	post.BeforeCreate()
	return update(r.db, func(txn *badger.Txn) error {
		if err := checkPostRefs(txn, post); err != nil {
			return err
		}

		// Get next ID
		id, err := r.seq.next(PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		if err := setEntity(txn, key(PostKeyPrefix, post.ID), post); err != nil {
			return err
		}
		if err := txn.Set(key(PostByAuthorIndex, post.AuthorID, post.ID), nil); err != nil {
			return err
		}
		if post.GroupID > 0 {
			return txn.Set(key(PostByGroupIndex, post.GroupID, post.ID), nil)
		}
		return nil
	})
}

// checkPostRefs verifies the author and group a post points at.
func checkPostRefs(txn *badger.Txn, post *models.Post) error {
	ok, err := exists(txn, key(UserKeyPrefix, post.AuthorID))
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "author %d", post.AuthorID)
	}
	if post.GroupID > 0 {
		ok, err := exists(txn, key(GroupKeyPrefix, post.GroupID))
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(ErrNotFound, "group %d", post.GroupID)
		}
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, key(PostKeyPrefix, id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List retrieves a page of posts matching filter, newest first.
func (r *BadgerPostRepository) List(filter PostFilter, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.View(func(txn *badger.Txn) error {
		count := 0
		return eachPost(txn, filter, func(post *models.Post) bool {
			if count < offset {
				count++
				return true
			}
			if count >= offset+limit {
				return false
			}
			posts = append(posts, post)
			count++
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Count returns the number of posts matching filter.
func (r *BadgerPostRepository) Count(filter PostFilter) (int, error) {
	n := 0
	err := r.db.View(func(txn *badger.Txn) error {
		if filter.FollowerID == 0 && (filter.AuthorID == 0 || filter.GroupID == 0) {
			switch {
			case filter.AuthorID > 0:
				c, err := countKeys(txn, prefixKey(PostByAuthorIndex, filter.AuthorID))
				n = c
				return err
			case filter.GroupID > 0:
				c, err := countKeys(txn, prefixKey(PostByGroupIndex, filter.GroupID))
				n = c
				return err
			default:
				c, err := countKeys(txn, []byte(PostKeyPrefix))
				n = c
				return err
			}
		}
		return eachPost(txn, filter, func(*models.Post) bool {
			n++
			return true
		})
	})
	return n, err
}

// eachPost visits posts matching filter newest first until fn returns false.
func eachPost(txn *badger.Txn, filter PostFilter, fn func(post *models.Post) bool) error {
	var authors map[int]bool
	if filter.FollowerID > 0 {
		ids, err := followedAuthorIDs(txn, filter.FollowerID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		authors = make(map[int]bool, len(ids))
		for _, id := range ids {
			authors[id] = true
		}
	}

	match := func(post *models.Post) bool {
		if filter.AuthorID > 0 && post.AuthorID != filter.AuthorID {
			return false
		}
		if filter.GroupID > 0 && post.GroupID != filter.GroupID {
			return false
		}
		if authors != nil && !authors[post.AuthorID] {
			return false
		}
		return true
	}

	// Index scans when a single scope applies, full scan otherwise.
	var indexPrefix []byte
	switch {
	case filter.AuthorID > 0:
		indexPrefix = prefixKey(PostByAuthorIndex, filter.AuthorID)
	case filter.GroupID > 0:
		indexPrefix = prefixKey(PostByGroupIndex, filter.GroupID)
	}

	if indexPrefix != nil {
		return scan(txn, indexPrefix, scanOptions{reverse: true, keysOnly: true}, func(item *badger.Item) (bool, error) {
			postID, err := lastID(item.Key())
			if err != nil {
				return false, err
			}
			var post models.Post
			if err := getEntity(txn, key(PostKeyPrefix, postID), &post); err != nil {
				return false, err
			}
			if !match(&post) {
				return true, nil
			}
			return fn(&post), nil
		})
	}

	return scan(txn, []byte(PostKeyPrefix), scanOptions{reverse: true}, func(item *badger.Item) (bool, error) {
		var post models.Post
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		}); err != nil {
			return false, errors.Wrap(err, "failed to unmarshal post")
		}
		if !match(&post) {
			return true, nil
		}
		return fn(&post), nil
	})
}

// Update updates an existing post, moving its group index when the group changes.
func (r *BadgerPostRepository) Update(post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		var existing models.Post
		if err := getEntity(txn, key(PostKeyPrefix, post.ID), &existing); err != nil {
			return err
		}
		if existing.AuthorID != post.AuthorID {
			return errors.New("post author cannot be changed")
		}
		if err := checkPostRefs(txn, post); err != nil {
			return err
		}
		// Preserve creation time
		post.CreatedAt = existing.CreatedAt

		if existing.GroupID != post.GroupID {
			if existing.GroupID > 0 {
				if err := txn.Delete(key(PostByGroupIndex, existing.GroupID, post.ID)); err != nil {
					return err
				}
			}
			if post.GroupID > 0 {
				if err := txn.Set(key(PostByGroupIndex, post.GroupID, post.ID), nil); err != nil {
					return err
				}
			}
		}
		return setEntity(txn, key(PostKeyPrefix, post.ID), post)
	})
}

// Delete deletes a post by ID together with its comments
func (r *BadgerPostRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		return deletePostTxn(txn, id)
	})
}

func deletePostTxn(txn *badger.Txn, id int) error {
	var post models.Post
	if err := getEntity(txn, key(PostKeyPrefix, id), &post); err != nil {
		return err
	}

	commentKeys, err := collectKeys(txn, prefixKey(CommentKeyPrefix, id))
	if err != nil {
		return err
	}
	for _, k := range commentKeys {
		commentID, err := lastID(k)
		if err != nil {
			return err
		}
		if err := deleteCommentTxn(txn, commentID); err != nil {
			return err
		}
	}

	if err := txn.Delete(key(PostByAuthorIndex, post.AuthorID, id)); err != nil {
		return err
	}
	if post.GroupID > 0 {
		if err := txn.Delete(key(PostByGroupIndex, post.GroupID, id)); err != nil {
			return err
		}
	}
	return txn.Delete(key(PostKeyPrefix, id))
}

// followedAuthorIDs lists the authors userID follows.
func followedAuthorIDs(txn *badger.Txn, userID int) ([]int, error) {
	var ids []int
	err := scan(txn, prefixKey(FollowKeyPrefix, userID), scanOptions{keysOnly: true}, func(item *badger.Item) (bool, error) {
		id, err := lastID(item.Key())
		if err != nil {
			return false, err
		}
		ids = append(ids, id)
		return true, nil
	})
	return ids, err
}
