package repositories

import (
	"time"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSessionRepository stores login sessions as expiring Badger entries.
type BadgerSessionRepository struct {
	db *badger.DB
}

// NewBadgerSessionRepository creates a new BadgerSessionRepository
func NewBadgerSessionRepository(db *badger.DB) *BadgerSessionRepository {
	return &BadgerSessionRepository{db: db}
}

func sessionKey(token string) []byte {
	return []byte(SessionKeyPrefix + token)
}

func sessionUserKey(userID int, token string) []byte {
	return append(prefixKey(SessionByUserIndex, userID), token...)
}

// Create stores a session that Badger drops after ttl.
func (r *BadgerSessionRepository) Create(session *models.Session, ttl time.Duration) error {
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(ttl)
	}
	return update(r.db, func(txn *badger.Txn) error {
		data, err := marshalEntity(session)
		if err != nil {
			return err
		}
		if err := txn.SetEntry(badger.NewEntry(sessionKey(session.Token), data).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(sessionUserKey(session.UserID, session.Token), nil).WithTTL(ttl))
	})
}

// Get loads a live session. Expired sessions report ErrNotFound.
func (r *BadgerSessionRepository) Get(token string) (*models.Session, error) {
	var session models.Session
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, sessionKey(token), &session)
	})
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return &session, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (r *BadgerSessionRepository) Delete(token string) error {
	return update(r.db, func(txn *badger.Txn) error {
		var session models.Session
		err := getEntity(txn, sessionKey(token), &session)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(sessionUserKey(session.UserID, token)); err != nil {
			return err
		}
		return txn.Delete(sessionKey(token))
	})
}

func deleteUserSessionsTxn(txn *badger.Txn, userID int) error {
	prefix := prefixKey(SessionByUserIndex, userID)
	keys, err := collectKeys(txn, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		token := string(k[len(prefix):])
		if err := txn.Delete(sessionKey(token)); err != nil {
			return err
		}
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
