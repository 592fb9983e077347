package repositories

import (
	"time"

	"yatube/app/models"
)

// PostFilter scopes a post listing. Zero fields do not filter.
type PostFilter struct {
	AuthorID int
	GroupID  int
	// FollowerID limits posts to authors followed by this user.
	FollowerID int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Delete(id int) error
	List() ([]*models.User, error)
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(group *models.Group) error
	GetByID(id int) (*models.Group, error)
	GetBySlug(slug string) (*models.Group, error)
	List() ([]*models.Group, error)
	Delete(id int) error
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	List(filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(filter PostFilter) (int, error)
	Update(post *models.Post) error
	Delete(id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	ListByPost(postID int) ([]*models.Comment, error)
	Delete(id int) error
}

// FollowRepository defines the interface for follow data access
type FollowRepository interface {
	GetOrCreate(userID, authorID int) (*models.Follow, bool, error)
	Exists(userID, authorID int) (bool, error)
	Delete(userID, authorID int) (bool, error)
	ListAuthorIDs(userID int) ([]int, error)
	CountByUser(userID int) (int, error)
}

// SessionRepository defines the interface for login session storage
type SessionRepository interface {
	Create(session *models.Session, ttl time.Duration) error
	Get(token string) (*models.Session, error)
	Delete(token string) error
}
