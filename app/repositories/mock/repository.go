// Package mock provides in-memory repositories for service and controller tests.
package mock

import (
	"sort"
	"sync"
	"time"

	"yatube/app/models"
	"yatube/app/repositories"
)

type UserRepository struct {
	users  map[int]*models.User
	nextID int
	mutex  sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int]*models.User), nextID: 1}
}

func (m *UserRepository) Create(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	user.BeforeCreate()
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *UserRepository) GetByID(id int) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (m *UserRepository) GetByUsername(username string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *UserRepository) List() ([]*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type GroupRepository struct {
	groups map[int]*models.Group
	nextID int
	mutex  sync.RWMutex
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{groups: make(map[int]*models.Group), nextID: 1}
}

func (m *GroupRepository) Create(group *models.Group) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, g := range m.groups {
		if g.Slug == group.Slug {
			return repositories.ErrConflict
		}
	}
	group.ID = m.nextID
	m.nextID++
	m.groups[group.ID] = group
	return nil
}

func (m *GroupRepository) GetByID(id int) (*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	group, ok := m.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return group, nil
}

func (m *GroupRepository) GetBySlug(slug string) (*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, g := range m.groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *GroupRepository) List() ([]*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	groups := make([]*models.Group, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (m *GroupRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.groups[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.groups, id)
	return nil
}

// PostRepository keeps posts in memory. Follows is consulted for
// FollowerID filters and may be nil when feeds are not exercised.
type PostRepository struct {
	posts   map[int]*models.Post
	nextID  int
	mutex   sync.RWMutex
	Follows *FollowRepository
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[int]*models.Post), nextID: 1}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
}

func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	post.BeforeCreate()
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = post
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return post, nil
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) matching(filter repositories.PostFilter) []*models.Post {
	var authors map[int]bool
	if filter.FollowerID > 0 {
		authors = map[int]bool{}
		if m.Follows != nil {
			ids, _ := m.Follows.ListAuthorIDs(filter.FollowerID)
			for _, id := range ids {
				authors[id] = true
			}
		}
	}
	var posts []*models.Post
	for id := m.nextID - 1; id >= 1; id-- {
		post, ok := m.posts[id]
		if !ok {
			continue
		}
		if filter.AuthorID > 0 && post.AuthorID != filter.AuthorID {
			continue
		}
		if filter.GroupID > 0 && post.GroupID != filter.GroupID {
			continue
		}
		if authors != nil && !authors[post.AuthorID] {
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

func (m *PostRepository) List(filter repositories.PostFilter, limit, offset int) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	all := m.matching(filter)
	posts := []*models.Post{}
	for i := offset; i < len(all) && len(posts) < limit; i++ {
		posts = append(posts, all[i])
	}
	return posts, nil
}

func (m *PostRepository) Count(filter repositories.PostFilter) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.matching(filter)), nil
}

type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	mutex    sync.RWMutex
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[int]*models.Comment), nextID: 1}
}

func (m *CommentRepository) Create(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	comment.BeforeCreate()
	comment.ID = m.nextID
	m.nextID++
	m.comments[comment.ID] = comment
	return nil
}

func (m *CommentRepository) GetByID(id int) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	comment, ok := m.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return comment, nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	comments := []*models.Comment{}
	for id := m.nextID - 1; id >= 1; id-- {
		if c, ok := m.comments[id]; ok && c.PostID == postID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (m *CommentRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

type followKey struct{ user, author int }

type FollowRepository struct {
	follows map[followKey]*models.Follow
	nextID  int
	mutex   sync.RWMutex
}

func NewFollowRepository() *FollowRepository {
	return &FollowRepository{follows: make(map[followKey]*models.Follow), nextID: 1}
}

func (m *FollowRepository) GetOrCreate(userID, authorID int) (*models.Follow, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	k := followKey{userID, authorID}
	if f, ok := m.follows[k]; ok {
		return f, false, nil
	}
	f := &models.Follow{UserID: userID, AuthorID: authorID}
	if err := f.Validate(); err != nil {
		return nil, false, err
	}
	f.BeforeCreate()
	f.ID = m.nextID
	m.nextID++
	m.follows[k] = f
	return f, true, nil
}

func (m *FollowRepository) Exists(userID, authorID int) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.follows[followKey{userID, authorID}]
	return ok, nil
}

func (m *FollowRepository) Delete(userID, authorID int) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	k := followKey{userID, authorID}
	if _, ok := m.follows[k]; !ok {
		return false, nil
	}
	delete(m.follows, k)
	return true, nil
}

func (m *FollowRepository) ListAuthorIDs(userID int) ([]int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var ids []int
	for k := range m.follows {
		if k.user == userID {
			ids = append(ids, k.author)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *FollowRepository) CountByUser(userID int) (int, error) {
	ids, err := m.ListAuthorIDs(userID)
	return len(ids), err
}

type SessionRepository struct {
	sessions map[string]*models.Session
	mutex    sync.RWMutex
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*models.Session)}
}

func (m *SessionRepository) Create(session *models.Session, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(ttl)
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *SessionRepository) Get(token string) (*models.Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, ok := m.sessions[token]
	if !ok || s.Expired(time.Now()) {
		return nil, repositories.ErrNotFound
	}
	return s, nil
}

func (m *SessionRepository) Delete(token string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, token)
	return nil
}
