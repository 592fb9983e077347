package services

import (
	"yatube/app/forms"
	"yatube/app/models"
	"yatube/app/pagination"
	"yatube/app/repositories"
	"yatube/app/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PostImageDir is where post images are stored in media storage.
const PostImageDir = "posts"

// PostInput is a validated post submission.
type PostInput struct {
	Text       string
	GroupID    int
	Image      *forms.Upload
	ClearImage bool
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	userRepo    repositories.UserRepository
	groupRepo   repositories.GroupRepository
	media       storage.Storage
	pageSize    int
	logger      *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	groupRepo repositories.GroupRepository,
	media storage.Storage,
	pageSize int,
	logger *zap.Logger,
) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		media:       media,
		pageSize:    pageSize,
		logger:      logger,
	}
}

// Feed returns one page of posts in scope, with authors and groups attached.
func (s *PostService) Feed(filter repositories.PostFilter, page string) (*pagination.Page[*models.Post], error) {
	src := pagination.Funcs[*models.Post]{
		CountFunc: func() (int, error) { return s.postRepo.Count(filter) },
		SliceFunc: func(offset, limit int) ([]*models.Post, error) {
			return s.postRepo.List(filter, limit, offset)
		},
	}
	p, err := pagination.Paginate[*models.Post](src, s.pageSize, page)
	if err != nil {
		return nil, err
	}
	if err := s.attach(p.Items); err != nil {
		return nil, err
	}
	return p, nil
}

// attach loads the author and group of each post, once per id.
func (s *PostService) attach(posts []*models.Post) error {
	users := map[int]*models.User{}
	groups := map[int]*models.Group{}
	for _, post := range posts {
		author, ok := users[post.AuthorID]
		if !ok {
			var err error
			author, err = s.userRepo.GetByID(post.AuthorID)
			if err != nil {
				return errors.Wrapf(err, "loading author of post %d", post.ID)
			}
			users[post.AuthorID] = author
		}
		post.Author = author

		if post.GroupID == 0 {
			post.Group = nil
			continue
		}
		group, ok := groups[post.GroupID]
		if !ok {
			var err error
			group, err = s.groupRepo.GetByID(post.GroupID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			groups[post.GroupID] = group
		}
		post.Group = group
	}
	return nil
}

// GetPost retrieves a post by ID with its author, group and comments
func (s *PostService) GetPost(id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.attach([]*models.Post{post}); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get comments")
	}
	for _, c := range comments {
		author, err := s.userRepo.GetByID(c.AuthorID)
		if err != nil {
			return nil, errors.Wrapf(err, "loading author of comment %d", c.ID)
		}
		c.Author = author
		if err := c.SetPost(post); err != nil {
			return nil, err
		}
	}
	post.Comments = comments
	return post, nil
}

// CountByAuthor returns how many posts authorID has written.
func (s *PostService) CountByAuthor(authorID int) (int, error) {
	return s.postRepo.Count(repositories.PostFilter{AuthorID: authorID})
}

// CreatePost stores a new post by authorID.
func (s *PostService) CreatePost(authorID int, in PostInput) (*models.Post, error) {
	post := &models.Post{Text: in.Text, AuthorID: authorID, GroupID: in.GroupID}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid post")
	}
	if in.Image != nil {
		name, err := s.saveImage(in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = name
	}

	if err := s.postRepo.Create(post); err != nil {
		s.discardImage(post.Image)
		return nil, err
	}
	s.logger.Info("post created", zap.Int("post_id", post.ID), zap.Int("author_id", authorID))
	return post, nil
}

// UpdatePost edits a post. Only its author may do so.
func (s *PostService) UpdatePost(userID, postID int, in PostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrForbidden
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	if err := post.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid post")
	}

	oldImage := post.Image
	newImage := ""
	switch {
	case in.Image != nil:
		name, err := s.saveImage(in.Image)
		if err != nil {
			return nil, err
		}
		newImage = name
		post.Image = name
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.postRepo.Update(post); err != nil {
		s.discardImage(newImage)
		post.Image = oldImage
		return nil, err
	}
	if oldImage != "" && oldImage != post.Image {
		if err := s.media.Delete(oldImage); err != nil {
			s.logger.Warn("removing replaced image", zap.String("image", oldImage), zap.Error(err))
		}
	}
	return post, nil
}

// DeletePost removes a post, its comments and its image regardless of the
// author. It backs moderation from the command line.
func (s *PostService) DeletePost(postID int) error {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(postID); err != nil {
		return err
	}
	if post.Image != "" {
		if err := s.media.Delete(post.Image); err != nil {
			s.logger.Warn("removing image of deleted post", zap.String("image", post.Image), zap.Error(err))
		}
	}
	return nil
}

// ImageURL resolves a stored image name to a link.
func (s *PostService) ImageURL(name string) string {
	if name == "" {
		return ""
	}
	return s.media.URL(name)
}

// discardImage removes a stored image whose post was never saved.
func (s *PostService) discardImage(name string) {
	if name == "" {
		return
	}
	if err := s.media.Delete(name); err != nil {
		s.logger.Warn("removing orphaned image", zap.String("image", name), zap.Error(err))
	}
}

func (s *PostService) saveImage(img *forms.Upload) (string, error) {
	name := storage.ImageName(PostImageDir, img.Extension)
	saved, err := s.media.Save(name, img.ContentType, img.Data)
	if err != nil {
		return "", errors.Wrap(err, "saving image")
	}
	return saved, nil
}
