package services

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/pkg/errors"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment attaches a comment by authorID to an existing post.
func (s *CommentService) AddComment(authorID, postID int, text string) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{AuthorID: authorID, Text: text}
	if err := post.AddComment(comment); err != nil {
		return nil, err
	}
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid comment")
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListPostComments retrieves the comments of a post, newest first.
func (s *CommentService) ListPostComments(postID int) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(postID)
}

// DeleteComment removes a comment regardless of its author.
func (s *CommentService) DeleteComment(id int) error {
	return s.commentRepo.Delete(id)
}
