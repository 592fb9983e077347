package services

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"go.uber.org/zap"
)

// FollowService manages author subscriptions.
type FollowService struct {
	followRepo repositories.FollowRepository
	userRepo   repositories.UserRepository
	logger     *zap.Logger
}

func NewFollowService(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, logger *zap.Logger) *FollowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowService{followRepo: followRepo, userRepo: userRepo, logger: logger}
}

// Follow subscribes user to the author named username. Following yourself
// and following twice are no-ops. It returns the author.
func (s *FollowService) Follow(user *models.User, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if author.ID == user.ID {
		return author, nil
	}
	_, created, err := s.followRepo.GetOrCreate(user.ID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("follow created", zap.String("user", user.Username), zap.String("author", author.Username))
	}
	return author, nil
}

// Unfollow removes any subscription of user to the author named username.
func (s *FollowService) Unfollow(user *models.User, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if _, err := s.followRepo.Delete(user.ID, author.ID); err != nil {
		return nil, err
	}
	return author, nil
}

// IsFollowing reports whether user follows author. A nil user follows nobody.
func (s *FollowService) IsFollowing(user *models.User, author *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	return s.followRepo.Exists(user.ID, author.ID)
}
