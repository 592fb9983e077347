package services

import (
	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/pkg/errors"
)

// GroupService manages post groups.
type GroupService struct {
	groupRepo repositories.GroupRepository
}

func NewGroupService(groupRepo repositories.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) Create(title, slug, description string) (*models.Group, error) {
	group := &models.Group{Title: title, Slug: slug, Description: description}
	if err := group.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid group")
	}
	if err := s.groupRepo.Create(group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) List() ([]*models.Group, error) {
	return s.groupRepo.List()
}

func (s *GroupService) GetBySlug(slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(slug)
}

// Delete removes a group. Its posts are kept without a group.
func (s *GroupService) Delete(slug string) error {
	group, err := s.groupRepo.GetBySlug(slug)
	if err != nil {
		return err
	}
	return s.groupRepo.Delete(group.ID)
}
