package services

import (
	"time"

	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SignupInput is a validated sign-up submission.
type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UserService handles accounts and login sessions.
type UserService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	sessionTTL  time.Duration
	hashCost    int
	logger      *zap.Logger
}

func NewUserService(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository, sessionTTL time.Duration, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  sessionTTL,
		hashCost:    bcrypt.DefaultCost,
		logger:      logger,
	}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) SetHashCost(cost int) {
	s.hashCost = cost
}

// Signup creates an account. A taken username returns repositories.ErrConflict.
func (s *UserService) Signup(in SignupInput) (*models.User, error) {
	if len(in.Password) > models.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}
	user := &models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := user.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid user")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("username", user.Username), zap.Int("user_id", user.ID))
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession issues a new session token for user.
func (s *UserService) StartSession(user *models.User) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(session, s.sessionTTL); err != nil {
		return nil, errors.Wrap(err, "storing session")
	}
	return session, nil
}

// EndSession forgets a session token.
func (s *UserService) EndSession(token string) error {
	return s.sessionRepo.Delete(token)
}

// UserForSession resolves a session token to its user.
func (s *UserService) UserForSession(token string) (*models.User, error) {
	if token == "" {
		return nil, repositories.ErrNotFound
	}
	session, err := s.sessionRepo.Get(token)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(session.UserID)
}

// GetByUsername looks up a user.
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	return s.userRepo.GetByUsername(username)
}

// List returns every account ordered by id.
func (s *UserService) List() ([]*models.User, error) {
	return s.userRepo.List()
}

// DeleteUser removes an account. It fails with repositories.ErrProtected
// while the user follows or is followed by anyone.
func (s *UserService) DeleteUser(username string) error {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(user.ID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}
