package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/snig/folio/internal/db"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/repositories"
)

// userService implements the UserService interface
type userService struct {
	logger *zap.Logger
	users  repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(database *db.DB, logger *zap.Logger) UserService {
	return &userService{
		logger: logger,
		users:  repositories.NewUserRepository(database),
	}
}

func (s *userService) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username))
	return nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
