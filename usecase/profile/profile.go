package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.Identity, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}

// ReminderAddress returns the email reminders for ownerID are sent to.
// An unknown owner yields an empty address rather than an error.
func (uc *UseCase) ReminderAddress(ctx context.Context, ownerID string) (string, error) {
	user, err := uc.users.GetByID(ctx, ownerID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	return user.Email, nil
}
