package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates the user for a device id, or merges the provided fields
// into the existing one.
func (s *UserService) Register(ctx context.Context, params model.UpsertUserParams) (*model.User, error) {
	params.DeviceID = strings.TrimSpace(params.DeviceID)
	if params.DeviceID == "" {
		return nil, apperrors.MissingRequired("deviceId")
	}
	if params.DeviceName != nil {
		name := strings.TrimSpace(*params.DeviceName)
		if name == "" {
			params.DeviceName = nil
		} else {
			params.DeviceName = &name
		}
	}

	user, err := s.userRepo.Upsert(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("userId", user.ID).
		Str("deviceId", user.DeviceID).
		Msg("user registered")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

// UpdatePushToken stores token for the user. An empty token clears it.
func (s *UserService) UpdatePushToken(ctx context.Context, id, token string) (*model.User, error) {
	var tokenPtr *string
	if token = strings.TrimSpace(token); token != "" {
		tokenPtr = &token
	}

	user, err := s.userRepo.UpdatePushToken(ctx, id, tokenPtr)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	log.Info().Str("userId", id).Bool("cleared", tokenPtr == nil).Msg("push token updated")
	return user, nil
}

// Delete removes the user together with its codes and connections.
// Ledger rows the user left on other people's codes go too.
func (s *UserService) Delete(ctx context.Context, id string) error {
	removed, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if removed == 0 {
		return apperrors.NotFound("User")
	}

	log.Info().Str("userId", id).Msg("user deleted")
	return nil
}
