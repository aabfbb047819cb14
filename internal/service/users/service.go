package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

// Store is the account data the profile endpoints touch.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id string, profile models.ProfileUpdate) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// Service lets an authenticated user read and edit their own account.
type Service struct {
	store  Store
	cost   int
	logger *zap.Logger
}

// NewService wires a new users service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cost: bcrypt.DefaultCost, logger: logger}
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Invalid token")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// UpdateMe validates and stores the caller's email, username and full name.
func (s *Service) UpdateMe(ctx context.Context, userID string, in models.ProfileUpdate) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Invalid token")
	}

	profile := models.ProfileUpdate{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Username: strings.TrimSpace(in.Username),
		Fullname: strings.TrimSpace(in.Fullname),
	}
	switch {
	case profile.Email == "":
		return nil, apperr.Validation("Email is required")
	case !validEmail(profile.Email):
		return nil, apperr.Validation("Invalid email address")
	case profile.Username == "":
		return nil, apperr.Validation("Username is required")
	}

	user, err := s.store.UpdateUserProfile(ctx, userID, profile)
	if err != nil {
		return nil, classify(err)
	}

	s.logger.Info("profile updated", zap.String("user_id", userID))
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if userID == "" {
		return apperr.Unauthorized("Invalid token")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperr.Validation("Current and new password are required")
	}
	if len(req.NewPassword) < models.MinPasswordLength {
		return apperr.Validation("New password must be at least 6 characters")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return classify(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		s.logger.Warn("password change rejected", zap.String("user_id", userID))
		return apperr.Validation("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperr.Validation("New password is too long")
		}
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return classify(err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func classify(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("Email or username already in use", err)
	default:
		return apperr.Upstream(err)
	}
}
