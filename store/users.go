package store

import (
	"context"
	"errors"
	"fmt"

	"tow-dispatch-api/models"
)

// CreateUser inserts u. A taken email yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// EnsureAdmin creates the bootstrap administrator unless a user with that
// email already exists. It reports whether a row was inserted.
func (s *Store) EnsureAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	_, err := s.UserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	admin := &models.User{Email: email, PasswordHash: passwordHash, IsAdmin: true}
	if err := s.CreateUser(ctx, admin); err != nil {
		// lost a race with another starter; the admin exists either way
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
