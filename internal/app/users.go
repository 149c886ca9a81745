package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spacebook/internal/store"
	"spacebook/pkg/auth"
	"spacebook/pkg/domain"
)

// ListUsers returns all users.
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}

// GetUser returns the user with the given id, or false when absent.
func (a *App) GetUser(id string) (domain.User, bool, error) {
	return a.store.GetUserByID(id)
}

// FindUsersByFilter returns users matching the filter.
func (a *App) FindUsersByFilter(filter store.UserFilter) ([]domain.User, error) {
	return a.store.FindUsers(filter)
}

// CreateUser inserts a user, assigning an id and timestamps when absent.
// A non-empty password is stored as a bcrypt hash.
func (a *App) CreateUser(u domain.User, password string) (domain.User, error) {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.RoleID == 0 {
		u.RoleID = domain.RoleUserID
	}
	if password != "" {
		if err := auth.ValidatePassword(password); err != nil {
			return domain.User{}, err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if err := a.store.CreateUser(u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// UpdateUser applies a partial update. Existence is the caller's concern;
// the update itself is unconditional.
func (a *App) UpdateUser(id string, patch domain.UserPatch) (domain.User, error) {
	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		patch.Email = &email
	}
	return a.store.UpdateUser(id, patch)
}

// RemoveUser deletes a user by id, returning the number of rows removed.
// Dependent reservations and donations are removed by the cascade policy.
func (a *App) RemoveUser(id string) (int64, error) {
	return a.store.DeleteUser(id)
}

// FindOrCreateUser looks a user up by email and provisions one when absent.
// The candidate must carry first name, last name, and email; remaining
// fields are defaulted (empty strings, zero counters, unlocked, role user).
// A racing duplicate insert is treated as "already exists" and resolved by a
// second lookup.
func (a *App) FindOrCreateUser(candidate domain.User) (domain.User, error) {
	candidate.Email = strings.TrimSpace(strings.ToLower(candidate.Email))
	if candidate.FirstName == "" || candidate.LastName == "" || candidate.Email == "" {
		return domain.User{}, ErrMissingIdentityFields
	}

	found, ok, err := a.store.GetUserByEmail(candidate.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if ok {
		return found, nil
	}

	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if candidate.BGUsername == "" {
		// bg_username carries a unique constraint, so the empty-string
		// default is not usable here. The email is unique by the same
		// invariant and keeps provisioning deterministic.
		candidate.BGUsername = candidate.Email
	}
	if candidate.RoleID == 0 {
		candidate.RoleID = domain.RoleUserID
	}
	now := time.Now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	err = a.store.CreateUser(candidate)
	if err == nil {
		return candidate, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return domain.User{}, fmt.Errorf("provision user: %w", err)
	}

	// Lost a provisioning race; the winner's row is authoritative.
	found, ok, lookupErr := a.store.GetUserByEmail(candidate.Email)
	if lookupErr != nil {
		return domain.User{}, fmt.Errorf("lookup user after race: %w", lookupErr)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("provision user: %w", err)
	}
	return found, nil
}
