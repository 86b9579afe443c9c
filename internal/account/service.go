package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/repo"
)

// Service provides administrative account management: creation of admin and
// service-provider accounts, and paginated listing.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// CreateInput carries the fields an administrator supplies for a new
// account.
type CreateInput struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	PhoneCode string `json:"phone_code"`
	Password  string `json:"password"`
	Type      string `json:"type"`
}

// Create validates and stores a new account. Only a super-admin actor may
// create admin accounts; nobody creates super-admins through the API.
func (s *Service) Create(ctx context.Context, actorType string, in CreateInput) (Account, error) {
	in.Type = strings.TrimSpace(strings.ToLower(in.Type))
	if in.Type == TypeSuperAdmin {
		return Account{}, fmt.Errorf("%w: you are not authorized to perform this action", apperr.ErrForbidden)
	}
	if in.Type != TypeAdmin && in.Type != TypeSP {
		return Account{}, fmt.Errorf("%w: type must be one of sp, admin", apperr.ErrValidation)
	}
	if in.Type == TypeAdmin && actorType != TypeSuperAdmin {
		return Account{}, fmt.Errorf("%w: you are not authorized to perform this action", apperr.ErrForbidden)
	}
	if strings.TrimSpace(in.Firstname) == "" || strings.TrimSpace(in.Lastname) == "" {
		return Account{}, fmt.Errorf("%w: firstname and lastname are required", apperr.ErrValidation)
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return Account{}, fmt.Errorf("%w: valid email is required", apperr.ErrValidation)
	}
	in.Phone = NormalizePhone(in.Phone)
	in.PhoneCode = strings.TrimSpace(in.PhoneCode)
	if in.Phone == "" || in.PhoneCode == "" {
		return Account{}, fmt.Errorf("%w: phone and phone_code are required", apperr.ErrValidation)
	}
	if len(in.Password) < 6 {
		return Account{}, fmt.Errorf("%w: password must be at least 6 characters", apperr.ErrValidation)
	}

	// Uniqueness among live rows only; a soft-deleted account frees its
	// phone for reuse.
	if _, err := s.store.ByPhone(ctx, in.Phone, in.PhoneCode); err == nil {
		return Account{}, fmt.Errorf("%w: phone already registered", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Account{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Account{}, err
	}
	return s.store.Create(ctx, repo.Fields{
		"type":       in.Type,
		"firstname":  strings.TrimSpace(in.Firstname),
		"lastname":   strings.TrimSpace(in.Lastname),
		"email":      in.Email,
		"phone":      in.Phone,
		"phone_code": in.PhoneCode,
		"password":   hash,
		"active":     true,
	})
}

// UpdateInput carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
}

// Update changes an account's profile fields and returns the updated row.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Account, error) {
	if _, err := s.store.ByID(ctx, id); err != nil {
		return Account{}, err
	}
	fields := repo.Fields{}
	if in.Firstname != nil {
		fields["firstname"] = strings.TrimSpace(*in.Firstname)
	}
	if in.Lastname != nil {
		fields["lastname"] = strings.TrimSpace(*in.Lastname)
	}
	if len(fields) == 0 {
		return Account{}, fmt.Errorf("%w: no fields to update", apperr.ErrValidation)
	}
	fields["updated_at"] = time.Now().UTC()
	if err := s.store.Update(ctx, id, fields); err != nil {
		return Account{}, err
	}
	return s.store.ByID(ctx, id)
}

// SetActive toggles an account's active flag. Toggling an admin account
// takes a super-admin actor; super-admin accounts cannot be toggled at all,
// mirroring the creation rules.
func (s *Service) SetActive(ctx context.Context, actorType string, id int64, active bool) (Account, error) {
	acct, err := s.store.ByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if acct.Type == TypeSuperAdmin {
		return Account{}, fmt.Errorf("%w: you are not authorized to perform this action", apperr.ErrForbidden)
	}
	if acct.Type == TypeAdmin && actorType != TypeSuperAdmin {
		return Account{}, fmt.Errorf("%w: you are not authorized to perform this action", apperr.ErrForbidden)
	}
	if err := s.store.Update(ctx, id, repo.Fields{
		"active":     active,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		return Account{}, err
	}
	acct.Active = active
	return acct, nil
}

// Delete soft-deletes an account. Its phone becomes reusable for new
// registrations while permission grants keyed on the id stay in place.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// List returns one page of live accounts.
func (s *Service) List(ctx context.Context, req repo.PageRequest) (repo.Page[Account], error) {
	return s.store.List(ctx, nil, req)
}

// ByID loads one live account.
func (s *Service) ByID(ctx context.Context, id int64) (Account, error) {
	return s.store.ByID(ctx, id)
}
