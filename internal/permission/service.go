package permission

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/repo"
)

var nameRe = regexp.MustCompile(`^[a-z_]+$`)

const maxNameLen = 255

// Service validates and orchestrates permission management.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput carries a new permission plus its initial grants.
type CreateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	RoleNames   []string `json:"role_names"`
	AccountIDs  []int64  `json:"user_ids"`
}

// UpdateInput carries a partial update. Nil grant lists leave membership
// untouched; non-nil lists fully replace it.
type UpdateInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	RoleNames   *[]string `json:"role_names"`
	AccountIDs  *[]int64  `json:"user_ids"`
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLen || !nameRe.MatchString(name) {
		return fmt.Errorf("%w: name must match ^[a-z_]+$ and be at most %d characters", apperr.ErrValidation, maxNameLen)
	}
	return nil
}

// Create inserts the permission, then its grants. The grant inserts follow
// the permission insert without a wrapping transaction; a failure there
// leaves the permission with a partial grant set.
func (s *Service) Create(ctx context.Context, in CreateInput) (Detail, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return Detail{}, err
	}
	if len(in.Description) > maxNameLen {
		return Detail{}, fmt.Errorf("%w: description must be at most %d characters", apperr.ErrValidation, maxNameLen)
	}
	// Uniqueness holds among live rows only: a soft-deleted permission
	// frees its name for reuse.
	if _, err := s.store.ByName(ctx, in.Name); err == nil {
		return Detail{}, fmt.Errorf("%w: permission with this name already exists", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Detail{}, err
	}

	perm, err := s.store.Create(ctx, in.Name, in.Description)
	if err != nil {
		return Detail{}, err
	}
	if len(in.RoleNames) > 0 {
		if err := s.store.InsertRoleGrants(ctx, perm.ID, dedupeStrings(in.RoleNames)); err != nil {
			return Detail{}, err
		}
	}
	if len(in.AccountIDs) > 0 {
		if err := s.store.InsertAccountGrants(ctx, perm.ID, dedupeInts(in.AccountIDs)); err != nil {
			return Detail{}, err
		}
	}
	return s.store.Detail(ctx, perm.ID)
}

// Get returns one live permission with its grants.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	return s.store.Detail(ctx, id)
}

// List returns every live permission with grants resolved.
func (s *Service) List(ctx context.Context) ([]Detail, error) {
	return s.store.ListDetails(ctx)
}

// Update applies a partial update. Supplied grant lists replace membership
// wholesale (delete then insert) rather than diffing; the two steps are not
// atomic.
func (s *Service) Update(ctx context.Context, id int64, upd UpdateInput) (Detail, error) {
	current, err := s.store.ByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	fields := repo.Fields{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validateName(name); err != nil {
			return Detail{}, err
		}
		if name != current.Name {
			if _, err := s.store.ByName(ctx, name); err == nil {
				return Detail{}, fmt.Errorf("%w: permission with this name already exists", apperr.ErrConflict)
			} else if !errors.Is(err, apperr.ErrNotFound) {
				return Detail{}, err
			}
		}
		fields["name"] = name
	}
	if upd.Description != nil {
		if len(*upd.Description) > maxNameLen {
			return Detail{}, fmt.Errorf("%w: description must be at most %d characters", apperr.ErrValidation, maxNameLen)
		}
		fields["description"] = *upd.Description
	}
	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()
		if err := s.store.Update(ctx, id, fields); err != nil {
			return Detail{}, err
		}
	}

	if upd.RoleNames != nil {
		if err := s.store.DeleteRoleGrants(ctx, id); err != nil {
			return Detail{}, err
		}
		if names := dedupeStrings(*upd.RoleNames); len(names) > 0 {
			if err := s.store.InsertRoleGrants(ctx, id, names); err != nil {
				return Detail{}, err
			}
		}
	}
	if upd.AccountIDs != nil {
		if err := s.store.DeleteAccountGrants(ctx, id); err != nil {
			return Detail{}, err
		}
		if accountIDs := dedupeInts(*upd.AccountIDs); len(accountIDs) > 0 {
			if err := s.store.InsertAccountGrants(ctx, id, accountIDs); err != nil {
				return Detail{}, err
			}
		}
	}
	return s.store.Detail(ctx, id)
}

// Delete soft-deletes the permission. Grant rows are left in place, so
// reusing the name later makes the old grants resolvable again.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.ByID(ctx, id); err != nil {
		return err
	}
	return s.store.SoftDelete(ctx, id)
}

// Effective computes the union of role grants matching the account's type
// and direct account grants, restricted to live permissions.
func (s *Service) Effective(ctx context.Context, accountID int64, accountType string) ([]Permission, error) {
	if accountID <= 0 || strings.TrimSpace(accountType) == "" {
		return nil, fmt.Errorf("%w: account id and type are required", apperr.ErrValidation)
	}
	return s.store.Effective(ctx, accountID, accountType)
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupeInts(values []int64) []int64 {
	seen := make(map[int64]struct{}, len(values))
	out := make([]int64, 0, len(values))
	for _, v := range values {
		if v <= 0 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
