package permission

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/repo"
)

// memStore is an in-memory Store with the same live-row scoping the pg
// implementation has: soft-deleted permissions vanish from reads while their
// grant rows stay behind.
type memStore struct {
	nextID     int64
	perms      map[int64]Permission
	deleted    map[int64]bool
	roleGrants map[int64][]string
	acctGrants map[int64][]int64
}

func newMemStore() *memStore {
	return &memStore{
		perms:      make(map[int64]Permission),
		deleted:    make(map[int64]bool),
		roleGrants: make(map[int64][]string),
		acctGrants: make(map[int64][]int64),
	}
}

var _ Store = (*memStore)(nil)

func (m *memStore) ByID(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.perms[id]
	if !ok || m.deleted[id] {
		return Permission{}, fmt.Errorf("%w: permissions %d", apperr.ErrNotFound, id)
	}
	return p, nil
}

func (m *memStore) ByName(ctx context.Context, name string) (Permission, error) {
	for id, p := range m.perms {
		if p.Name == name && !m.deleted[id] {
			return p, nil
		}
	}
	return Permission{}, fmt.Errorf("%w: permissions", apperr.ErrNotFound)
}

func (m *memStore) Create(ctx context.Context, name, description string) (Permission, error) {
	m.nextID++
	now := time.Now().UTC()
	p := Permission{ID: m.nextID, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	m.perms[p.ID] = p
	return p, nil
}

func (m *memStore) Update(ctx context.Context, id int64, fields repo.Fields) error {
	p, ok := m.perms[id]
	if !ok || m.deleted[id] {
		return fmt.Errorf("%w: permissions %d", apperr.ErrNotFound, id)
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		p.Description = v.(string)
	}
	if v, ok := fields["updated_at"]; ok {
		p.UpdatedAt = v.(time.Time)
	}
	m.perms[id] = p
	return nil
}

func (m *memStore) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.perms[id]; !ok || m.deleted[id] {
		return fmt.Errorf("%w: permissions %d", apperr.ErrNotFound, id)
	}
	m.deleted[id] = true
	return nil
}

func (m *memStore) InsertRoleGrants(ctx context.Context, permissionID int64, roleNames []string) error {
	m.roleGrants[permissionID] = append(m.roleGrants[permissionID], roleNames...)
	return nil
}

func (m *memStore) InsertAccountGrants(ctx context.Context, permissionID int64, accountIDs []int64) error {
	m.acctGrants[permissionID] = append(m.acctGrants[permissionID], accountIDs...)
	return nil
}

func (m *memStore) DeleteRoleGrants(ctx context.Context, permissionID int64) error {
	delete(m.roleGrants, permissionID)
	return nil
}

func (m *memStore) DeleteAccountGrants(ctx context.Context, permissionID int64) error {
	delete(m.acctGrants, permissionID)
	return nil
}

func (m *memStore) Detail(ctx context.Context, id int64) (Detail, error) {
	p, err := m.ByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Permission: p, Roles: []string{}, Accounts: []AccountRef{}}
	d.Roles = append(d.Roles, m.roleGrants[id]...)
	for _, accountID := range m.acctGrants[id] {
		d.Accounts = append(d.Accounts, AccountRef{ID: accountID})
	}
	return d, nil
}

func (m *memStore) ListDetails(ctx context.Context) ([]Detail, error) {
	var out []Detail
	for id := range m.perms {
		if m.deleted[id] {
			continue
		}
		d, err := m.Detail(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Detail) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *memStore) Effective(ctx context.Context, accountID int64, accountType string) ([]Permission, error) {
	perms := []Permission{}
	for id, p := range m.perms {
		if m.deleted[id] {
			continue
		}
		granted := slices.Contains(m.roleGrants[id], accountType) ||
			slices.Contains(m.acctGrants[id], accountID)
		if granted {
			perms = append(perms, p)
		}
	}
	slices.SortFunc(perms, func(a, b Permission) int { return int(a.ID - b.ID) })
	return perms, nil
}

func TestCreatePermissionWithGrants(t *testing.T) {
	svc := NewService(newMemStore())

	detail, err := svc.Create(context.Background(), CreateInput{
		Name:        "manage_orders",
		Description: "order administration",
		RoleNames:   []string{"admin", "admin", " sp "},
		AccountIDs:  []int64{7, 7, 0},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Name != "manage_orders" {
		t.Fatalf("unexpected name: %s", detail.Name)
	}
	if !slices.Equal(detail.Roles, []string{"admin", "sp"}) {
		t.Fatalf("expected deduplicated trimmed roles, got %v", detail.Roles)
	}
	if len(detail.Accounts) != 1 || detail.Accounts[0].ID != 7 {
		t.Fatalf("expected one account grant, got %v", detail.Accounts)
	}
}

func TestCreatePermissionNameValidation(t *testing.T) {
	svc := NewService(newMemStore())

	for _, name := range []string{"", "Invalid Name!", "CamelCase", "with-dash", "with123"} {
		if _, err := svc.Create(context.Background(), CreateInput{Name: name}); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("name %q: expected ErrValidation, got %v", name, err)
		}
	}

	long := make([]byte, maxNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := svc.Create(context.Background(), CreateInput{Name: string(long)}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for overlong name, got %v", err)
	}
}

func TestCreateDuplicateLiveNameConflicts(t *testing.T) {
	svc := NewService(newMemStore())

	first, err := svc.Create(context.Background(), CreateInput{Name: "manage_orders"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Name: "manage_orders"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Soft-deleting frees the name for reuse.
	if err := svc.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Name: "manage_orders"}); err != nil {
		t.Fatalf("expected reuse after soft delete, got %v", err)
	}
}

func TestUpdateNilGrantListsLeaveMembership(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:      "manage_orders",
		RoleNames: []string{"admin"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := "updated description"
	detail, err := svc.Update(context.Background(), created.ID, UpdateInput{Description: &desc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if detail.Description != desc {
		t.Fatalf("description not updated: %s", detail.Description)
	}
	if !slices.Equal(detail.Roles, []string{"admin"}) {
		t.Fatalf("nil role list must not touch grants, got %v", detail.Roles)
	}
	if detail.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected updated_at to move")
	}
}

func TestUpdateReplacesGrantsWholesale(t *testing.T) {
	svc := NewService(newMemStore())

	created, err := svc.Create(context.Background(), CreateInput{
		Name:       "manage_orders",
		RoleNames:  []string{"admin", "sp"},
		AccountIDs: []int64{7},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	roles := []string{"super-admin"}
	empty := []int64{}
	detail, err := svc.Update(context.Background(), created.ID, UpdateInput{
		RoleNames:  &roles,
		AccountIDs: &empty,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !slices.Equal(detail.Roles, []string{"super-admin"}) {
		t.Fatalf("roles not replaced: %v", detail.Roles)
	}
	if len(detail.Accounts) != 0 {
		t.Fatalf("empty list must clear account grants, got %v", detail.Accounts)
	}
}

func TestUpdateRenameToLiveNameConflicts(t *testing.T) {
	svc := NewService(newMemStore())

	if _, err := svc.Create(context.Background(), CreateInput{Name: "manage_orders"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(context.Background(), CreateInput{Name: "manage_users"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	taken := "manage_orders"
	if _, err := svc.Update(context.Background(), second.ID, UpdateInput{Name: &taken}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Renaming to its own current name is a no-op, not a conflict.
	same := "manage_users"
	if _, err := svc.Update(context.Background(), second.ID, UpdateInput{Name: &same}); err != nil {
		t.Fatalf("self-rename: %v", err)
	}
}

func TestDeleteHidesPermissionButKeepsGrantRows(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:      "manage_orders",
		RoleNames: []string{"admin"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}

	// Grant rows stay behind; only the permission row is stamped.
	if len(store.roleGrants[created.ID]) != 1 {
		t.Fatalf("grant rows must survive the soft delete")
	}
}

func TestEffectiveUnionExcludesSoftDeleted(t *testing.T) {
	svc := NewService(newMemStore())

	if _, err := svc.Create(context.Background(), CreateInput{Name: "via_role", RoleNames: []string{"admin"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Name: "via_account", AccountIDs: []int64{42}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{
		Name:       "via_both",
		RoleNames:  []string{"admin"},
		AccountIDs: []int64{42},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	gone, err := svc.Create(context.Background(), CreateInput{Name: "deleted_one", RoleNames: []string{"admin"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	perms, err := svc.Effective(context.Background(), 42, "admin")
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	var names []string
	for _, p := range perms {
		names = append(names, p.Name)
	}
	if !slices.Equal(names, []string{"via_role", "via_account", "via_both"}) {
		t.Fatalf("unexpected effective set: %v", names)
	}
}

func TestEffectiveValidatesInput(t *testing.T) {
	svc := NewService(newMemStore())

	if _, err := svc.Effective(context.Background(), 0, "admin"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Effective(context.Background(), 42, " "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
