package permission

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/repo"
)

// Store describes the persistence the resolver needs. The pg implementation
// below is the production one; tests stub it.
type Store interface {
	ByID(ctx context.Context, id int64) (Permission, error)
	ByName(ctx context.Context, name string) (Permission, error)
	Create(ctx context.Context, name, description string) (Permission, error)
	Update(ctx context.Context, id int64, fields repo.Fields) error
	SoftDelete(ctx context.Context, id int64) error

	InsertRoleGrants(ctx context.Context, permissionID int64, roleNames []string) error
	InsertAccountGrants(ctx context.Context, permissionID int64, accountIDs []int64) error
	DeleteRoleGrants(ctx context.Context, permissionID int64) error
	DeleteAccountGrants(ctx context.Context, permissionID int64) error

	Detail(ctx context.Context, id int64) (Detail, error)
	ListDetails(ctx context.Context) ([]Detail, error)
	Effective(ctx context.Context, accountID int64, accountType string) ([]Permission, error)
}

// PGStore persists permissions through the generic repository, with
// hand-written joins for grant resolution.
type PGStore struct {
	db            *sql.DB
	permissions   *repo.Repo[Permission]
	roleGrants    *repo.Repo[RoleGrant]
	accountGrants *repo.Repo[AccountGrant]
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{
		db:            db,
		permissions:   repo.New(db, permissionSchema()),
		roleGrants:    repo.New(db, roleGrantSchema()),
		accountGrants: repo.New(db, accountGrantSchema()),
	}
}

func (s *PGStore) ByID(ctx context.Context, id int64) (Permission, error) {
	return s.permissions.GetByID(ctx, id)
}

func (s *PGStore) ByName(ctx context.Context, name string) (Permission, error) {
	return s.permissions.GetOne(ctx, repo.Filter{repo.Eq("name", name)})
}

func (s *PGStore) Create(ctx context.Context, name, description string) (Permission, error) {
	fields := repo.Fields{"name": name}
	if description != "" {
		fields["description"] = description
	}
	return s.permissions.Create(ctx, fields)
}

func (s *PGStore) Update(ctx context.Context, id int64, fields repo.Fields) error {
	return s.permissions.UpdateByID(ctx, id, fields)
}

func (s *PGStore) SoftDelete(ctx context.Context, id int64) error {
	return s.permissions.DeleteByID(ctx, id)
}

// Grant inserts are issued row by row, not wrapped in a transaction: a
// failure partway through leaves the permission with a partial grant set.
func (s *PGStore) InsertRoleGrants(ctx context.Context, permissionID int64, roleNames []string) error {
	for _, roleName := range roleNames {
		_, err := s.roleGrants.Create(ctx, repo.Fields{
			"permission_id": permissionID,
			"role_name":     roleName,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) InsertAccountGrants(ctx context.Context, permissionID int64, accountIDs []int64) error {
	for _, accountID := range accountIDs {
		_, err := s.accountGrants.Create(ctx, repo.Fields{
			"permission_id": permissionID,
			"account_id":    accountID,
		})
		if err != nil {
			if repo.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: account %d", apperr.ErrNotFound, accountID)
			}
			return err
		}
	}
	return nil
}

func (s *PGStore) DeleteRoleGrants(ctx context.Context, permissionID int64) error {
	_, err := s.roleGrants.DeleteWhere(ctx, repo.Filter{repo.Eq("permission_id", permissionID)})
	return err
}

func (s *PGStore) DeleteAccountGrants(ctx context.Context, permissionID int64) error {
	_, err := s.accountGrants.DeleteWhere(ctx, repo.Filter{repo.Eq("permission_id", permissionID)})
	return err
}

// Detail loads one live permission with its grants resolved.
func (s *PGStore) Detail(ctx context.Context, id int64) (Detail, error) {
	perm, err := s.ByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	details, err := s.attachGrants(ctx, []Permission{perm})
	if err != nil {
		return Detail{}, err
	}
	return details[0], nil
}

// ListDetails returns every live permission with grants resolved.
func (s *PGStore) ListDetails(ctx context.Context) ([]Detail, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, coalesce(description, ''), created_at, updated_at
		from permissions
		where deleted_at is null
		order by id
	`)
	if err != nil {
		return nil, s.internal("list permissions", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, s.internal("list permissions", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.internal("list permissions", err)
	}
	return s.attachGrants(ctx, perms)
}

func (s *PGStore) attachGrants(ctx context.Context, perms []Permission) ([]Detail, error) {
	details := make([]Detail, len(perms))
	index := make(map[int64]int, len(perms))
	for i, p := range perms {
		details[i] = Detail{Permission: p, Roles: []string{}, Accounts: []AccountRef{}}
		index[p.ID] = i
	}
	if len(perms) == 0 {
		return details, nil
	}

	roleRows, err := s.db.QueryContext(ctx, `
		select rp.permission_id, rp.role_name
		from role_permissions rp
		join permissions p on p.id = rp.permission_id and p.deleted_at is null
		order by rp.permission_id, rp.role_name
	`)
	if err != nil {
		return nil, s.internal("load role grants", err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var g RoleGrant
		if err := roleRows.Scan(&g.PermissionID, &g.RoleName); err != nil {
			return nil, s.internal("load role grants", err)
		}
		if i, ok := index[g.PermissionID]; ok {
			details[i].Roles = append(details[i].Roles, g.RoleName)
		}
	}
	if err := roleRows.Err(); err != nil {
		return nil, s.internal("load role grants", err)
	}

	acctRows, err := s.db.QueryContext(ctx, `
		select ap.permission_id, a.id, a.firstname, a.lastname
		from account_permissions ap
		join permissions p on p.id = ap.permission_id and p.deleted_at is null
		join accounts a on a.id = ap.account_id and a.deleted_at is null
		order by ap.permission_id, a.id
	`)
	if err != nil {
		return nil, s.internal("load account grants", err)
	}
	defer acctRows.Close()
	for acctRows.Next() {
		var permissionID int64
		var ref AccountRef
		if err := acctRows.Scan(&permissionID, &ref.ID, &ref.Firstname, &ref.Lastname); err != nil {
			return nil, s.internal("load account grants", err)
		}
		if i, ok := index[permissionID]; ok {
			details[i].Accounts = append(details[i].Accounts, ref)
		}
	}
	if err := acctRows.Err(); err != nil {
		return nil, s.internal("load account grants", err)
	}
	return details, nil
}

// Effective resolves the union of role-granted and directly-granted live
// permissions for one account.
func (s *PGStore) Effective(ctx context.Context, accountID int64, accountType string) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct p.id, p.name, coalesce(p.description, ''), p.created_at, p.updated_at
		from permissions p
		left join role_permissions rp on rp.permission_id = p.id
		left join account_permissions ap on ap.permission_id = p.id
		where p.deleted_at is null
		  and (rp.role_name = $1 or ap.account_id = $2)
		order by p.id
	`, accountType, accountID)
	if err != nil {
		return nil, s.internal("effective permissions", err)
	}
	defer rows.Close()

	perms := []Permission{}
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, s.internal("effective permissions", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.internal("effective permissions", err)
	}
	return perms, nil
}

func (s *PGStore) internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperr.ErrInternal, op, err)
}
