// Package permission manages the permission catalog and its grants to roles
// and to individual accounts, and resolves effective permission sets.
package permission

import (
	"time"

	"github.com/fixline/admin-api/internal/repo"
)

// Permission is one named capability. Soft-deleted rows stay in the table
// but disappear from every active read path.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleGrant gives a permission to every account whose type equals RoleName.
type RoleGrant struct {
	PermissionID int64  `json:"permission_id"`
	RoleName     string `json:"role_name"`
}

// AccountGrant gives a permission directly to one account.
type AccountGrant struct {
	PermissionID int64 `json:"permission_id"`
	AccountID    int64 `json:"account_id"`
}

// AccountRef is the minimal account projection attached to grant listings.
type AccountRef struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// Detail is a permission joined with its grants.
type Detail struct {
	Permission
	Roles    []string     `json:"roles"`
	Accounts []AccountRef `json:"users"`
}

func permissionSchema() repo.Schema[Permission] {
	return repo.Schema[Permission]{
		Table:      "permissions",
		Columns:    []string{"id", "name", "coalesce(description, '')", "created_at", "updated_at"},
		SoftDelete: true,
		Scan: func(row repo.RowScanner) (Permission, error) {
			var p Permission
			if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return Permission{}, err
			}
			return p, nil
		},
	}
}

func roleGrantSchema() repo.Schema[RoleGrant] {
	return repo.Schema[RoleGrant]{
		Table:   "role_permissions",
		Columns: []string{"permission_id", "role_name"},
		Scan: func(row repo.RowScanner) (RoleGrant, error) {
			var g RoleGrant
			if err := row.Scan(&g.PermissionID, &g.RoleName); err != nil {
				return RoleGrant{}, err
			}
			return g, nil
		},
	}
}

func accountGrantSchema() repo.Schema[AccountGrant] {
	return repo.Schema[AccountGrant]{
		Table:   "account_permissions",
		Columns: []string{"permission_id", "account_id"},
		Scan: func(row repo.RowScanner) (AccountGrant, error) {
			var g AccountGrant
			if err := row.Scan(&g.PermissionID, &g.AccountID); err != nil {
				return AccountGrant{}, err
			}
			return g, nil
		},
	}
}
