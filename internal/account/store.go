package account

import (
	"context"
	"database/sql"
	"time"

	"github.com/fixline/admin-api/internal/repo"
)

// Store persists accounts and device-token registrations through the generic
// repository.
type Store struct {
	accounts *repo.Repo[Account]
	devices  *repo.Repo[DeviceToken]
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		accounts: repo.New(db, accountSchema()),
		devices:  repo.New(db, deviceTokenSchema()),
	}
}

func (s *Store) ByID(ctx context.Context, id int64) (Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// AdminByPhone finds the live account with the given phone whose type ends
// in "admin". Only administrative accounts can hold a backend session.
func (s *Store) AdminByPhone(ctx context.Context, phone string) (Account, error) {
	return s.accounts.GetOne(ctx, repo.Filter{
		repo.Eq("phone", phone),
		repo.Like("type", "%admin"),
	})
}

// ByPhone checks phone uniqueness among live rows.
func (s *Store) ByPhone(ctx context.Context, phone, phoneCode string) (Account, error) {
	return s.accounts.GetOne(ctx, repo.Filter{
		repo.Eq("phone", phone),
		repo.Eq("phone_code", phoneCode),
	})
}

func (s *Store) Create(ctx context.Context, fields repo.Fields) (Account, error) {
	return s.accounts.Create(ctx, fields)
}

func (s *Store) Update(ctx context.Context, id int64, fields repo.Fields) error {
	return s.accounts.UpdateByID(ctx, id, fields)
}

// Delete soft-deletes the account row.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.accounts.DeleteByID(ctx, id)
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	return s.accounts.UpdateByID(ctx, id, repo.Fields{
		"last_login_at": time.Now().UTC(),
	})
}

func (s *Store) List(ctx context.Context, filter repo.Filter, req repo.PageRequest) (repo.Page[Account], error) {
	return s.accounts.List(ctx, filter, req)
}

// Device locates one push-token registration scoped to account, platform and
// token value.
func (s *Store) Device(ctx context.Context, accountID int64, platform, pushToken string) (DeviceToken, error) {
	return s.devices.GetOne(ctx, repo.Filter{
		repo.Eq("account_id", accountID),
		repo.Eq("platform", platform),
		repo.Eq("push_token", pushToken),
	})
}

func (s *Store) RemoveDevice(ctx context.Context, id int64) error {
	return s.devices.DeleteByID(ctx, id)
}

func (s *Store) RegisterDevice(ctx context.Context, accountID int64, platform, pushToken string) (DeviceToken, error) {
	return s.devices.Create(ctx, repo.Fields{
		"account_id": accountID,
		"platform":   platform,
		"push_token": pushToken,
	})
}
