package availabledomain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/logger"
	"go_subdns/internal/model"
	"go_subdns/internal/testutil"
)

func newAccount(t *testing.T, db *gorm.DB, providerType string, active bool) *model.DNSAccount {
	t.Helper()
	account := &model.DNSAccount{Name: providerType, ProviderType: providerType, EncryptedCredentials: "x", IsActive: active}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestCreate(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewService(db, logger.Discard())
	ctx := context.Background()
	account := newAccount(t, db, "cloudflare", true)

	row, err := s.Create(ctx, account.ID, " Example.COM. ")
	require.NoError(t, err)
	assert.Equal(t, "example.com", row.Domain)
	assert.True(t, row.IsActive)

	_, err = s.Create(ctx, account.ID, "example.com")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.Create(ctx, 999, "example.org")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "DNS account not found", err.Error())

	_, err = s.Create(ctx, account.ID, "dev.example.org")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.Create(ctx, account.ID, "10.0.0.1")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListActive_HidesInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewService(db, logger.Discard())
	ctx := context.Background()

	cf := newAccount(t, db, "cloudflare", true)
	ali := newAccount(t, db, "aliyun", true)
	off := newAccount(t, db, "cloudflare", false)

	a, err := s.Create(ctx, cf.ID, "example.com")
	require.NoError(t, err)
	_, err = s.Create(ctx, ali.ID, "example.cn")
	require.NoError(t, err)
	_, err = s.Create(ctx, off.ID, "example.net")
	require.NoError(t, err)
	disabled, err := s.Create(ctx, cf.ID, "example.org")
	require.NoError(t, err)
	_, err = s.Update(ctx, disabled.ID, false)
	require.NoError(t, err)

	items, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "example.cn", items[0].Domain)
	assert.False(t, items[0].SupportsProxy)
	assert.Equal(t, "aliyun", items[0].ProviderType)
	assert.Equal(t, a.ID, items[1].ID)
	assert.True(t, items[1].SupportsProxy)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDelete_BlockedBySubdomains(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewService(db, logger.Discard())
	ctx := context.Background()
	account := newAccount(t, db, "cloudflare", true)

	row, err := s.Create(ctx, account.ID, "example.com")
	require.NoError(t, err)
	sub := &model.Domain{
		UserID: 1, AvailableDomainID: row.ID, DNSAccountID: account.ID,
		Subdomain: "app", FullName: "app.example.com", RecordType: "A", Value: "1.2.3.4",
		TTL: 300, Status: model.DomainStatusPending,
	}
	require.NoError(t, db.Create(sub).Error)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].SubdomainCount)

	assert.True(t, apperr.Is(s.Delete(ctx, row.ID), apperr.KindConflict))

	require.NoError(t, db.Delete(sub).Error)
	require.NoError(t, s.Delete(ctx, row.ID))
	assert.True(t, apperr.Is(s.Delete(ctx, row.ID), apperr.KindNotFound))
}
