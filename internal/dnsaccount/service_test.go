package dnsaccount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/crypto"
	"go_subdns/internal/dns"
	"go_subdns/internal/logger"
	"go_subdns/internal/model"
	"go_subdns/internal/testutil"
)

type stubCatalog map[dns.ProviderType]bool

func (c stubCatalog) IsEnabled(ctx context.Context, t dns.ProviderType) (bool, error) {
	return c[t], nil
}

type fixture struct {
	db      *gorm.DB
	codec   *crypto.Codec
	factory *testutil.FakeFactory
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	codec, err := crypto.NewCodec("test-encryption-key-0123")
	require.NoError(t, err)
	factory := testutil.NewFakeFactory()
	catalog := stubCatalog{dns.ProviderCloudflare: true, dns.ProviderAliyun: true}
	return &fixture{
		db:      db,
		codec:   codec,
		factory: factory,
		svc:     NewService(db, codec, factory.Build, catalog, time.Second, logger.Discard()),
	}
}

func (f *fixture) create(t *testing.T, name string, isDefault bool) *model.DNSAccount {
	t.Helper()
	account, err := f.svc.Create(context.Background(), CreateParams{
		Name:         name,
		ProviderType: "cloudflare",
		Credentials:  map[string]string{"apiToken": "token-" + name},
		IsDefault:    isDefault,
	})
	require.NoError(t, err)
	return account
}

func TestCreate_EncryptsCredentials(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "primary", false)

	assert.Equal(t, "cloudflare", account.ProviderType)
	assert.True(t, account.IsActive)
	assert.NotContains(t, account.EncryptedCredentials, "token-primary")
	assert.Equal(t, 1, f.factory.Fake(dns.ProviderCloudflare).CallCount("validate"))
	assert.Equal(t, "token-primary", f.factory.LastCreds["apiToken"])

	creds, err := f.codec.DecryptCredentials(account.EncryptedCredentials)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"apiToken": "token-primary"}, creds)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		params   CreateParams
		setup    func(f *fixture)
		wantKind apperr.Kind
	}{
		{
			name:     "unknown provider",
			params:   CreateParams{Name: "x", ProviderType: "route53", Credentials: map[string]string{"k": "v"}},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "incomplete credentials",
			params:   CreateParams{Name: "x", ProviderType: "cloudflare", Credentials: map[string]string{"apiKey": "k"}},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "provider says invalid",
			params:   CreateParams{Name: "x", ProviderType: "aliyun", Credentials: map[string]string{"accessKeyId": "id", "accessKeySecret": "s"}},
			setup:    func(f *fixture) { f.factory.Fake(dns.ProviderAliyun).Valid = false },
			wantKind: apperr.KindCredential,
		},
		{
			name:     "validation call fails",
			params:   CreateParams{Name: "x", ProviderType: "cloudflare", Credentials: map[string]string{"apiToken": "t"}},
			setup:    func(f *fixture) { f.factory.Fake(dns.ProviderCloudflare).ValidateErr = errors.New("boom") },
			wantKind: apperr.KindCredential,
		},
		{
			name:     "missing name",
			params:   CreateParams{ProviderType: "cloudflare", Credentials: map[string]string{"apiToken": "t"}},
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.Create(context.Background(), tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))

			var count int64
			require.NoError(t, f.db.Model(&model.DNSAccount{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestCreate_DisabledProvider(t *testing.T) {
	f := newFixture(t)
	f.svc.catalog = stubCatalog{dns.ProviderCloudflare: false}

	_, err := f.svc.Create(context.Background(), CreateParams{
		Name: "x", ProviderType: "cloudflare", Credentials: map[string]string{"apiToken": "t"},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, f.factory.Fake(dns.ProviderCloudflare).CallCount("validate"))
}

func TestDefaultFlag_SingleDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, "first", true)
	second := f.create(t, "second", true)

	var defaults []model.DNSAccount
	require.NoError(t, f.db.Where("is_default = ?", true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	assert.Equal(t, second.ID, defaults[0].ID)

	yes := true
	_, err := f.svc.Update(ctx, first.ID, UpdateParams{IsDefault: &yes})
	require.NoError(t, err)

	defaults = nil
	require.NoError(t, f.db.Where("is_default = ?", true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	assert.Equal(t, first.ID, defaults[0].ID)
}

func TestUpdate_ReplacesCredentialsWithoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.create(t, "acct", false)

	name := "renamed"
	updated, err := f.svc.Update(ctx, account.ID, UpdateParams{
		Name:        &name,
		Credentials: map[string]string{"apiKey": "key", "email": "ops@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 1, f.factory.Fake(dns.ProviderCloudflare).CallCount("validate"))

	creds, err := f.codec.DecryptCredentials(updated.EncryptedCredentials)
	require.NoError(t, err)
	assert.Equal(t, "key", creds["apiKey"])

	_, err = f.svc.Update(ctx, account.ID, UpdateParams{Credentials: map[string]string{"email": "x"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Update(ctx, 12345, UpdateParams{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDelete_BlockedByReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.create(t, "acct", false)

	avail := &model.AvailableDomain{Domain: "example.com", DNSAccountID: account.ID, IsActive: true}
	require.NoError(t, f.db.Create(avail).Error)

	err := f.svc.Delete(ctx, account.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "DNS account has references", err.Error())

	got, err := f.svc.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AvailableDomainCount)

	require.NoError(t, f.db.Delete(avail).Error)
	require.NoError(t, f.svc.Delete(ctx, account.ID))
	assert.True(t, apperr.Is(f.svc.Delete(ctx, account.ID), apperr.KindNotFound))
}

func TestProviderFor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.create(t, "acct", false)

	p, err := f.svc.ProviderFor(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, dns.ProviderCloudflare, p.Type())

	off := false
	_, err = f.svc.Update(ctx, account.ID, UpdateParams{IsActive: &off})
	require.NoError(t, err)
	_, err = f.svc.ProviderFor(ctx, account.ID)
	assert.True(t, apperr.Is(err, apperr.KindCredential))

	_, err = f.svc.ProviderFor(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindCredential))
}

func TestProviderFor_CorruptCiphertext(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "acct", false)
	require.NoError(t, f.db.Model(account).Update("encrypted_credentials", "not-a-ciphertext").Error)

	_, err := f.svc.ProviderFor(context.Background(), account.ID)
	assert.True(t, apperr.Is(err, apperr.KindCredential))
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
}

func TestListAndProviderDomains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "a", false)
	b := f.create(t, "b", false)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	f.factory.Fake(dns.ProviderCloudflare).Domains = []string{"example.com", "example.net"}
	domains, err := f.svc.ListProviderDomains(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "example.net"}, domains)
}
