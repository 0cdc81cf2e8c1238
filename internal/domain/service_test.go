package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/blocklist"
	"go_subdns/internal/dns"
	"go_subdns/internal/logger"
	"go_subdns/internal/model"
	"go_subdns/internal/testutil"
)

type stubPolicy struct{ status model.DomainStatus }

func (p *stubPolicy) DefaultDomainStatus(ctx context.Context) (model.DomainStatus, error) {
	return p.status, nil
}

type stubResolver struct {
	providers map[int]dns.Provider
	err       error
	calls     int
	onResolve func()
}

func (r *stubResolver) ProviderFor(ctx context.Context, accountID int) (dns.Provider, error) {
	r.calls++
	if r.onResolve != nil {
		r.onResolve()
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.providers[accountID], nil
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	policy   *stubPolicy
	resolver *stubResolver
	block    *blocklist.Service

	cf     *testutil.FakeProvider
	ali    *testutil.FakeProvider
	cfRoot *model.AvailableDomain
	alRoot *model.AvailableDomain
	user   *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)

	cfAccount := &model.DNSAccount{Name: "cf", ProviderType: "cloudflare", EncryptedCredentials: "x", IsActive: true}
	alAccount := &model.DNSAccount{Name: "ali", ProviderType: "aliyun", EncryptedCredentials: "x", IsActive: true}
	require.NoError(t, db.Create(cfAccount).Error)
	require.NoError(t, db.Create(alAccount).Error)

	cfRoot := &model.AvailableDomain{Domain: "example.com", DNSAccountID: cfAccount.ID, IsActive: true}
	alRoot := &model.AvailableDomain{Domain: "example.cn", DNSAccountID: alAccount.ID, IsActive: true}
	require.NoError(t, db.Create(cfRoot).Error)
	require.NoError(t, db.Create(alRoot).Error)

	user := &model.User{Email: "alice@example.com", PasswordHash: "x", Role: model.RoleUser, Quota: 5, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	cf := testutil.NewFakeProvider(dns.ProviderCloudflare)
	ali := testutil.NewFakeProvider(dns.ProviderAliyun)
	resolver := &stubResolver{providers: map[int]dns.Provider{cfAccount.ID: cf, alAccount.ID: ali}}
	policy := &stubPolicy{status: model.DomainStatusActive}
	block := blocklist.NewService(db, logger.Discard())

	return &fixture{
		db:       db,
		svc:      NewService(db, resolver, block, policy, time.Second, logger.Discard()),
		policy:   policy,
		resolver: resolver,
		block:    block,
		cf:       cf,
		ali:      ali,
		cfRoot:   cfRoot,
		alRoot:   alRoot,
		user:     user,
	}
}

func (f *fixture) params(sub string) CreateParams {
	return CreateParams{AvailableDomainID: f.cfRoot.ID, Subdomain: sub, RecordType: "A", Value: "1.2.3.4"}
}

func (f *fixture) countDomains(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Domain{}).Count(&n).Error)
	return n
}

func (f *fixture) reload(t *testing.T, id int) model.Domain {
	t.Helper()
	var d model.Domain
	require.NoError(t, f.db.First(&d, id).Error)
	return d
}

func TestCreate_ActivePolicySuccess(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Create(context.Background(), f.user.ID, f.params("blog"))
	require.NoError(t, err)

	assert.Equal(t, model.DomainStatusActive, d.Status)
	require.NotNil(t, d.ProviderRecordID)
	assert.Equal(t, "blog.example.com", d.FullName)
	assert.Equal(t, model.DefaultRecordTTL, d.TTL)

	rec, ok := f.cf.Record(*d.ProviderRecordID)
	require.True(t, ok)
	assert.Equal(t, "blog.example.com", rec.Name)
	assert.Equal(t, "1.2.3.4", rec.Value)
}

func TestCreate_PendingPolicySkipsProvider(t *testing.T) {
	f := newFixture(t)
	f.policy.status = model.DomainStatusPending

	d, err := f.svc.Create(context.Background(), f.user.ID, f.params("blog"))
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusPending, d.Status)
	assert.Nil(t, d.ProviderRecordID)
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.cf.CallCount("create"))
}

func TestCreate_ProviderFailureRecordsRejected(t *testing.T) {
	f := newFixture(t)
	f.cf.CreateErr = errors.New("record already exists")

	d, err := f.svc.Create(context.Background(), f.user.ID, f.params("blog"))
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusRejected, d.Status)
	assert.Nil(t, d.ProviderRecordID)

	stored := f.reload(t, d.ID)
	assert.Equal(t, model.DomainStatusRejected, stored.Status)
	assert.Nil(t, stored.ProviderRecordID)
	assert.Contains(t, stored.LastError, "record already exists")
}

// blankIDProvider accepts records but reports no id for them
type blankIDProvider struct{ *testutil.FakeProvider }

func (p blankIDProvider) CreateRecord(ctx context.Context, domain string, record dns.Record) (dns.Record, error) {
	rec, err := p.FakeProvider.CreateRecord(ctx, domain, record)
	rec.ID = ""
	return rec, err
}

func TestCreate_EmptyRecordIDRecordsRejected(t *testing.T) {
	f := newFixture(t)
	f.resolver.providers[f.cfRoot.DNSAccountID] = blankIDProvider{f.cf}

	d, err := f.svc.Create(context.Background(), f.user.ID, f.params("blank"))
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusRejected, d.Status)
	assert.Nil(t, d.ProviderRecordID)

	stored := f.reload(t, d.ID)
	assert.Equal(t, model.DomainStatusRejected, stored.Status)
	assert.Contains(t, stored.LastError, "empty record id")
}

func TestCreate_ProviderTimeoutRecordsRejected(t *testing.T) {
	f := newFixture(t)
	f.cf.CreateErr = context.DeadlineExceeded

	d, err := f.svc.Create(context.Background(), f.user.ID, f.params("slow"))
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusRejected, d.Status)
	assert.Contains(t, d.LastError, "deadline exceeded")
}

func TestCreate_CredentialFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = apperr.Credential("failed to decrypt DNS account credentials", errors.New("bad key"))

	_, err := f.svc.Create(context.Background(), f.user.ID, f.params("blog"))
	assert.True(t, apperr.Is(err, apperr.KindCredential))
	assert.Zero(t, f.countDomains(t))
}

func TestCreate_BlockedAnyCase(t *testing.T) {
	f := newFixture(t)
	_, err := f.block.Create(context.Background(), "admin", "reserved")
	require.NoError(t, err)

	for _, sub := range []string{"admin", "ADMIN", "Admin"} {
		_, err := f.svc.Create(context.Background(), f.user.ID, f.params(sub))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "已被管理员禁用: reserved")
	}
	assert.Equal(t, `子域名 "admin" 已被管理员禁用: reserved`, func() string {
		_, err := f.svc.Create(context.Background(), f.user.ID, f.params("admin"))
		return err.Error()
	}())
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.countDomains(t))
}

func TestCreate_QuotaExceeded(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.user).Update("quota", 1).Error)

	_, err := f.svc.Create(context.Background(), f.user.ID, f.params("one"))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.user.ID, f.params("two"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Domain quota exceeded", err.Error())
	assert.Equal(t, int64(1), f.countDomains(t))
	assert.Equal(t, 1, f.cf.CallCount("create"))
}

func TestCreate_RejectedRecordsCountTowardsQuota(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.user).Update("quota", 1).Error)
	f.cf.CreateErr = errors.New("boom")

	_, err := f.svc.Create(context.Background(), f.user.ID, f.params("one"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.user.ID, f.params("two"))
	assert.Equal(t, "Domain quota exceeded", err.Error())
}

func TestCreate_DuplicateSubdomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.user.ID, f.params("blog"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.user.ID, f.params("Blog"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Subdomain already exists", err.Error())

	// 不同根域名下可以重名
	other := f.params("blog")
	other.AvailableDomainID = f.alRoot.ID
	_, err = f.svc.Create(ctx, f.user.ID, other)
	require.NoError(t, err)
}

func TestCreate_InactiveOrMissingRoot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.cfRoot).Update("is_active", false).Error)

	_, err := f.svc.Create(context.Background(), f.user.ID, f.params("blog"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Available domain not found", err.Error())

	p := f.params("blog")
	p.AvailableDomainID = 999
	_, err = f.svc.Create(context.Background(), f.user.ID, p)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreate_InputValidation(t *testing.T) {
	f := newFixture(t)
	ttl := 5

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"bad label", CreateParams{AvailableDomainID: f.cfRoot.ID, Subdomain: "a.b", RecordType: "A", Value: "1.2.3.4"}},
		{"bad type", CreateParams{AvailableDomainID: f.cfRoot.ID, Subdomain: "a", RecordType: "TXT", Value: "x"}},
		{"bad ipv4", CreateParams{AvailableDomainID: f.cfRoot.ID, Subdomain: "a", RecordType: "A", Value: "300.1.1.1"}},
		{"bad ttl", CreateParams{AvailableDomainID: f.cfRoot.ID, Subdomain: "a", RecordType: "A", Value: "1.1.1.1", TTL: &ttl}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.user.ID, tt.params)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
	assert.Zero(t, f.resolver.calls)
}

func TestCreate_ProxiedOnlyWhereSupported(t *testing.T) {
	f := newFixture(t)
	yes := true

	p := CreateParams{AvailableDomainID: f.cfRoot.ID, Subdomain: "cdn", RecordType: "CNAME", Value: "origin.example.net", Proxied: &yes}
	d, err := f.svc.Create(context.Background(), f.user.ID, p)
	require.NoError(t, err)
	assert.True(t, d.Proxied)

	p.AvailableDomainID = f.alRoot.ID
	d, err = f.svc.Create(context.Background(), f.user.ID, p)
	require.NoError(t, err)
	assert.False(t, d.Proxied)
	rec, _ := f.ali.Record(*d.ProviderRecordID)
	assert.False(t, rec.Proxied)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.user.ID, f.params("app"))
	require.NoError(t, err)

	value := "5.6.7.8"
	updated, err := f.svc.Update(ctx, f.user.ID, d.ID, UpdateParams{Value: &value})
	require.NoError(t, err)
	assert.Equal(t, "5.6.7.8", updated.Value)
	assert.Equal(t, 2, f.reload(t, d.ID).Version)

	rec, _ := f.cf.Record(*d.ProviderRecordID)
	assert.Equal(t, "5.6.7.8", rec.Value)
	assert.Equal(t, "app.example.com", rec.Name)
}

func TestUpdate_ProviderFailureLeavesRowUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.user.ID, f.params("app"))
	require.NoError(t, err)

	f.cf.UpdateErr = errors.New("rate limited")
	value, proxied := "9.9.9.9", true
	_, err = f.svc.Update(ctx, f.user.ID, d.ID, UpdateParams{Value: &value, Proxied: &proxied})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindProvider))
	assert.Contains(t, err.Error(), "provider operation failed")

	stored := f.reload(t, d.ID)
	assert.Equal(t, "1.2.3.4", stored.Value)
	assert.False(t, stored.Proxied)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdate_ProviderTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.user.ID, f.params("app"))
	require.NoError(t, err)

	f.cf.UpdateErr = context.DeadlineExceeded
	value := "9.9.9.9"
	_, err = f.svc.Update(ctx, f.user.ID, d.ID, UpdateParams{Value: &value})
	assert.True(t, apperr.Is(err, apperr.KindProviderTimeout))
}

func TestUpdate_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	value := "5.6.7.8"

	f.policy.status = model.DomainStatusPending
	pending, err := f.svc.Create(ctx, f.user.ID, f.params("later"))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.user.ID, pending.ID, UpdateParams{Value: &value})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Update(ctx, f.user.ID+1, pending.ID, UpdateParams{Value: &value})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Update(ctx, f.user.ID, pending.ID, UpdateParams{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, f.cf.CallCount("update"))
}

func TestUpdate_ConcurrentModification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.user.ID, f.params("race"))
	require.NoError(t, err)

	f.resolver.onResolve = func() {
		f.db.Model(&model.Domain{}).Where("id = ?", d.ID).Update("version", gorm.Expr("version + 1"))
	}
	value := "5.6.7.8"
	_, err = f.svc.Update(ctx, f.user.ID, d.ID, UpdateParams{Value: &value})
	require.Error(t, err)
	assert.Equal(t, "domain was modified concurrently", err.Error())
}

func TestDelete_RemoteFailureStillRemovesRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.user.ID, f.params("gone"))
	require.NoError(t, err)

	f.cf.DeleteErr = errors.New("provider down")
	require.NoError(t, f.svc.Delete(ctx, f.user.ID, d.ID))
	assert.Zero(t, f.countDomains(t))
	assert.Equal(t, 1, f.cf.CallCount("delete"))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.user.ID, f.params("gone"))
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.Delete(ctx, f.user.ID+1, d.ID), apperr.KindNotFound))

	require.NoError(t, f.svc.Delete(ctx, f.user.ID, d.ID))
	_, ok := f.cf.Record(*d.ProviderRecordID)
	assert.False(t, ok)

	// 没有远端记录时不调用服务商
	f.policy.status = model.DomainStatusPending
	p, err := f.svc.Create(ctx, f.user.ID, f.params("local"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, f.user.ID, p.ID))
	assert.Equal(t, 1, f.cf.CallCount("delete"))
}

func TestAdminSetStatus_Activate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.policy.status = model.DomainStatusPending
	d, err := f.svc.Create(ctx, f.user.ID, f.params("wait"))
	require.NoError(t, err)

	got, err := f.svc.AdminSetStatus(ctx, d.ID, model.DomainStatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusActive, got.Status)
	require.True(t, got.HasRemoteRecord())
	assert.Equal(t, 1, f.cf.CallCount("create"))

	// 再次设置同一状态是空操作
	again, err := f.svc.AdminSetStatus(ctx, d.ID, model.DomainStatusActive)
	require.NoError(t, err)
	assert.Equal(t, got.Version, again.Version)
	assert.Equal(t, 1, f.cf.CallCount("create"))
}

func TestAdminSetStatus_ActivationFailureRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.policy.status = model.DomainStatusPending
	d, err := f.svc.Create(ctx, f.user.ID, f.params("wait"))
	require.NoError(t, err)

	f.cf.CreateErr = errors.New("duplicate remote record")
	got, err := f.svc.AdminSetStatus(ctx, d.ID, model.DomainStatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusRejected, got.Status)
	assert.Nil(t, got.ProviderRecordID)
	assert.Contains(t, got.LastError, "duplicate remote record")

	_, err = f.svc.AdminSetStatus(ctx, d.ID, model.DomainStatusActive)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAdminSetStatus_RejectIsLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.policy.status = model.DomainStatusPending
	d, err := f.svc.Create(ctx, f.user.ID, f.params("wait"))
	require.NoError(t, err)

	got, err := f.svc.AdminSetStatus(ctx, d.ID, model.DomainStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusRejected, got.Status)
	assert.Zero(t, f.resolver.calls)

	_, err = f.svc.AdminSetStatus(ctx, d.ID, "deleted")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.svc.AdminSetStatus(ctx, 999, model.DomainStatusActive)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdminSetValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.policy.status = model.DomainStatusPending
	pending, err := f.svc.Create(ctx, f.user.ID, f.params("wait"))
	require.NoError(t, err)
	_, err = f.svc.AdminSetValue(ctx, pending.ID, "8.8.8.8")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	f.policy.status = model.DomainStatusActive
	d, err := f.svc.Create(ctx, f.user.ID, f.params("live"))
	require.NoError(t, err)

	got, err := f.svc.AdminSetValue(ctx, d.ID, "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "8.8.8.8", got.Value)

	f.cf.UpdateErr = errors.New("boom")
	_, err = f.svc.AdminSetValue(ctx, d.ID, "9.9.9.9")
	assert.True(t, apperr.Is(err, apperr.KindProvider))
	assert.Equal(t, "8.8.8.8", f.reload(t, d.ID).Value)
}

func TestLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.user.ID, f.params("one"))
	require.NoError(t, err)
	f.policy.status = model.DomainStatusPending
	_, err = f.svc.Create(ctx, f.user.ID, f.params("two"))
	require.NoError(t, err)

	mine, err := f.svc.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "two.example.com", mine[0].FullName)
	assert.Equal(t, "example.com", mine[0].RootDomain)
	assert.Equal(t, "cloudflare", mine[0].ProviderType)

	page, err := f.svc.AdminList(ctx, ListDomainsParams{Page: 1, PageSize: 10, Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "one", page.Items[0].Subdomain)
	assert.Equal(t, "alice@example.com", page.Items[0].UserEmail)

	page, err = f.svc.AdminList(ctx, ListDomainsParams{Keyword: "two"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.PageSize)

	_, err = f.svc.AdminList(ctx, ListDomainsParams{Status: "bogus"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
