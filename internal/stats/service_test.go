package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_subdns/internal/model"
	"go_subdns/internal/testutil"
)

func TestSummary(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	old := time.Now().Add(-30 * 24 * time.Hour)
	users := []model.User{
		{Email: "a@example.com", PasswordHash: "x", Role: model.RoleAdmin, IsActive: true},
		{Email: "b@example.com", PasswordHash: "x", Role: model.RoleUser, IsActive: false},
		{BaseModel: model.BaseModel{CreatedAt: old}, Email: "c@example.com", PasswordHash: "x", Role: model.RoleUser, IsActive: true},
	}
	require.NoError(t, db.Create(&users).Error)

	require.NoError(t, db.Create(&model.DNSAccount{Name: "cf", ProviderType: "cloudflare", EncryptedCredentials: "x", IsActive: true}).Error)
	require.NoError(t, db.Create(&model.DNSAccount{Name: "ali", ProviderType: "aliyun", EncryptedCredentials: "x", IsActive: false}).Error)

	statuses := []model.DomainStatus{model.DomainStatusActive, model.DomainStatusActive, model.DomainStatusPending, model.DomainStatusRejected}
	for i, st := range statuses {
		sub := string(rune('a' + i))
		require.NoError(t, db.Create(&model.Domain{
			UserID: users[0].ID, AvailableDomainID: 1, DNSAccountID: 1,
			Subdomain: sub, FullName: sub + ".example.com", RecordType: "A", Value: "1.1.1.1",
			TTL: 300, Status: st, Version: 1,
		}).Error)
	}

	sum, err := NewService(db).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalUsers)
	assert.Equal(t, int64(2), sum.ActiveUsers)
	assert.Equal(t, int64(2), sum.RecentUsers)
	assert.Equal(t, int64(4), sum.TotalDomains)
	assert.Equal(t, int64(2), sum.ActiveDomains)
	assert.Equal(t, int64(1), sum.PendingDomains)
	assert.Equal(t, int64(1), sum.RejectedDomains)
	assert.Equal(t, int64(4), sum.RecentDomains)
	assert.Equal(t, int64(1), sum.ActiveDNSAccounts)
	assert.Zero(t, sum.AvailableDomains)
}
