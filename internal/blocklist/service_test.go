package blocklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_subdns/internal/apperr"
	"go_subdns/internal/logger"
	"go_subdns/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutil.NewTestDB(t), logger.Discard())
}

func TestCheck_CaseInsensitive(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "Admin", "系统管理保留域名")
	require.NoError(t, err)

	err = s.Check(ctx, "ADMIN")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, `子域名 "ADMIN" 已被管理员禁用: 系统管理保留域名`, err.Error())

	assert.NoError(t, s.Check(ctx, "alice"))
}

func TestCheck_EmptyReasonHasNoSuffix(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "shop", "")
	require.NoError(t, err)
	assert.Equal(t, `子域名 "shop" 已被管理员禁用`, s.Check(ctx, "shop").Error())
}

func TestCheck_InactiveEntryAllows(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entry, err := s.Create(ctx, "blog", "博客保留域名")
	require.NoError(t, err)

	off := false
	updated, err := s.Update(ctx, entry.ID, UpdateParams{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.NoError(t, s.Check(ctx, "blog"))
}

func TestCreate_Duplicate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entry, err := s.Create(ctx, " API ", "")
	require.NoError(t, err)
	assert.Equal(t, "api", entry.Subdomain)

	_, err = s.Create(ctx, "api", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.Create(ctx, "  ", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDelete(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entry, err := s.Create(ctx, "ftp", "")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, entry.ID))
	assert.True(t, apperr.Is(s.Delete(ctx, entry.ID), apperr.KindNotFound))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()
	assert.Len(t, defaults, 10)
	for _, d := range defaults {
		assert.True(t, d.IsActive)
		assert.NotEmpty(t, d.Reason)
	}
}
