package apilog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_subdns/internal/logger"
	"go_subdns/internal/model"
	"go_subdns/internal/testutil"
)

func TestRecordAndList(t *testing.T) {
	s := NewService(testutil.NewTestDB(t), logger.Discard())
	ctx := context.Background()

	uid1, uid2 := 1, 2
	for i := 0; i < 3; i++ {
		s.Record(ctx, &model.APILog{UserID: &uid1, Method: "GET", Path: "/api/v1/domains", Status: 200, RequestID: "r"})
	}
	s.Record(ctx, &model.APILog{UserID: &uid2, Method: "POST", Path: "/" + strings.Repeat("x", 300), Status: 400})

	all, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
	require.Len(t, all.Items, 4)
	assert.Equal(t, "POST", all.Items[0].Method)
	assert.Len(t, all.Items[0].Path, 255)

	filtered, err := s.List(ctx, ListParams{UserID: &uid1, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), filtered.Total)
	assert.Len(t, filtered.Items, 1)
}
