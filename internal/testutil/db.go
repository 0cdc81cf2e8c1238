package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go_subdns/internal/config"
	"go_subdns/internal/db"
	"go_subdns/internal/logger"
)

// NewTestDB opens a migrated sqlite database in a per-test temp dir
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "subdns.db")
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
