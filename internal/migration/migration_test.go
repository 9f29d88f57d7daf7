package migration

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_SQLiteUsesAutoMigrate(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, Migrate(conn))

	for _, table := range []string{"users", "products", "cart_items", "orders", "sync_logs", "favorites", "comments"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasColumn("sync_logs", "owner_user_id"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
	assert.Contains(t, ups, migrationsDir+"/000002_sync_log_owner.up.sql")
}
