// Package dbtest provisions a migrated SQLite database for repository tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/migrate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a client backed by a fresh SQLite file with every migration applied.
func Open(t *testing.T) *db.Client {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "ufsc.db") + "?_foreign_keys=on&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.Wrap(conn)
}
