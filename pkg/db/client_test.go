package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testSetting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "client.db")), GormConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testSetting{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testSetting{Key: "season.current", Value: "2025-2026"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := conn.Model(&testSetting{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testSetting{Key: "season.next", Value: "2026-2027"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := conn.Model(&testSetting{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&testSetting{Key: "panic", Value: "x"})
			panic("boom")
		})
	}()

	var count int64
	conn.Model(&testSetting{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected panic rollback, got %d rows", count)
	}
}

func TestUniqueViolationDetection(t *testing.T) {
	conn := newTestDB(t)
	if err := conn.Create(&testSetting{Key: "dup", Value: "a"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := conn.Create(&testSetting{Key: "dup", Value: "b"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(nil, "") {
		t.Fatalf("nil is not a violation")
	}

	var missing testSetting
	if !IsNotFound(conn.First(&missing, "key = ?", "nope").Error) {
		t.Fatalf("expected not found")
	}
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}

func TestNewOpensSQLite(t *testing.T) {
	cfg := config.DBConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "new.db"), MaxOpenConns: 2}
	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestIsUniqueViolationReadsSQLState(t *testing.T) {
	err := fmt.Errorf("create club: %w", &pgconn.PgError{Code: "23505", ConstraintName: "clubs_affiliation_number_key"})
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation from sqlstate")
	}
	if !IsUniqueViolation(err, "clubs_affiliation_number_key") {
		t.Fatalf("expected constraint match")
	}
	if IsUniqueViolation(err, "licences_email_key") {
		t.Fatalf("did not expect other constraint to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatalf("foreign key violation is not unique")
	}
}
