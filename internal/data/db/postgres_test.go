package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"}), true},
		{&pgconn.PgError{Code: "23503"}, false},
		{errors.New("UNIQUE constraint failed: completion.task_id, completion.user_fid"), true},
		{errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("IsUniqueViolation(%v)=%v want %v", tc.err, got, tc.want)
		}
	}
}

func TestSQLiteServiceMigratesAndPings(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	svc, err := NewService(Config{Driver: DriverSQLite, SQLitePath: "file:db_service_test?mode=memory&cache=shared"}, log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	// Idempotent on a migrated schema.
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("second AutoMigrateAll: %v", err)
	}

	task := &types.Task{Title: "t", Network: "polygon"}
	if err := svc.DB().Create(task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	first := &types.Completion{TaskID: task.ID, UserFID: 1, ClusterID: 1, MintStatus: types.MintStatusPending}
	if err := svc.DB().Create(first).Error; err != nil {
		t.Fatalf("create completion: %v", err)
	}
	dup := &types.Completion{TaskID: task.ID, UserFID: 1, ClusterID: 2, MintStatus: types.MintStatusPending}
	if err := svc.DB().Create(dup).Error; !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	cfg := ConfigFromEnv()
	if cfg.Driver != DriverSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := (Config{User: "u", Password: "p", Host: "h", Port: "1", Name: "n", SSLMode: "disable"}).dsn(); got != "postgres://u:p@h:1/n?sslmode=disable" {
		t.Fatalf("unexpected dsn: %s", got)
	}
}
