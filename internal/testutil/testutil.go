// Package testutil builds migrated in-memory databases and wired
// dependencies for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// DatabaseConfig returns a sqlite config pointing at a private in-memory
// database that lives as long as its single pooled connection.
func DatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         fmt.Sprintf("file:hms_test_%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1)),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

// NewDB opens an unmigrated in-memory database closed at test cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Connect(DatabaseConfig())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// NewMigratedDB opens an in-memory database with every migration applied.
func NewMigratedDB(t testing.TB) *gorm.DB {
	t.Helper()
	db := NewDB(t)
	if err := database.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Hasher(t testing.TB) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	return h
}

func Metrics() *metrics.Collector {
	return metrics.NewCollector("hms_test", prometheus.NewRegistry())
}

func JWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "test-jwt-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "hms-test",
	}
}

// FixedClock returns a clock stuck at the given YYYY-MM-DD date.
func FixedClock(date string) func() time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(9 * time.Hour) }
}
