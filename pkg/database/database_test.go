package database_test

import (
	"context"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/testutil"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	var versions []int
	require.NoError(t, db.Table("schema_migrations").Order("version").Pluck("version", &versions).Error)
	assert.Equal(t, []int{1, 2, 3, 4}, versions)

	for _, table := range []string{"users", "doctors", "doctor_credentials", "appointments", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMigrateAddsClinicalColumnsToLegacyTable(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, db.Exec(`CREATE TABLE appointments(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER,
		doctor_id INTEGER,
		date TEXT,
		status TEXT DEFAULT 'Booked'
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO appointments(patient_id, doctor_id, date) VALUES (1, 1, '2024-01-01')`).Error)

	require.NoError(t, database.Migrate(db, zap.NewNop()))

	assert.True(t, db.Migrator().HasColumn(&appointment.Appointment{}, "diagnosis"))
	assert.True(t, db.Migrator().HasColumn(&appointment.Appointment{}, "notes"))

	var a appointment.Appointment
	require.NoError(t, db.First(&a).Error)
	assert.Equal(t, appointment.StatusBooked, a.Status)
	assert.Nil(t, a.Diagnosis)
}

func TestSeedAdminOnce(t *testing.T) {
	db := testutil.NewMigratedDB(t)
	hasher := testutil.Hasher(t)
	cfg := config.SeedConfig{AdminUsername: "admin", AdminPassword: "admin"}
	ctx := context.Background()

	created, err := database.SeedAdmin(ctx, db, cfg, hasher, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = database.SeedAdmin(ctx, db, cfg, hasher, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, created)

	var admin domain.User
	require.NoError(t, db.Where("role = ?", domain.RoleAdmin).First(&admin).Error)
	assert.Equal(t, "admin", admin.Username)
	assert.True(t, hasher.Check("admin", admin.PasswordHash))
}
