package database

import (
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type schemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:varchar(100);not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	version int
	name    string
	up      func(tx *gorm.DB) error
}

// Versions are append-only. Each step must also be safe on a database
// created by earlier releases that had no schema_migrations table.
var migrations = []migration{
	{version: 1, name: "core_tables", up: createCoreTables},
	{version: 2, name: "appointment_clinical_columns", up: ensureClinicalColumns},
	{version: 3, name: "audit_logs", up: createAuditTable},
	{version: 4, name: "appointment_indexes", up: createAppointmentIndexes},
}

// Migrate applies every pending migration, each in its own transaction.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := db.Model(&schemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&current).Error; err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{Version: m.version, Name: m.name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		log.Info("migration applied", zap.Int("version", m.version), zap.String("name", m.name))
		applied++
	}

	log.Info("migrations completed",
		zap.Int("applied", applied),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func createCoreTables(tx *gorm.DB) error {
	models := []any{
		&domain.User{},
		&doctor.Doctor{},
		&doctor.Credential{},
		&appointment.Appointment{},
	}
	m := tx.Migrator()
	for _, model := range models {
		if m.HasTable(model) {
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}
	return nil
}

// ensureClinicalColumns adds diagnosis and notes to appointment tables that
// predate them and is a no-op otherwise.
func ensureClinicalColumns(tx *gorm.DB) error {
	m := tx.Migrator()
	for _, field := range []string{"Diagnosis", "Notes"} {
		if m.HasColumn(&appointment.Appointment{}, field) {
			continue
		}
		if err := m.AddColumn(&appointment.Appointment{}, field); err != nil {
			return fmt.Errorf("adding appointments.%s: %w", field, err)
		}
	}
	return nil
}

func createAuditTable(tx *gorm.DB) error {
	if tx.Migrator().HasTable(&domain.AuditLog{}) {
		return nil
	}
	return tx.Migrator().CreateTable(&domain.AuditLog{})
}

func createAppointmentIndexes(tx *gorm.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date ON appointments (doctor_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments (patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_doctor_credentials_doctor ON doctor_credentials (doctor_id)`,
	}
	for _, q := range indexes {
		if err := tx.Exec(q).Error; err != nil {
			return err
		}
	}
	return nil
}
