package service_test

import (
	"context"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/testutil"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	hasher *auth.PasswordHasher

	users   *repository.UserRepository
	doctors doctor.Repository
	appts   appointment.Repository

	audit    *service.AuditService
	auth     *service.AuthService
	reg      *service.RegistrationService
	admin    *service.AdminService
	patients *service.PatientService
	doctor   *service.DoctorService
}

func newFixture(t *testing.T, apptCfg config.AppointmentConfig) *fixture {
	t.Helper()

	db := testutil.NewMigratedDB(t)
	log := zap.NewNop()
	m := testutil.Metrics()
	hasher := testutil.Hasher(t)

	f := &fixture{
		db:      db,
		hasher:  hasher,
		users:   repository.NewUserRepository(db),
		doctors: repository.NewDoctorRepository(db),
		appts:   repository.NewAppointmentRepository(db),
	}
	tx := repository.NewTransactor(db)

	f.audit = service.NewAuditService(repository.NewAuditRepository(db), m, log)
	t.Cleanup(f.audit.Shutdown)

	f.auth = service.NewAuthService(f.users, f.doctors, hasher, auth.NewJWTManager(testutil.JWTConfig()), f.audit, m, log)
	f.reg = service.NewRegistrationService(tx, f.users, f.doctors, hasher, f.audit, m, log)
	f.admin = service.NewAdminService(tx, f.users, f.doctors, f.appts, hasher, apptCfg, f.audit, m, log)
	f.patients = service.NewPatientService(f.doctors, f.appts, f.audit, m, log)
	f.doctor = service.NewDoctorService(f.appts, f.audit, m, log).WithClock(testutil.FixedClock("2024-05-01"))
	return f
}

func (f *fixture) addUser(t *testing.T, username, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	u := &domain.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) addDoctor(t *testing.T, name, spec string, avail doctor.Availability) *doctor.Doctor {
	t.Helper()
	d := &doctor.Doctor{Name: name, Specialization: spec, Availability: avail}
	require.NoError(t, f.doctors.Create(context.Background(), d))
	return d
}

func (f *fixture) addAppointment(t *testing.T, patientID, doctorID uint, date string) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{PatientID: patientID, DoctorID: doctorID, Date: date, Status: appointment.StatusBooked}
	require.NoError(t, f.appts.Create(context.Background(), a))
	return a
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) reload(t *testing.T, id uint) appointment.Appointment {
	t.Helper()
	var a appointment.Appointment
	require.NoError(t, f.db.First(&a, id).Error)
	return a
}

func adminIdentity(u *domain.User) *domain.Identity {
	return &domain.Identity{UserID: u.ID, Username: u.Username, Role: domain.RoleAdmin}
}

func patientIdentity(u *domain.User) *domain.Identity {
	return &domain.Identity{UserID: u.ID, Username: u.Username, Role: domain.RolePatient}
}

func doctorIdentity(userID, doctorID uint) *domain.Identity {
	return &domain.Identity{UserID: userID, Role: domain.RoleDoctor, DoctorID: doctorID}
}
