package service_test

import (
	"context"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPatient(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()

	u, err := f.reg.RegisterPatient(ctx, "  carol ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)
	assert.Equal(t, domain.RolePatient, u.Role)
	assert.NotEqual(t, "pw", u.PasswordHash)

	before := f.count(t, &domain.User{})
	_, err = f.reg.RegisterPatient(ctx, "carol", "other")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.Equal(t, before, f.count(t, &domain.User{}))

	_, err = f.reg.RegisterPatient(ctx, "dave", "   ")
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, before, f.count(t, &domain.User{}))
}

func TestRegisterDoctor(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()

	t.Run("doctor profile shares the user id", func(t *testing.T) {
		d, err := f.reg.RegisterDoctor(ctx, &doctor.RegisterDoctorCommand{
			Username: "wilson", Password: "pw", Name: "James Wilson", Specialization: "Oncology",
		})
		require.NoError(t, err)

		u, err := f.users.GetByUsername(ctx, "wilson")
		require.NoError(t, err)
		assert.Equal(t, u.ID, d.ID)
		assert.Equal(t, domain.RoleDoctor, u.Role)
		assert.Equal(t, doctor.Available, d.Availability)
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := f.reg.RegisterDoctor(ctx, &doctor.RegisterDoctorCommand{Username: "x", Password: "y", Name: "z"})
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "All fields required", verr.Message())
	})

	t.Run("duplicate username leaves no doctor behind", func(t *testing.T) {
		users, doctors := f.count(t, &domain.User{}), f.count(t, &doctor.Doctor{})
		_, err := f.reg.RegisterDoctor(ctx, &doctor.RegisterDoctorCommand{
			Username: "wilson", Password: "pw", Name: "Impostor", Specialization: "None",
		})
		require.ErrorIs(t, err, domain.ErrUsernameTaken)
		assert.Equal(t, users, f.count(t, &domain.User{}))
		assert.Equal(t, doctors, f.count(t, &doctor.Doctor{}))
	})
}

func TestRegisterDoctorIDConflictRollsBack(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()

	f.addUser(t, "first", "pw", domain.RolePatient)
	// occupy the id the next user will receive
	require.NoError(t, f.doctors.Create(ctx, &doctor.Doctor{ID: 2, Name: "Squatter", Specialization: "GP", Availability: doctor.Available}))

	_, err := f.reg.RegisterDoctor(ctx, &doctor.RegisterDoctorCommand{
		Username: "late", Password: "pw", Name: "Late", Specialization: "GP",
	})
	require.ErrorIs(t, err, doctor.ErrDoctorIDConflict)

	assert.EqualValues(t, 1, f.count(t, &domain.User{}))
	_, err = f.users.GetByUsername(ctx, "late")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
