package service_test

import (
	"context"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doctorNames(ds []doctor.Doctor) []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.Name)
	}
	return names
}

func TestListDoctorsSearch(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))

	f.addDoctor(t, "Meredith Grey", "General Surgery", doctor.Available)
	f.addDoctor(t, "Derek Shepherd", "Neurosurgery", doctor.Unavailable)
	f.addDoctor(t, "Miranda Bailey", "Pediatrics", doctor.Available)
	f.addDoctor(t, "Cent_Percent", "100% Oncology", doctor.Available)

	tests := []struct {
		search string
		want   []string
	}{
		{"", []string{"Meredith Grey", "Derek Shepherd", "Miranda Bailey", "Cent_Percent"}},
		{"   ", []string{"Meredith Grey", "Derek Shepherd", "Miranda Bailey", "Cent_Percent"}},
		{"SURGERY", []string{"Meredith Grey", "Derek Shepherd"}},
		{"bai", []string{"Miranda Bailey"}},
		{"grey", []string{"Meredith Grey"}},
		{"%", []string{"Cent_Percent"}},
		{"_", []string{"Cent_Percent"}},
		{"cardio", []string{}},
	}
	for _, tc := range tests {
		t.Run("search "+tc.search, func(t *testing.T) {
			got, err := f.admin.ListDoctors(ctx, admin, tc.search)
			require.NoError(t, err)
			assert.Equal(t, tc.want, doctorNames(got))
		})
	}
}

func TestAdminRequiresAdminRole(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	patient := patientIdentity(f.addUser(t, "pat", "pw", domain.RolePatient))
	d := f.addDoctor(t, "Doc", "GP", doctor.Available)

	_, err := f.admin.Dashboard(ctx, patient, service.DashboardQuery{})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.admin.DeleteDoctor(ctx, patient, d.ID)
	require.ErrorIs(t, err, service.ErrForbidden)
	assert.EqualValues(t, 1, f.count(t, &doctor.Doctor{}))

	_, err = f.admin.ListDoctors(ctx, nil, "")
	require.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.admin.ListPatients(ctx, patient, "")
	require.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.admin.Stats(ctx, patient)
	require.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.admin.ListAppointments(ctx, patient)
	require.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.admin.ListCredentials(ctx, patient)
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))
	p1 := f.addUser(t, "zoe", "pw", domain.RolePatient)
	p2 := f.addUser(t, "yuri", "pw", domain.RolePatient)
	d := f.addDoctor(t, "Doc", "GP", doctor.Available)

	f.addAppointment(t, p1.ID, d.ID, "2024-01-15")
	f.addAppointment(t, p2.ID, d.ID, "2024-03-01")
	f.addAppointment(t, p1.ID, d.ID, "2024-03-01")

	dash, err := f.admin.Dashboard(ctx, admin, service.DashboardQuery{PatientSearch: "ZO"})
	require.NoError(t, err)

	assert.Equal(t, service.Stats{Doctors: 1, Patients: 2, Appointments: 3}, dash.Stats)
	require.Len(t, dash.Patients, 1)
	assert.Equal(t, "zoe", dash.Patients[0].Username)

	require.Len(t, dash.Appointments, 3)
	assert.Equal(t, []string{"2024-03-01", "2024-03-01", "2024-01-15"},
		[]string{dash.Appointments[0].Date, dash.Appointments[1].Date, dash.Appointments[2].Date})
	assert.Equal(t, "zoe", dash.Appointments[0].Patient)
	assert.Equal(t, "Doc", dash.Appointments[0].Doctor)
}

func TestDeleteDoctorCascades(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))
	p := f.addUser(t, "pat", "pw", domain.RolePatient)

	target := f.addDoctor(t, "Target", "GP", doctor.Available)
	other := f.addDoctor(t, "Other", "GP", doctor.Available)
	for _, date := range []string{"2024-01-01", "2024-02-01", "2024-03-01"} {
		f.addAppointment(t, p.ID, target.ID, date)
	}
	kept := f.addAppointment(t, p.ID, other.ID, "2024-01-01")
	require.NoError(t, f.doctors.CreateCredential(ctx, &doctor.Credential{DoctorID: target.ID, Username: "target", PasswordHash: "x"}))

	before := f.count(t, &appointment.Appointment{})
	removed, err := f.admin.DeleteDoctor(ctx, admin, target.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 3, removed)
	assert.Equal(t, before-3, f.count(t, &appointment.Appointment{}))
	_, err = f.doctors.GetByID(ctx, target.ID)
	require.ErrorIs(t, err, doctor.ErrDoctorNotFound)
	assert.EqualValues(t, 0, f.count(t, &doctor.Credential{}))
	assert.Equal(t, kept.ID, f.reload(t, kept.ID).ID)

	_, err = f.admin.DeleteDoctor(ctx, admin, target.ID)
	require.ErrorIs(t, err, doctor.ErrDoctorNotFound)
}

func TestUpdateDoctor(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))
	d := f.addDoctor(t, "Doc", "GP", doctor.Available)

	require.NoError(t, f.admin.UpdateDoctor(ctx, admin, d.ID, &doctor.UpdateDoctorCommand{
		Name: "Doc Brown", Specialization: "Time Travel", Availability: doctor.Unavailable,
	}))
	got, err := f.admin.GetDoctor(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, doctor.Doctor{ID: d.ID, Name: "Doc Brown", Specialization: "Time Travel", Availability: doctor.Unavailable}, *got)

	require.NoError(t, f.admin.UpdateDoctor(ctx, admin, d.ID, &doctor.UpdateDoctorCommand{Name: "Doc", Specialization: "GP"}))
	got, err = f.admin.GetDoctor(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, doctor.Available, got.Availability)

	err = f.admin.UpdateDoctor(ctx, admin, d.ID, &doctor.UpdateDoctorCommand{Name: "Doc", Specialization: "GP", Availability: "On holiday"})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)

	err = f.admin.UpdateDoctor(ctx, admin, 999, &doctor.UpdateDoctorCommand{Name: "x", Specialization: "y"})
	require.ErrorIs(t, err, doctor.ErrDoctorNotFound)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("free text by default", func(t *testing.T) {
		f := newFixture(t, config.AppointmentConfig{})
		admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))
		p := f.addUser(t, "pat", "pw", domain.RolePatient)
		a := f.addAppointment(t, p.ID, f.addDoctor(t, "Doc", "GP", doctor.Available).ID, "2024-01-01")

		require.NoError(t, f.admin.UpdateAppointmentStatus(ctx, admin, a.ID, "Rescheduled"))
		assert.Equal(t, appointment.Status("Rescheduled"), f.reload(t, a.ID).Status)

		var verr *service.ValidationError
		require.ErrorAs(t, f.admin.UpdateAppointmentStatus(ctx, admin, a.ID, " "), &verr)
		require.ErrorIs(t, f.admin.UpdateAppointmentStatus(ctx, admin, 999, "Cancelled"), appointment.ErrAppointmentNotFound)
	})

	t.Run("strict", func(t *testing.T) {
		f := newFixture(t, config.AppointmentConfig{StrictStatus: true})
		admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))
		p := f.addUser(t, "pat", "pw", domain.RolePatient)
		a := f.addAppointment(t, p.ID, f.addDoctor(t, "Doc", "GP", doctor.Available).ID, "2024-01-01")

		require.ErrorIs(t, f.admin.UpdateAppointmentStatus(ctx, admin, a.ID, "Rescheduled"), appointment.ErrInvalidStatus)
		assert.Equal(t, appointment.StatusBooked, f.reload(t, a.ID).Status)

		require.NoError(t, f.admin.UpdateAppointmentStatus(ctx, admin, a.ID, "Cancelled"))
		assert.Equal(t, appointment.StatusCancelled, f.reload(t, a.ID).Status)
	})
}

func TestDeleteAppointment(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))
	p := f.addUser(t, "pat", "pw", domain.RolePatient)
	a := f.addAppointment(t, p.ID, f.addDoctor(t, "Doc", "GP", doctor.Available).ID, "2024-01-01")

	require.NoError(t, f.admin.DeleteAppointment(ctx, admin, a.ID))
	assert.EqualValues(t, 0, f.count(t, &appointment.Appointment{}))
	require.ErrorIs(t, f.admin.DeleteAppointment(ctx, admin, a.ID), appointment.ErrAppointmentNotFound)
}

func TestProvisionDoctor(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))

	d, err := f.admin.ProvisionDoctor(ctx, admin, &doctor.ProvisionDoctorCommand{
		Name: "Chris Turk", Specialization: "Surgery", Username: "turk", Password: "pw",
	})
	require.NoError(t, err)

	creds, err := f.admin.ListCredentials(ctx, admin)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "Chris Turk", creds[0].DoctorName)
	assert.Equal(t, "turk", creds[0].Username)
	assert.True(t, f.hasher.Check("pw", creds[0].PasswordHash))

	u, err := f.users.GetByUsername(ctx, "turk")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, u.Role)
	assert.Equal(t, doctor.Available, d.Availability)

	t.Run("duplicate username persists nothing", func(t *testing.T) {
		f.addUser(t, "elliot", "pw", domain.RolePatient)
		users, doctors, credentials := f.count(t, &domain.User{}), f.count(t, &doctor.Doctor{}), f.count(t, &doctor.Credential{})

		for _, username := range []string{"turk", "elliot"} {
			_, err := f.admin.ProvisionDoctor(ctx, admin, &doctor.ProvisionDoctorCommand{
				Name: "Dup", Specialization: "Dup", Username: username, Password: "pw",
			})
			require.ErrorIs(t, err, domain.ErrUsernameTaken)
		}
		assert.Equal(t, users, f.count(t, &domain.User{}))
		assert.Equal(t, doctors, f.count(t, &doctor.Doctor{}))
		assert.Equal(t, credentials, f.count(t, &doctor.Credential{}))
	})

	t.Run("credential-only username is taken too", func(t *testing.T) {
		require.NoError(t, f.doctors.CreateCredential(ctx, &doctor.Credential{DoctorID: d.ID, Username: "orphan", PasswordHash: "x"}))
		doctors := f.count(t, &doctor.Doctor{})

		_, err := f.admin.ProvisionDoctor(ctx, admin, &doctor.ProvisionDoctorCommand{
			Name: "Dup", Specialization: "Dup", Username: "orphan", Password: "pw",
		})
		require.ErrorIs(t, err, domain.ErrUsernameTaken)
		assert.Equal(t, doctors, f.count(t, &doctor.Doctor{}))
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := f.admin.ProvisionDoctor(ctx, admin, &doctor.ProvisionDoctorCommand{Name: "x", Specialization: "y", Username: "z"})
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "All fields required", verr.Message())
	})
}

func TestAddDoctor(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))

	d, err := f.admin.AddDoctor(ctx, admin, &doctor.AddDoctorCommand{Name: " Perry Cox ", Specialization: "Internal Medicine"})
	require.NoError(t, err)
	assert.Equal(t, "Perry Cox", d.Name)
	assert.Equal(t, doctor.Available, d.Availability)
	assert.EqualValues(t, 0, f.count(t, &doctor.Credential{}))

	_, err = f.admin.AddDoctor(ctx, admin, &doctor.AddDoctorCommand{Name: "Nameless"})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDeleteDoctorRevokesItsLogins(t *testing.T) {
	f := newFixture(t, config.AppointmentConfig{})
	ctx := context.Background()
	admin := adminIdentity(f.addUser(t, "root", "pw", domain.RoleAdmin))

	// the provisioned account's user id equals the next profile's doctor id
	gone, err := f.admin.ProvisionDoctor(ctx, admin, &doctor.ProvisionDoctorCommand{
		Name: "Leaving", Specialization: "GP", Username: "leaving", Password: "pw",
	})
	require.NoError(t, err)
	acct, err := f.users.GetByUsername(ctx, "leaving")
	require.NoError(t, err)
	stays, err := f.admin.AddDoctor(ctx, admin, &doctor.AddDoctorCommand{Name: "Staying", Specialization: "GP"})
	require.NoError(t, err)
	require.Equal(t, acct.ID, stays.ID)

	p := f.addUser(t, "pat", "pw", domain.RolePatient)
	appt := f.addAppointment(t, p.ID, stays.ID, "2024-06-01")

	self, err := f.reg.RegisterDoctor(ctx, &doctor.RegisterDoctorCommand{
		Username: "selfie", Password: "pw", Name: "Self", Specialization: "GP",
	})
	require.NoError(t, err)

	_, err = f.admin.DeleteDoctor(ctx, admin, gone.ID)
	require.NoError(t, err)
	_, err = f.admin.DeleteDoctor(ctx, admin, self.ID)
	require.NoError(t, err)

	for _, username := range []string{"leaving", "selfie"} {
		_, err := f.auth.Login(ctx, username, "pw")
		require.ErrorIs(t, err, service.ErrInvalidCredentials, username)
	}
	_, err = f.auth.Resolve(ctx, acct.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	got := f.reload(t, appt.ID)
	assert.Equal(t, appointment.StatusBooked, got.Status)
	assert.Nil(t, got.Diagnosis)

	_, err = f.auth.Login(ctx, "root", "pw")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.count(t, &domain.User{}))
}
