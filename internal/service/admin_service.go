package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Stats struct {
	Doctors      int64
	Patients     int64
	Appointments int64
}

type DashboardQuery struct {
	DoctorSearch  string
	PatientSearch string
}

type Dashboard struct {
	Stats        Stats
	Doctors      []doctor.Doctor
	Patients     []domain.User
	Appointments []appointment.AdminView
	Credentials  []doctor.CredentialView
}

type AdminService struct {
	tx       Transactor
	users    UserRepository
	doctors  doctor.Repository
	appts    appointment.Repository
	hasher   *auth.PasswordHasher
	cfg      config.AppointmentConfig
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewAdminService(
	tx Transactor,
	users UserRepository,
	doctors doctor.Repository,
	appts appointment.Repository,
	hasher *auth.PasswordHasher,
	cfg config.AppointmentConfig,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		tx:       tx,
		users:    users,
		doctors:  doctors,
		appts:    appts,
		hasher:   hasher,
		cfg:      cfg,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

func (s *AdminService) Dashboard(ctx context.Context, who *domain.Identity, q DashboardQuery) (*Dashboard, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		dash Dashboard
		err  error
	)
	if dash.Doctors, err = s.ListDoctors(ctx, who, q.DoctorSearch); err != nil {
		return nil, err
	}
	if dash.Patients, err = s.ListPatients(ctx, who, q.PatientSearch); err != nil {
		return nil, err
	}
	if dash.Stats, err = s.Stats(ctx, who); err != nil {
		return nil, err
	}
	if dash.Appointments, err = s.ListAppointments(ctx, who); err != nil {
		return nil, err
	}
	if dash.Credentials, err = s.ListCredentials(ctx, who); err != nil {
		return nil, err
	}
	return &dash, nil
}

func (s *AdminService) ListDoctors(ctx context.Context, who *domain.Identity, search string) ([]doctor.Doctor, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.doctors.List(ctx, search)
}

func (s *AdminService) ListPatients(ctx context.Context, who *domain.Identity, search string) ([]domain.User, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.ListByRole(ctx, domain.RolePatient, search)
}

func (s *AdminService) Stats(ctx context.Context, who *domain.Identity) (Stats, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return Stats{}, err
	}
	return s.stats(ctx)
}

func (s *AdminService) stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Doctors, err = s.doctors.Count(ctx); err != nil {
		return Stats{}, err
	}
	if st.Patients, err = s.users.CountByRole(ctx, domain.RolePatient); err != nil {
		return Stats{}, err
	}
	if st.Appointments, err = s.appts.Count(ctx); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *AdminService) ListAppointments(ctx context.Context, who *domain.Identity) ([]appointment.AdminView, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.appts.ListAll(ctx)
}

func (s *AdminService) ListCredentials(ctx context.Context, who *domain.Identity) ([]doctor.CredentialView, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.doctors.ListCredentials(ctx)
}

// AddDoctor creates a bookable profile without login credentials.
func (s *AdminService) AddDoctor(ctx context.Context, who *domain.Identity, cmd *doctor.AddDoctorCommand) (*doctor.Doctor, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cmd.Name)
	spec := strings.TrimSpace(cmd.Specialization)
	if name == "" || spec == "" {
		return nil, invalid("Name and specialization required")
	}

	d := &doctor.Doctor{Name: name, Specialization: spec, Availability: doctor.Available}
	if err := s.doctors.Create(ctx, d); err != nil {
		s.log.Error("failed to create doctor", zap.Error(err))
		return nil, fmt.Errorf("creating doctor: %w", err)
	}

	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionCreate, "doctor", d.ID))
	s.log.Info("doctor created", zap.Uint("doctor_id", d.ID), zap.Uint("created_by", who.UserID))
	return d, nil
}

func (s *AdminService) GetDoctor(ctx context.Context, who *domain.Identity, id uint) (*doctor.Doctor, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.doctors.GetByID(ctx, id)
}

// UpdateDoctor overwrites every editable field. An empty availability
// means Available.
func (s *AdminService) UpdateDoctor(ctx context.Context, who *domain.Identity, id uint, cmd *doctor.UpdateDoctorCommand) error {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		return err
	}

	upd := doctor.UpdateDoctorCommand{
		Name:           strings.TrimSpace(cmd.Name),
		Specialization: strings.TrimSpace(cmd.Specialization),
		Availability:   doctor.Availability(strings.TrimSpace(string(cmd.Availability))),
	}
	if upd.Availability == "" {
		upd.Availability = doctor.Available
	}

	var errs []string
	if upd.Name == "" || upd.Specialization == "" {
		errs = append(errs, "Name and specialization required")
	}
	if !upd.Availability.IsValid() {
		errs = append(errs, doctor.ErrInvalidAvailability.Error())
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}

	if err := s.doctors.Update(ctx, id, &upd); err != nil {
		return err
	}

	entry := auditedBy(who, domain.ActionUpdate, "doctor", id)
	entry.Changes = fmt.Sprintf(`{"availability":%q}`, upd.Availability)
	s.auditSvc.LogAsync(ctx, entry)
	return nil
}

// DeleteDoctor removes the doctor's appointments, its credentials, the
// accounts that log in as it and the profile in one transaction and returns
// how many appointments went with it.
func (s *AdminService) DeleteDoctor(ctx context.Context, who *domain.Identity, id uint) (int64, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return 0, err
	}

	ctx, span := tr.Start(ctx, "AdminService.DeleteDoctor")
	defer span.End()

	var removed, accounts int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.doctors.GetByID(ctx, id); err != nil {
			return err
		}
		logins, err := s.boundLogins(ctx, id)
		if err != nil {
			return err
		}
		n, err := s.appts.DeleteByDoctor(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.doctors.DeleteCredentials(ctx, id); err != nil {
			return err
		}
		if err := s.doctors.Delete(ctx, id); err != nil {
			return err
		}
		if accounts, err = s.users.DeleteDoctorAccounts(ctx, logins); err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		if !errors.Is(err, doctor.ErrDoctorNotFound) {
			s.log.Error("failed to delete doctor", zap.Uint("doctor_id", id), zap.Error(err))
		}
		return 0, err
	}

	span.SetAttributes(attribute.Int64("hms.appointments_removed", removed))
	s.metrics.DoctorsDeleted.Inc()

	entry := auditedBy(who, domain.ActionDelete, "doctor", id)
	entry.Changes = fmt.Sprintf(`{"appointments_removed":%d}`, removed)
	s.auditSvc.LogAsync(ctx, entry)
	s.log.Info("doctor deleted",
		zap.Uint("doctor_id", id),
		zap.Int64("appointments_removed", removed),
		zap.Int64("accounts_removed", accounts),
		zap.Uint("deleted_by", who.UserID),
	)
	return removed, nil
}

// boundLogins lists the usernames that act as doctor id: its provisioned
// credentials plus the self-registered account sharing its id.
func (s *AdminService) boundLogins(ctx context.Context, id uint) ([]string, error) {
	logins, err := s.doctors.CredentialUsernames(ctx, id)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return logins, nil
	case err != nil:
		return nil, err
	case u.Role != domain.RoleDoctor:
		return logins, nil
	}

	// an account whose credential points at another profile is not ours
	_, err = s.doctors.GetCredentialByUsername(ctx, u.Username)
	switch {
	case errors.Is(err, doctor.ErrCredentialNotFound):
		return append(logins, u.Username), nil
	case err != nil:
		return nil, err
	}
	return logins, nil
}

// UpdateAppointmentStatus stores status as given unless strict statuses are
// configured, in which case only Booked, Completed and Cancelled pass.
func (s *AdminService) UpdateAppointmentStatus(ctx context.Context, who *domain.Identity, id uint, status string) error {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return err
	}

	st := appointment.Status(strings.TrimSpace(status))
	if st == "" {
		return invalid("Status required")
	}
	if s.cfg.StrictStatus && !st.IsValid() {
		return appointment.ErrInvalidStatus
	}

	if err := s.appts.UpdateStatus(ctx, id, st); err != nil {
		return err
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(st)).Inc()
	entry := auditedBy(who, domain.ActionUpdate, "appointment", id)
	entry.Changes = fmt.Sprintf(`{"status":%q}`, st)
	s.auditSvc.LogAsync(ctx, entry)
	return nil
}

func (s *AdminService) DeleteAppointment(ctx context.Context, who *domain.Identity, id uint) error {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.appts.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionDelete, "appointment", id))
	return nil
}

// ProvisionDoctor creates a doctor profile, its credential and the matching
// doctor account together. A username present in either users or
// doctor_credentials returns domain.ErrUsernameTaken and persists nothing.
func (s *AdminService) ProvisionDoctor(ctx context.Context, who *domain.Identity, cmd *doctor.ProvisionDoctorCommand) (*doctor.Doctor, error) {
	if err := requireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}

	ctx, span := tr.Start(ctx, "AdminService.ProvisionDoctor")
	defer span.End()

	name := strings.TrimSpace(cmd.Name)
	spec := strings.TrimSpace(cmd.Specialization)
	username := strings.TrimSpace(cmd.Username)
	password := strings.TrimSpace(cmd.Password)
	if name == "" || spec == "" || username == "" || password == "" {
		return nil, invalid("All fields required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	d := &doctor.Doctor{Name: name, Specialization: spec, Availability: doctor.Available}
	u := &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleDoctor}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
			return err
		} else if taken {
			return domain.ErrUsernameTaken
		}
		if taken, err := s.doctors.ExistsCredentialUsername(ctx, username); err != nil {
			return err
		} else if taken {
			return domain.ErrUsernameTaken
		}

		if err := s.doctors.Create(ctx, d); err != nil {
			return err
		}
		if err := s.doctors.CreateCredential(ctx, &doctor.Credential{
			DoctorID:     d.ID,
			Username:     username,
			PasswordHash: hash,
		}); err != nil {
			return err
		}
		return s.users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RegistrationsTotal.WithLabelValues(string(domain.RoleDoctor), "admin").Inc()
	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionCreate, "doctor", d.ID))
	s.log.Info("doctor provisioned",
		zap.Uint("doctor_id", d.ID),
		zap.Uint("user_id", u.ID),
		zap.Uint("created_by", who.UserID),
	)
	return d, nil
}
