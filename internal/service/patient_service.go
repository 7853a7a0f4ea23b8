package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"go.uber.org/zap"
)

type PatientService struct {
	doctors  doctor.Repository
	appts    appointment.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewPatientService(doctors doctor.Repository, appts appointment.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		doctors:  doctors,
		appts:    appts,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

func (s *PatientService) AvailableDoctors(ctx context.Context, who *domain.Identity) ([]doctor.Doctor, error) {
	if err := requireRole(who, domain.RolePatient); err != nil {
		return nil, err
	}
	return s.doctors.ListByAvailability(ctx, doctor.Available)
}

// Book creates a Booked appointment with an Available doctor. The date is
// stored as submitted; no overlap check is made.
func (s *PatientService) Book(ctx context.Context, who *domain.Identity, cmd *appointment.BookAppointmentCommand) (*appointment.Appointment, error) {
	if err := requireRole(who, domain.RolePatient); err != nil {
		return nil, err
	}

	ctx, span := tr.Start(ctx, "PatientService.Book")
	defer span.End()

	date := strings.TrimSpace(cmd.Date)
	if date == "" {
		return nil, invalid("Date required")
	}
	if cmd.DoctorID == 0 {
		return nil, doctor.ErrDoctorNotFound
	}

	d, err := s.doctors.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, err
	}
	if !d.Bookable() {
		return nil, doctor.ErrDoctorUnavailable
	}

	a := &appointment.Appointment{
		PatientID: who.UserID,
		DoctorID:  d.ID,
		Date:      date,
		Status:    appointment.StatusBooked,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusBooked)).Inc()
	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionCreate, "appointment", a.ID))
	return a, nil
}

func (s *PatientService) MyAppointments(ctx context.Context, who *domain.Identity) ([]appointment.PatientView, error) {
	if err := requireRole(who, domain.RolePatient); err != nil {
		return nil, err
	}
	return s.appts.ListForPatient(ctx, who.UserID)
}
