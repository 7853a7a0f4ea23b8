package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"go.uber.org/zap"
)

// DoctorService serves the acting doctor's own schedule. Every write is
// scoped by (appointment id, doctor id); a pair that matches nothing is a
// silent no-op.
type DoctorService struct {
	appts    appointment.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

func NewDoctorService(appts appointment.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *DoctorService {
	return &DoctorService{
		appts:    appts,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the clock that decides which day is today.
func (s *DoctorService) WithClock(now func() time.Time) *DoctorService {
	s.now = now
	return s
}

// Upcoming lists appointments dated today or later, earliest first.
func (s *DoctorService) Upcoming(ctx context.Context, who *domain.Identity) ([]appointment.DoctorView, error) {
	if err := requireDoctorProfile(who); err != nil {
		return nil, err
	}
	return s.appts.ListForDoctorFrom(ctx, who.DoctorID, appointment.Today(s.now()))
}

func (s *DoctorService) RecordNotes(ctx context.Context, who *domain.Identity, id uint, cmd *appointment.ClinicalNotesCommand) error {
	if err := requireDoctorProfile(who); err != nil {
		return err
	}

	n, err := s.appts.RecordNotes(ctx, id, who.DoctorID, cmd)
	if err != nil {
		return err
	}
	if n == 0 {
		s.log.Debug("notes matched no appointment", zap.Uint("appointment_id", id), zap.Uint("doctor_id", who.DoctorID))
		return nil
	}

	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionUpdate, "appointment", id))
	return nil
}

// AppointmentForCompletion returns appointment.ErrAppointmentNotFound for
// ids owned by other doctors.
func (s *DoctorService) AppointmentForCompletion(ctx context.Context, who *domain.Identity, id uint) (*appointment.DoctorView, error) {
	if err := requireDoctorProfile(who); err != nil {
		return nil, err
	}
	return s.appts.GetForDoctor(ctx, id, who.DoctorID)
}

// Complete sets status Completed and stores diagnosis and notes verbatim.
func (s *DoctorService) Complete(ctx context.Context, who *domain.Identity, id uint, cmd *appointment.ClinicalNotesCommand) error {
	if err := requireDoctorProfile(who); err != nil {
		return err
	}

	ctx, span := tr.Start(ctx, "DoctorService.Complete")
	defer span.End()

	n, err := s.appts.Complete(ctx, id, who.DoctorID, cmd)
	if err != nil {
		return err
	}
	if n == 0 {
		s.log.Debug("completion matched no appointment", zap.Uint("appointment_id", id), zap.Uint("doctor_id", who.DoctorID))
		return nil
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusCompleted)).Inc()
	entry := auditedBy(who, domain.ActionUpdate, "appointment", id)
	entry.Changes = `{"status":"Completed"}`
	s.auditSvc.LogAsync(ctx, entry)
	return nil
}

// requireDoctorProfile admits doctors bound to a profile. Accounts whose
// profile was deleted keep the role but have DoctorID 0.
func requireDoctorProfile(who *domain.Identity) error {
	if err := requireRole(who, domain.RoleDoctor); err != nil {
		return err
	}
	if who.DoctorID == 0 {
		return ErrForbidden
	}
	return nil
}
