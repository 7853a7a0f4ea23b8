package repository

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"gorm.io/gorm"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) appointment.Repository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := conn(ctx, r.db).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&appointment.Appointment{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting appointments: %w", err)
	}
	return n, nil
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]appointment.AdminView, error) {
	var views []appointment.AdminView
	err := conn(ctx, r.db).
		Table("appointments AS a").
		Select("a.id, u.username AS patient, d.name AS doctor, a.date, a.status").
		Joins("JOIN users u ON a.patient_id = u.id").
		Joins("JOIN doctors d ON a.doctor_id = d.id").
		Order("a.date DESC").
		Order("a.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return views, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uint) ([]appointment.PatientView, error) {
	var views []appointment.PatientView
	err := conn(ctx, r.db).
		Table("appointments").
		Select("appointments.*, doctors.name AS doctor_name").
		Joins("JOIN doctors ON appointments.doctor_id = doctors.id").
		Where("appointments.patient_id = ?", patientID).
		Order("appointments.id").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments of patient %d: %w", patientID, err)
	}
	return views, nil
}

func (r *appointmentRepository) doctorViews(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).
		Table("appointments").
		Select("appointments.*, users.username AS patient_username").
		Joins("JOIN users ON appointments.patient_id = users.id")
}

func (r *appointmentRepository) ListForDoctorFrom(ctx context.Context, doctorID uint, fromDate string) ([]appointment.DoctorView, error) {
	var views []appointment.DoctorView
	err := r.doctorViews(ctx).
		Where("appointments.doctor_id = ? AND appointments.date >= ?", doctorID, fromDate).
		Order("appointments.date ASC").
		Order("appointments.id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments of doctor %d: %w", doctorID, err)
	}
	return views, nil
}

func (r *appointmentRepository) GetForDoctor(ctx context.Context, id, doctorID uint) (*appointment.DoctorView, error) {
	var views []appointment.DoctorView
	err := r.doctorViews(ctx).
		Where("appointments.id = ? AND appointments.doctor_id = ?", id, doctorID).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("loading appointment %d: %w", id, err)
	}
	if len(views) == 0 {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &views[0], nil
}

func (r *appointmentRepository) scoped(ctx context.Context, id, doctorID uint) *gorm.DB {
	return conn(ctx, r.db).Model(&appointment.Appointment{}).Where("id = ? AND doctor_id = ?", id, doctorID)
}

func (r *appointmentRepository) RecordNotes(ctx context.Context, id, doctorID uint, cmd *appointment.ClinicalNotesCommand) (int64, error) {
	res := r.scoped(ctx, id, doctorID).Updates(map[string]any{
		"diagnosis": cmd.Diagnosis,
		"notes":     cmd.Notes,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("recording notes on appointment %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *appointmentRepository) Complete(ctx context.Context, id, doctorID uint, cmd *appointment.ClinicalNotesCommand) (int64, error) {
	res := r.scoped(ctx, id, doctorID).Updates(map[string]any{
		"status":    appointment.StatusCompleted,
		"diagnosis": cmd.Diagnosis,
		"notes":     cmd.Notes,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("completing appointment %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uint, status appointment.Status) error {
	res := conn(ctx, r.db).Model(&appointment.Appointment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("updating status of appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&appointment.Appointment{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepository) DeleteByDoctor(ctx context.Context, doctorID uint) (int64, error) {
	res := conn(ctx, r.db).Where("doctor_id = ?", doctorID).Delete(&appointment.Appointment{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting appointments of doctor %d: %w", doctorID, res.Error)
	}
	return res.RowsAffected, nil
}
