package appointment

import "context"

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	Count(ctx context.Context) (int64, error)

	// ListAll returns every appointment, latest date first.
	ListAll(ctx context.Context) ([]AdminView, error)
	ListForPatient(ctx context.Context, patientID uint) ([]PatientView, error)

	// ListForDoctorFrom returns the doctor's appointments dated on or after
	// fromDate, earliest first.
	ListForDoctorFrom(ctx context.Context, doctorID uint, fromDate string) ([]DoctorView, error)

	// GetForDoctor returns ErrAppointmentNotFound unless the appointment
	// belongs to doctorID.
	GetForDoctor(ctx context.Context, id, doctorID uint) (*DoctorView, error)

	// RecordNotes and Complete are scoped by (id, doctorID) and report the
	// number of rows changed; zero is not an error.
	RecordNotes(ctx context.Context, id, doctorID uint, cmd *ClinicalNotesCommand) (int64, error)
	Complete(ctx context.Context, id, doctorID uint, cmd *ClinicalNotesCommand) (int64, error)

	// UpdateStatus returns ErrAppointmentNotFound when no row has the id.
	UpdateStatus(ctx context.Context, id uint, status Status) error
	Delete(ctx context.Context, id uint) error
	DeleteByDoctor(ctx context.Context, doctorID uint) (int64, error)
}
