package appointment

import "time"

// DateLayout is the calendar form of Appointment.Date. Dates are stored and
// compared as strings, so only this layout sorts chronologically.
const DateLayout = "2006-01-02"

// Status of an appointment. Patients create Booked appointments, doctors
// move them to Completed and administrators may set any value.
type Status string

const (
	StatusBooked    Status = "Booked"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID        uint    `gorm:"primaryKey"`
	PatientID uint    `gorm:"column:patient_id;not null"`
	DoctorID  uint    `gorm:"column:doctor_id;not null"`
	Date      string  `gorm:"column:date;type:varchar(32);not null"`
	Status    Status  `gorm:"column:status;type:varchar(50);not null;default:'Booked'"`
	Diagnosis *string `gorm:"column:diagnosis;type:text"`
	Notes     *string `gorm:"column:notes;type:text"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// AdminView is an appointment row on the administrator dashboard.
type AdminView struct {
	ID      uint
	Patient string
	Doctor  string
	Date    string
	Status  Status
}

// PatientView is an appointment joined with its doctor's name.
type PatientView struct {
	Appointment
	DoctorName string
}

// DoctorView is an appointment joined with its patient's username.
type DoctorView struct {
	Appointment
	PatientUsername string
}

type BookAppointmentCommand struct {
	DoctorID uint
	Date     string
}

// ClinicalNotesCommand carries doctor-authored text. Values are stored as
// submitted, empty strings included.
type ClinicalNotesCommand struct {
	Diagnosis string
	Notes     string
}

// Today renders t in DateLayout.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
