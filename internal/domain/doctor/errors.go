package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorUnavailable   = errors.New("doctor is not available for booking")
	ErrInvalidAvailability = errors.New("availability must be Available or Unavailable")
	ErrDoctorIDConflict    = errors.New("a doctor profile with this id already exists")
	ErrCredentialNotFound  = errors.New("doctor credential not found")
)
