package doctor

type Availability string

const (
	Available   Availability = "Available"
	Unavailable Availability = "Unavailable"
)

func (a Availability) IsValid() bool {
	switch a {
	case Available, Unavailable:
		return true
	}
	return false
}

// Doctor is a bookable professional profile. Self-registered doctors share
// their id with the owning user row; admin-created doctors do not.
type Doctor struct {
	ID             uint         `gorm:"primaryKey"`
	Name           string       `gorm:"column:name;type:varchar(150);not null"`
	Specialization string       `gorm:"column:specialization;type:varchar(150);not null"`
	Availability   Availability `gorm:"column:availability;type:varchar(20);not null;default:'Available'"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) Bookable() bool {
	return d.Availability == Available
}

// Credential binds a login created by an administrator to a doctor profile.
type Credential struct {
	ID           uint   `gorm:"primaryKey"`
	DoctorID     uint   `gorm:"column:doctor_id;not null;index"`
	Username     string `gorm:"column:username;type:varchar(150);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password;type:varchar(255);not null"`
}

func (Credential) TableName() string {
	return "doctor_credentials"
}

// CredentialView is a credential joined with its doctor's name.
type CredentialView struct {
	ID           uint
	DoctorName   string
	Username     string
	PasswordHash string
}

type AddDoctorCommand struct {
	Name           string
	Specialization string
}

type UpdateDoctorCommand struct {
	Name           string
	Specialization string
	Availability   Availability
}

type RegisterDoctorCommand struct {
	Username       string
	Password       string
	Name           string
	Specialization string
}

type ProvisionDoctorCommand struct {
	Name           string
	Specialization string
	Username       string
	Password       string
}
