package doctor

import "context"

type Repository interface {
	// Create persists a doctor. A non-zero ID is inserted as given and
	// returns ErrDoctorIDConflict when already used.
	Create(ctx context.Context, d *Doctor) error

	// GetByID returns ErrDoctorNotFound if no doctor has the id.
	GetByID(ctx context.Context, id uint) (*Doctor, error)

	Update(ctx context.Context, id uint, cmd *UpdateDoctorCommand) error

	// Delete removes the doctor row only; callers cascade dependents first.
	Delete(ctx context.Context, id uint) error

	// List matches search case-insensitively against name or specialization.
	// An empty search returns every doctor.
	List(ctx context.Context, search string) ([]Doctor, error)

	ListByAvailability(ctx context.Context, a Availability) ([]Doctor, error)
	Count(ctx context.Context) (int64, error)

	CreateCredential(ctx context.Context, c *Credential) error
	GetCredentialByUsername(ctx context.Context, username string) (*Credential, error)
	ExistsCredentialUsername(ctx context.Context, username string) (bool, error)
	DeleteCredentials(ctx context.Context, doctorID uint) (int64, error)

	// CredentialUsernames lists the logins provisioned for doctorID.
	CredentialUsernames(ctx context.Context, doctorID uint) ([]string, error)
	HasCredentials(ctx context.Context, doctorID uint) (bool, error)
	ListCredentials(ctx context.Context) ([]CredentialView, error)
}
