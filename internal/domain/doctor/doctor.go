package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDoctorNotFound = errors.New("doctor not found")

type Doctor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Name      string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Specialty string    `gorm:"column:specialty;type:varchar(100)" json:"specialty,omitempty"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

// Registry resolves doctors for display purposes.
type Registry interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
}
