package memory

import (
	"context"
	"sync"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/google/uuid"
)

type DoctorRegistry struct {
	mu      sync.RWMutex
	doctors map[uuid.UUID]doctor.Doctor
}

func NewDoctorRegistry(doctors ...doctor.Doctor) *DoctorRegistry {
	r := &DoctorRegistry{doctors: make(map[uuid.UUID]doctor.Doctor, len(doctors))}
	for _, d := range doctors {
		r.doctors[d.ID] = d
	}
	return r
}

func (r *DoctorRegistry) Add(d doctor.Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[d.ID] = d
}

func (r *DoctorRegistry) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return &d, nil
}

type AuditRepository struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *AuditRepository) Entries() []domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditLog(nil), r.entries...)
}
