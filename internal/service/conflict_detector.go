package service

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

type ConflictDetector struct {
	repo appointment.Repository
}

func NewConflictDetector(repo appointment.Repository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// FindConflict returns the first appointment, in start order, whose interval
// intersects [start, start+durationMins) for the doctor and date, or nil.
// excludeID is skipped so an appointment never conflicts with itself.
func (d *ConflictDetector) FindConflict(
	ctx context.Context,
	doctorID uuid.UUID,
	date string,
	start clock.TimeOfDay,
	durationMins int,
	excludeID uuid.UUID,
) (*appointment.Appointment, error) {
	day, err := d.repo.ListByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("loading appointments for conflict check: %w", err)
	}

	end := start.Add(durationMins)
	for _, a := range day {
		if a.ID == excludeID || !a.Status.OccupiesGrid() {
			continue
		}
		if a.Overlaps(start, end) {
			return a, nil
		}
	}
	return nil, nil
}
