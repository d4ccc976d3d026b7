package v1

import (
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DayLayoutResponse struct {
	DoctorID     uuid.UUID                  `json:"doctor_id"`
	Date         string                     `json:"date"`
	WorkStart    clock.TimeOfDay            `json:"work_start"`
	WorkEnd      clock.TimeOfDay            `json:"work_end"`
	TotalHeight  float64                    `json:"total_height"`
	Appointments []*appointment.Appointment `json:"appointments"`
	Boxes        []calendar.Box             `json:"boxes"`
}

// DayLayout places a doctor's booked appointments for one day on the grid.
// Cancelled and no-show appointments are left out.
func (h *Handler) DayLayout(c *gin.Context) {
	doctorID, ok := parseUUID(c, "doctorID")
	if !ok {
		return
	}
	date, err := clock.ParseDate(c.Param("date"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	all, err := h.appts.ListByDoctorAndDate(c.Request.Context(), doctorID, date)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	booked := make([]*appointment.Appointment, 0, len(all))
	for _, a := range all {
		if a.Status.OccupiesGrid() {
			booked = append(booked, a)
		}
	}

	cfg := h.grid.Config()
	respondOK(c, DayLayoutResponse{
		DoctorID:     doctorID,
		Date:         date,
		WorkStart:    cfg.WorkStart,
		WorkEnd:      cfg.WorkEnd,
		TotalHeight:  h.grid.TotalHeight(),
		Appointments: booked,
		Boxes:        h.grid.Layout(booked),
	})
}

type RescheduleRequest struct {
	// PointerDelta is the vertical drag distance in grid pixels; positive moves later.
	PointerDelta *float64 `json:"pointer_delta" binding:"required"`
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.reschedule.Reschedule(requestContext(c), id, *req.PointerDelta)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
