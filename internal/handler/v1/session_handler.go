package v1

import (
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EnsureSessionRequest struct {
	DoctorID  uuid.UUID        `json:"doctor_id"`
	Date      string           `json:"date" binding:"required"`
	StartTime *clock.TimeOfDay `json:"start_time"`
	EndTime   *clock.TimeOfDay `json:"end_time"`
}

func (r *EnsureSessionRequest) validate() error {
	var fields []string
	if r.DoctorID == uuid.Nil {
		fields = append(fields, "doctor_id is required")
	}
	if r.StartTime == nil {
		fields = append(fields, "start_time is required")
	}
	if r.EndTime == nil {
		fields = append(fields, "end_time is required")
	}
	if r.StartTime != nil && r.EndTime != nil && *r.StartTime >= *r.EndTime {
		fields = append(fields, "end_time must be after start_time")
	}
	if len(fields) > 0 {
		return &service.ValidationError{Fields: fields}
	}
	return nil
}

func (h *Handler) EnsureSession(c *gin.Context) {
	var req EnsureSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.validate(); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	s, err := h.sessions.Ensure(requestContext(c), req.DoctorID, req.Date, *req.StartTime, *req.EndTime)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, s)
}

func (h *Handler) GetSession(c *gin.Context) {
	key, ok := parseSessionKey(c)
	if !ok {
		return
	}
	s, err := h.sessions.Get(c.Request.Context(), key)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, s)
}

func (h *Handler) MarkArrival(c *gin.Context) {
	key, ok := parseSessionKey(c)
	if !ok {
		return
	}
	s, err := h.sessions.MarkArrival(requestContext(c), key)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, s)
}

// MarkDeparture refreshes the session's stats from its appointments before
// departing so the settlement bills the current total.
func (h *Handler) MarkDeparture(c *gin.Context) {
	key, ok := parseSessionKey(c)
	if !ok {
		return
	}
	res, err := h.sessions.Depart(requestContext(c), key)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *Handler) RefreshStats(c *gin.Context) {
	key, ok := parseSessionKey(c)
	if !ok {
		return
	}
	s, err := h.sessions.RefreshStats(requestContext(c), key)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, s)
}

func (h *Handler) PostDepartureInfo(c *gin.Context) {
	key, ok := parseSessionKey(c)
	if !ok {
		return
	}
	info, err := h.sessions.PostDepartureInfo(c.Request.Context(), key)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, info)
}

func (h *Handler) TopUp(c *gin.Context) {
	key, ok := parseSessionKey(c)
	if !ok {
		return
	}
	res, err := h.sessions.TopUp(requestContext(c), key)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, res)
}
