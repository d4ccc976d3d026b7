// Package calendar maps appointments onto a day grid: vertical offsets from the
// working-hours start, slot-floored heights, and side-by-side columns for
// appointments whose boxes overlap.
package calendar

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

var (
	ErrOutsideWindow = errors.New("time falls outside the working-hours window")
	ErrInvalidConfig = errors.New("invalid calendar grid configuration")
)

// Config describes the working-hours window and its rendering geometry.
// Margins and gap are percentages of the column area's width.
type Config struct {
	WorkStart   clock.TimeOfDay
	WorkEnd     clock.TimeOfDay
	SlotMinutes int
	SlotHeight  float64
	MarginLeft  float64
	MarginRight float64
	ColumnGap   float64
}

func DefaultConfig() Config {
	return Config{
		WorkStart:   clock.MustParse("08:00"),
		WorkEnd:     clock.MustParse("18:00"),
		SlotMinutes: 30,
		SlotHeight:  60,
		MarginLeft:  2,
		MarginRight: 2,
		ColumnGap:   1,
	}
}

func (c Config) validate() error {
	var errs []error
	if c.SlotMinutes <= 0 {
		errs = append(errs, errors.New("slot minutes must be positive"))
	}
	if c.SlotHeight <= 0 {
		errs = append(errs, errors.New("slot height must be positive"))
	}
	if !c.WorkStart.Valid() || !c.WorkEnd.Valid() || c.WorkStart >= c.WorkEnd {
		errs = append(errs, fmt.Errorf("working hours %s-%s are not a valid window", c.WorkStart, c.WorkEnd))
	} else if c.SlotMinutes > 0 && (c.WorkEnd-c.WorkStart).Minutes()%c.SlotMinutes != 0 {
		errs = append(errs, errors.New("working hours must be a whole number of slots"))
	}
	if c.MarginLeft < 0 || c.MarginRight < 0 || c.ColumnGap < 0 || c.MarginLeft+c.MarginRight >= 100 {
		errs = append(errs, errors.New("margins and gap must be non-negative and leave room for columns"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Grid is immutable and safe for concurrent use.
type Grid struct {
	cfg Config
}

func New(cfg Config) (*Grid, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Grid{cfg: cfg}, nil
}

func (g *Grid) Config() Config {
	return g.cfg
}

// Slots returns the number of slots in the working-hours window.
func (g *Grid) Slots() int {
	return (g.cfg.WorkEnd - g.cfg.WorkStart).Minutes() / g.cfg.SlotMinutes
}

// TotalHeight is the pixel height of the whole window.
func (g *Grid) TotalHeight() float64 {
	return float64(g.Slots()) * g.cfg.SlotHeight
}

// Offset is Position without the window check; times before WorkStart are negative.
func (g *Grid) Offset(t clock.TimeOfDay) float64 {
	return float64((t - g.cfg.WorkStart).Minutes()) / float64(g.cfg.SlotMinutes) * g.cfg.SlotHeight
}

// Position returns the vertical offset of t from the top of the window.
func (g *Grid) Position(t clock.TimeOfDay) (float64, error) {
	if t < g.cfg.WorkStart || t > g.cfg.WorkEnd {
		return 0, fmt.Errorf("%w: %s not in %s-%s", ErrOutsideWindow, t, g.cfg.WorkStart, g.cfg.WorkEnd)
	}
	return g.Offset(t), nil
}

// Height is never less than one slot so short appointments stay clickable.
func (g *Grid) Height(durationMins int) float64 {
	h := float64(durationMins) / float64(g.cfg.SlotMinutes) * g.cfg.SlotHeight
	return math.Max(g.cfg.SlotHeight, h)
}

// Contains reports whether [start, start+durationMins) lies inside working hours.
func (g *Grid) Contains(start clock.TimeOfDay, durationMins int) bool {
	return start >= g.cfg.WorkStart && start.Add(durationMins) <= g.cfg.WorkEnd
}

// SnapOffset converts a vertical offset to the nearest slot boundary. The result
// may lie outside working hours; callers check with Contains.
func (g *Grid) SnapOffset(px float64) clock.TimeOfDay {
	slot := int(math.Round(px / g.cfg.SlotHeight))
	return g.cfg.WorkStart.Add(slot * g.cfg.SlotMinutes)
}

// Span is the rendered vertical extent [top, bottom) of an appointment. It
// matches the time interval except where Height floors a short appointment to
// one slot.
func (g *Grid) Span(a *appointment.Appointment) (top, bottom float64) {
	top = g.Offset(a.StartTime)
	return top, top + g.Height(a.DurationMins)
}

// Overlaps tests the half-open rendered spans, so back-to-back appointments of
// at least one slot do not overlap.
func (g *Grid) Overlaps(a, b *appointment.Appointment) bool {
	aTop, aBottom := g.Span(a)
	bTop, bBottom := g.Span(b)
	return aTop < bBottom && bTop < aBottom
}

// OverlapSet returns the members of all that overlap a, a itself included, in input order.
func (g *Grid) OverlapSet(a *appointment.Appointment, all []*appointment.Appointment) []*appointment.Appointment {
	set := make([]*appointment.Appointment, 0, 4)
	seenSelf := false
	for _, b := range all {
		if b.ID == a.ID {
			seenSelf = true
			set = append(set, b)
			continue
		}
		if g.Overlaps(a, b) {
			set = append(set, b)
		}
	}
	if !seenSelf {
		set = append(set, a)
	}
	return set
}

// Column is the horizontal placement of one overlap-group member, in percent.
type Column struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Index         int       `json:"index"`
	Count         int       `json:"count"`
	Left          float64   `json:"left"`
	Width         float64   `json:"width"`
	ZIndex        int       `json:"z_index"`
}

// LayoutColumns tiles an overlap group across the available width. Members are
// ordered by start time, ties kept in input order; earlier members draw on top.
func (g *Grid) LayoutColumns(group []*appointment.Appointment) []Column {
	n := len(group)
	if n == 0 {
		return nil
	}
	ordered := append([]*appointment.Appointment(nil), group...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime < ordered[j].StartTime
	})

	width := g.ColumnWidth(n)
	cols := make([]Column, n)
	for i, a := range ordered {
		cols[i] = Column{
			AppointmentID: a.ID,
			Index:         i,
			Count:         n,
			Left:          g.cfg.MarginLeft + float64(i)*(width+g.cfg.ColumnGap),
			Width:         width,
			ZIndex:        n - i,
		}
	}
	return cols
}

// ColumnWidth is the width of each of n columns sharing the row.
func (g *Grid) ColumnWidth(n int) float64 {
	if n <= 0 {
		return 0
	}
	avail := 100 - g.cfg.MarginLeft - g.cfg.MarginRight - float64(n-1)*g.cfg.ColumnGap
	return avail / float64(n)
}

// Box is the full placement of an appointment on the day grid.
type Box struct {
	Column
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Groups partitions a day into maximal overlap groups: appointments connected by a
// chain of pairwise overlapping spans share a group. Groups come out in
// start-time order.
func (g *Grid) Groups(day []*appointment.Appointment) [][]*appointment.Appointment {
	ordered := append([]*appointment.Appointment(nil), day...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime < ordered[j].StartTime
	})

	var (
		groups  [][]*appointment.Appointment
		current []*appointment.Appointment
		reach   float64
	)
	for _, a := range ordered {
		top, bottom := g.Span(a)
		if len(current) > 0 && top >= reach {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, a)
		if len(current) == 1 || bottom > reach {
			reach = bottom
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// Layout places every appointment of a day. Appointments starting outside the
// window keep their column but get an unclamped Top.
func (g *Grid) Layout(day []*appointment.Appointment) []Box {
	byID := make(map[uuid.UUID]*appointment.Appointment, len(day))
	for _, a := range day {
		byID[a.ID] = a
	}

	boxes := make([]Box, 0, len(day))
	for _, group := range g.Groups(day) {
		for _, col := range g.LayoutColumns(group) {
			top, bottom := g.Span(byID[col.AppointmentID])
			boxes = append(boxes, Box{
				Column: col,
				Top:    top,
				Height: bottom - top,
			})
		}
	}
	return boxes
}
