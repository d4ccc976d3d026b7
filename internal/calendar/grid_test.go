package calendar

import (
	"errors"
	"math"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

const eps = 1e-9

func mustGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	return g
}

func appt(start string, dur int) *appointment.Appointment {
	s := clock.MustParse(start)
	return &appointment.Appointment{ID: uuid.New(), StartTime: s, EndTime: s.Add(dur), DurationMins: dur}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero slot", func(c *Config) { c.SlotMinutes = 0 }},
		{"zero height", func(c *Config) { c.SlotHeight = 0 }},
		{"inverted window", func(c *Config) { c.WorkStart, c.WorkEnd = c.WorkEnd, c.WorkStart }},
		{"partial slot", func(c *Config) { c.SlotMinutes = 45 }},
		{"margins fill row", func(c *Config) { c.MarginLeft, c.MarginRight = 60, 40 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected invalid config, got %v", err)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	g := mustGrid(t)

	tests := []struct {
		at   string
		want float64
	}{
		{"08:00", 0},
		{"08:30", 60},
		{"09:15", 150},
		{"18:00", 1200},
	}
	for _, tt := range tests {
		got, err := g.Position(clock.MustParse(tt.at))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.at, err)
		}
		if math.Abs(got-tt.want) > eps {
			t.Errorf("%s: got %v, want %v", tt.at, got, tt.want)
		}
	}

	for _, at := range []string{"07:59", "18:01"} {
		if _, err := g.Position(clock.MustParse(at)); !errors.Is(err, ErrOutsideWindow) {
			t.Errorf("%s: expected outside window, got %v", at, err)
		}
	}
}

func TestHeight_FloorsAtOneSlot(t *testing.T) {
	g := mustGrid(t)

	// A 15-minute appointment still renders one full slot tall.
	if got := g.Height(15); got != 60 {
		t.Errorf("15 minutes: got %v, want 60", got)
	}
	if got := g.Height(90); got != 180 {
		t.Errorf("90 minutes: got %v, want 180", got)
	}

	prev := 0.0
	for d := 1; d <= 600; d++ {
		h := g.Height(d)
		if h < g.Config().SlotHeight {
			t.Fatalf("height(%d) = %v below one slot", d, h)
		}
		if h < prev {
			t.Fatalf("height(%d) = %v decreased from %v", d, h, prev)
		}
		prev = h
	}
}

func TestOverlaps_SymmetricAndHalfOpen(t *testing.T) {
	g := mustGrid(t)
	day := []*appointment.Appointment{
		appt("09:00", 30),
		appt("09:15", 30),
		appt("09:30", 30),
		appt("10:00", 60),
		appt("10:15", 15),
	}
	for _, a := range day {
		for _, b := range day {
			if g.Overlaps(a, b) != g.Overlaps(b, a) {
				t.Errorf("asymmetric overlap for %s and %s", a.StartTime, b.StartTime)
			}
		}
	}
	if g.Overlaps(day[0], day[2]) {
		t.Error("back-to-back appointments must not overlap")
	}
	if !g.Overlaps(day[3], day[4]) {
		t.Error("contained appointment must overlap")
	}
}

func TestOverlapSet(t *testing.T) {
	g := mustGrid(t)
	a := appt("09:00", 30)
	b := appt("09:15", 30)
	c := appt("09:30", 30)
	d := appt("11:00", 30)

	set := g.OverlapSet(b, []*appointment.Appointment{a, b, c, d})
	if len(set) != 3 || set[0] != a || set[1] != b || set[2] != c {
		t.Errorf("unexpected overlap set %v", set)
	}
	if set := g.OverlapSet(d, []*appointment.Appointment{a, b, c}); len(set) != 1 || set[0] != d {
		t.Errorf("isolated appointment should only contain itself, got %v", set)
	}
}

func TestLayoutColumns_TwoOverlapping(t *testing.T) {
	g := mustGrid(t)
	first := appt("09:00", 30)
	second := appt("09:15", 30)

	// Input order reversed to check the start-time sort.
	cols := g.LayoutColumns([]*appointment.Appointment{second, first})
	if len(cols) != 2 {
		t.Fatalf("expected two columns, got %d", len(cols))
	}

	wantWidth := (100 - 2 - 2 - 1) / 2.0
	if cols[0].AppointmentID != first.ID || cols[0].ZIndex != 2 || cols[1].ZIndex != 1 {
		t.Errorf("unexpected ordering %+v", cols)
	}
	for _, c := range cols {
		if math.Abs(c.Width-wantWidth) > eps {
			t.Errorf("width %v, want %v", c.Width, wantWidth)
		}
	}
	if math.Abs(cols[0].Left-2) > eps || math.Abs(cols[1].Left-(2+wantWidth+1)) > eps {
		t.Errorf("unexpected lefts %v, %v", cols[0].Left, cols[1].Left)
	}
}

func TestLayoutColumns_TilesAvailableWidth(t *testing.T) {
	g := mustGrid(t)
	cfg := g.Config()

	for n := 1; n <= 8; n++ {
		group := make([]*appointment.Appointment, n)
		for i := range group {
			group[i] = appt("09:00", 30)
		}
		cols := g.LayoutColumns(group)

		var sum float64
		for i, c := range cols {
			sum += c.Width
			if i > 0 && cols[i-1].Left+cols[i-1].Width > c.Left+eps {
				t.Errorf("n=%d: column %d overlaps its neighbour", n, i)
			}
		}
		want := 100 - cfg.MarginLeft - cfg.MarginRight - float64(n-1)*cfg.ColumnGap
		if math.Abs(sum-want) > 1e-6 {
			t.Errorf("n=%d: widths sum to %v, want %v", n, sum, want)
		}
		last := cols[n-1]
		if math.Abs(last.Left+last.Width-(100-cfg.MarginRight)) > 1e-6 {
			t.Errorf("n=%d: last column ends at %v", n, last.Left+last.Width)
		}
		// Ties keep input order.
		for i, c := range cols {
			if c.AppointmentID != group[i].ID {
				t.Errorf("n=%d: tie order not stable at %d", n, i)
			}
		}
	}
}

func TestGroups_Transitive(t *testing.T) {
	g := mustGrid(t)
	a := appt("09:00", 30)
	b := appt("09:20", 30) // overlaps a and c
	c := appt("09:40", 30) // does not overlap a
	d := appt("10:10", 20) // touches c's end only
	e := appt("12:00", 30)

	groups := g.Groups([]*appointment.Appointment{e, c, a, d, b})
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if len(groups[0]) != 3 || groups[0][0] != a || groups[0][2] != c {
		t.Errorf("unexpected first group %v", groups[0])
	}
	if len(groups[1]) != 1 || groups[1][0] != d {
		t.Errorf("unexpected second group %v", groups[1])
	}
}

func TestLayout_Boxes(t *testing.T) {
	g := mustGrid(t)
	a := appt("09:00", 30)
	b := appt("09:15", 30)
	c := appt("14:00", 15)

	boxes := g.Layout([]*appointment.Appointment{a, b, c})
	if len(boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(boxes))
	}
	byID := make(map[uuid.UUID]Box, len(boxes))
	for _, bx := range boxes {
		byID[bx.AppointmentID] = bx
	}

	if bx := byID[a.ID]; bx.Top != 120 || bx.Height != 60 || bx.Count != 2 || bx.ZIndex != 2 {
		t.Errorf("unexpected box for 09:00: %+v", bx)
	}
	if bx := byID[b.ID]; bx.Top != 150 || bx.Count != 2 || bx.Index != 1 {
		t.Errorf("unexpected box for 09:15: %+v", bx)
	}
	if bx := byID[c.ID]; bx.Count != 1 || bx.Width != 96 || bx.Height != 60 {
		t.Errorf("unexpected box for 14:00: %+v", bx)
	}
}

func TestLayout_SubSlotNeighboursShareColumns(t *testing.T) {
	g := mustGrid(t)
	first := appt("09:00", 15)
	second := appt("09:15", 15)
	later := appt("09:30", 15)

	// The times are back to back, but each box is floored to one slot tall.
	if !g.Overlaps(first, second) {
		t.Fatal("floored boxes of back-to-back short appointments must overlap")
	}
	if g.Overlaps(first, later) {
		t.Error("boxes that only touch must not overlap")
	}

	boxes := g.Layout([]*appointment.Appointment{first, second, later})
	if len(boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(boxes))
	}
	for i, a := range boxes {
		if a.Count != 3 {
			t.Errorf("box %d: expected a group of 3 (chained through 09:15), got %d", i, a.Count)
		}
		for _, b := range boxes[i+1:] {
			vertical := a.Top < b.Top+b.Height && b.Top < a.Top+a.Height
			horizontal := a.Left < b.Left+b.Width && b.Left < a.Left+a.Width
			if vertical && horizontal {
				t.Errorf("boxes %+v and %+v overlap on screen", a, b)
			}
		}
	}
}

func TestSnapOffset(t *testing.T) {
	g := mustGrid(t)

	tests := []struct {
		px   float64
		want string
	}{
		{0, "08:00"},
		{29, "08:00"},
		{31, "08:30"},
		{150, "09:30"},
		{1200, "18:00"},
	}
	for _, tt := range tests {
		if got := g.SnapOffset(tt.px); got != clock.MustParse(tt.want) {
			t.Errorf("SnapOffset(%v) = %s, want %s", tt.px, got, tt.want)
		}
	}
	if g.Contains(clock.MustParse("17:45"), 30) {
		t.Error("window ending after close reported as contained")
	}
	if !g.Contains(clock.MustParse("17:30"), 30) {
		t.Error("window ending at close reported as outside")
	}
}
