package clock

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the calendar-day format used for appointment and session dates.
const DateLayout = "2006-01-02"

const (
	minutesPerHour = 60
	MinutesPerDay  = 24 * minutesPerHour
)

var (
	ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM between 00:00 and 24:00")
	ErrInvalidDate      = errors.New("date must be formatted YYYY-MM-DD")
)

// TimeOfDay is a wall-clock time with minute resolution, stored as minutes since midnight.
type TimeOfDay int

// Parse reads "HH:MM". "24:00" is accepted as the end of the day.
func Parse(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' || !digits(s[:2]) || !digits(s[3:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	if m >= minutesPerHour {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	t := TimeOfDay(h*minutesPerHour + m)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MustParse is Parse for constants and tests.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && int(t) <= MinutesPerDay
}

func (t TimeOfDay) Minutes() int {
	return int(t)
}

func (t TimeOfDay) Add(mins int) TimeOfDay {
	return t + TimeOfDay(mins)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/minutesPerHour, int(t)%minutesPerHour)
}

// Compact renders "HHMM", used inside composite keys.
func (t TimeOfDay) Compact() string {
	return fmt.Sprintf("%02d%02d", int(t)/minutesPerHour, int(t)%minutesPerHour)
}

// ParseCompact is the inverse of Compact.
func ParseCompact(s string) (TimeOfDay, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return Parse(s[:2] + ":" + s[2:])
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeOfDay, string(b))
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDate validates a YYYY-MM-DD calendar day and returns it normalized.
func ParseDate(s string) (string, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d.Format(DateLayout), nil
}
