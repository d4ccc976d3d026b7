package clock

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"08:30": 510,
		"23:59": 1439,
		"24:00": 1440,
	}
	for in, want := range valid {
		got, err := Parse(in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", in, err)
			continue
		}
		if got.Minutes() != want {
			t.Errorf("%q: got %d minutes, want %d", in, got.Minutes(), want)
		}
		if got.String() != in {
			t.Errorf("%q: round trip gave %q", in, got.String())
		}
	}

	for _, in := range []string{"", "8:30", "08:60", "24:01", "25:00", "ab:cd", "08-30", "+8:30"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Errorf("%q: expected invalid time of day, got %v", in, err)
		}
	}
}

func TestCompactRoundTrip(t *testing.T) {
	for _, in := range []string{"00:00", "09:05", "17:45", "24:00"} {
		tod := MustParse(in)
		back, err := ParseCompact(tod.Compact())
		if err != nil || back != tod {
			t.Errorf("%s: compact round trip gave %v, %v", in, back, err)
		}
	}
	if _, err := ParseCompact("930"); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Errorf("expected short compact form to fail, got %v", err)
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		At TimeOfDay `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":"13:15"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.At != MustParse("13:15") {
		t.Errorf("got %s", v.At)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"at":"13:15"}` {
		t.Errorf("unexpected encoding %s", out)
	}
	if err := json.Unmarshal([]byte(`{"at":795}`), &v); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Errorf("expected numeric form to be rejected, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	if d, err := ParseDate("2026-03-02"); err != nil || d != "2026-03-02" {
		t.Errorf("got %q, %v", d, err)
	}
	for _, in := range []string{"2026-3-2", "2026-02-30", "02/03/2026", ""} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("%q: expected invalid date, got %v", in, err)
		}
	}
}
