package portfolio

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := NewDate(2025, 7, 31)
	d2 := NewDate(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	today := Today()
	currentYear := today.Year()
	currentMonth := today.Month()

	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", NewDate(2025, time.January, 15), false},
		{"2025-7-1", NewDate(2025, time.July, 1), false},
		{" 2025-07-01 ", NewDate(2025, time.July, 1), false},
		{"2024-01-02 00:00:00", NewDate(2024, time.January, 2), false},
		{"2024-01-02T13:45:00", NewDate(2024, time.January, 2), false},
		{"2024-01-02T13:45:00Z", NewDate(2024, time.January, 2), false},
		{"invalid-date", Date{}, true},
		{"", Date{}, true},

		{"-1d", today.Add(-1), false},
		{"+1d", today.Add(1), false},
		{"1d", Date{}, true},
		{"-0d", today, false},
		{"-2w", today.Add(-14), false},
		{"+1m", NewDate(currentYear, currentMonth+1, today.Day()), false},
		{"+1y", NewDate(currentYear+1, currentMonth, today.Day()), false},
		{"-1y", NewDate(currentYear-1, currentMonth, today.Day()), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.err {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.err)
				return
			}
			if !tt.err && got != tt.expected {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDataDate(t *testing.T) {
	for _, in := range []string{"2024-01-02", "2024-1-2", "2024-01-02 00:00:00"} {
		if got, err := parseDataDate(in); err != nil || got != NewDate(2024, time.January, 2) {
			t.Errorf("parseDataDate(%q) = %v, %v, want 2024-01-02", in, got, err)
		}
	}
	for _, in := range []string{"-1d", "+2w", "-3m", ""} {
		if got, err := parseDataDate(in); err == nil {
			t.Errorf("parseDataDate(%q) = %v, want an error", in, got)
		}
	}
}

func TestNewDate_Normalizes(t *testing.T) {
	got := NewDate(2025, time.February, 30)
	if want := NewDate(2025, time.March, 2); got != want {
		t.Errorf("NewDate(2025, 2, 30) = %v, want %v", got, want)
	}
}

func TestDate_JSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected Date
		wantErr  bool
	}{
		{"canonical", `"2025-07-31"`, NewDate(2025, 7, 31), false},
		{"lenient", `"2025-7-1"`, NewDate(2025, 7, 1), false},
		{"relative refused", `"-1d"`, Date{}, true},
		{"number", `20250731`, Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.json), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.json, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if d != tt.expected {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.json, d, tt.expected)
			}
			b, err := json.Marshal(d)
			if err != nil {
				t.Fatalf("Marshal(%v) unexpected error: %v", d, err)
			}
			if got, want := string(b), `"`+tt.expected.String()+`"`; got != want {
				t.Errorf("Marshal(%v) = %s, want %s", d, got, want)
			}
		})
	}
}
