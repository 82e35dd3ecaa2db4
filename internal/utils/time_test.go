package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}

	if ValidateTimezone("Invalid/Timezone") {
		t.Error("ValidateTimezone accepted an invalid zone")
	}
}

func TestStartAndEndOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 3, 4, 18, 45, 12, 99, loc)

	start := StartOfDay(ts)
	if !start.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, loc)) {
		t.Errorf("StartOfDay = %v", start)
	}
	if start.Location() != loc {
		t.Errorf("StartOfDay changed location to %v", start.Location())
	}

	end := EndOfDay(ts)
	if !end.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, loc).Add(-time.Nanosecond)) {
		t.Errorf("EndOfDay = %v", end)
	}
}

func TestSameDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	a := time.Date(2026, 1, 10, 23, 30, 0, 0, loc)

	tests := []struct {
		name string
		b    time.Time
		want bool
	}{
		{"same instant", a, true},
		{"early same day", time.Date(2026, 1, 10, 0, 1, 0, 0, loc), true},
		{"next local day", time.Date(2026, 1, 11, 0, 0, 0, 0, loc), false},
		// 03:00 UTC on the 11th is still the 10th at UTC-5.
		{"other zone same local day", time.Date(2026, 1, 11, 3, 0, 0, 0, time.UTC), true},
		{"less than 24h apart but previous day", time.Date(2026, 1, 9, 23, 59, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(a, tt.b); got != tt.want {
				t.Errorf("SameDay(%v, %v) = %v, want %v", a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLastNDays(t *testing.T) {
	asOf := time.Date(2026, 2, 2, 15, 0, 0, 0, time.UTC)
	days := LastNDays(3, asOf)
	if len(days) != 3 {
		t.Fatalf("len = %d, want 3", len(days))
	}
	want := []time.Time{
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Errorf("days[%d] = %v, want %v", i, days[i], want[i])
		}
	}
	if LastNDays(0, asOf) != nil {
		t.Error("LastNDays(0) should be nil")
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2026, 5, 5, 8, 0, 0, 0, time.UTC)

	got, err := ResolveDate("", now)
	if err != nil || !got.Equal(now) {
		t.Errorf("ResolveDate(\"\") = %v, %v", got, err)
	}

	got, err = ResolveDate("2026-04-30", now)
	if err != nil {
		t.Fatalf("ResolveDate: %v", err)
	}
	if !got.Equal(time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ResolveDate(2026-04-30) = %v", got)
	}

	if _, err := ResolveDate("30/04/2026", now); err == nil {
		t.Error("expected error for invalid date format")
	}
}
