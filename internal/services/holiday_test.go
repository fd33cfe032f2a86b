package services

import (
	"testing"
	"time"
)

func TestIsWorkday_Weekend(t *testing.T) {
	svc := NewHolidayService()

	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	for _, country := range []string{"US", "GB", "NONE", "XX"} {
		if svc.IsWorkday(saturday, country) {
			t.Errorf("Saturday should not be a workday in %s", country)
		}
		if svc.IsWorkday(sunday, country) {
			t.Errorf("Sunday should not be a workday in %s", country)
		}
		if !svc.IsWorkday(monday, country) {
			t.Errorf("a plain Monday should be a workday in %s", country)
		}
	}
}

func TestIsWorkday_PublicHolidays(t *testing.T) {
	svc := NewHolidayService()

	// July 4th 2026 falls on a Saturday; the US observes it on Friday the 3rd.
	observed := time.Date(2026, 7, 3, 12, 0, 0, 0, time.UTC)
	if svc.IsWorkday(observed, "US") {
		t.Error("observed Independence Day should not be a US workday")
	}
	if !svc.IsWorkday(observed, "DE") {
		t.Error("July 3rd 2026 is an ordinary Friday in Germany")
	}

	christmas := time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC)
	for _, country := range []string{"US", "GB", "DE", "FR", "AU", "CA"} {
		if svc.IsWorkday(christmas, country) {
			t.Errorf("Christmas Day should not be a workday in %s", country)
		}
	}
}

func TestIsWorkday_NoneIgnoresHolidays(t *testing.T) {
	svc := NewHolidayService()

	// NONE only skips weekends; Christmas 2026 is a Friday.
	christmas := time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC)
	if !svc.IsWorkday(christmas, "NONE") {
		t.Error("NONE should treat a Friday Christmas as a workday")
	}
}

func TestIsHoliday(t *testing.T) {
	svc := NewHolidayService()

	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	if !svc.IsHoliday(saturday, "US") {
		t.Error("Saturday should be a holiday")
	}

	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	if svc.IsHoliday(monday, "US") {
		t.Error("a plain Monday should not be a holiday")
	}
}
