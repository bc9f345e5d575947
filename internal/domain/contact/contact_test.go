package contact_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/geocoder89/contacthub/internal/domain/contact"
)

func TestInBirthdayWindow(t *testing.T) {
	// June 28 starts a window that rolls over into July.
	jun28 := time.Date(2025, time.June, 28, 0, 0, 0, 0, time.UTC)
	// June 10 keeps the whole window inside one month.
	jun10 := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		birthday time.Time
		today    time.Time
		want     bool
	}{
		{"today itself matches", time.Date(1990, time.June, 28, 0, 0, 0, 0, time.UTC), jun28, true},
		{"next day across month boundary", time.Date(1985, time.June, 29, 0, 0, 0, 0, time.UTC), jun28, true},
		{"early next month", time.Date(2000, time.July, 2, 0, 0, 0, 0, time.UTC), jun28, true},
		{"last day of window", time.Date(1970, time.July, 4, 0, 0, 0, 0, time.UTC), jun28, true},
		{"window end is exclusive", time.Date(1970, time.July, 5, 0, 0, 0, 0, time.UTC), jun28, false},
		{"yesterday", time.Date(1992, time.June, 27, 0, 0, 0, 0, time.UTC), jun28, false},
		{"earlier this month", time.Date(1992, time.June, 20, 0, 0, 0, 0, time.UTC), jun28, false},
		{"far future month", time.Date(1992, time.September, 1, 0, 0, 0, 0, time.UTC), jun28, false},

		{"same-month window start", time.Date(1999, time.June, 10, 0, 0, 0, 0, time.UTC), jun10, true},
		{"same-month window middle", time.Date(1999, time.June, 14, 0, 0, 0, 0, time.UTC), jun10, true},
		{"same-month last day of window", time.Date(1999, time.June, 16, 0, 0, 0, 0, time.UTC), jun10, true},
		{"same-month end is exclusive", time.Date(1999, time.June, 17, 0, 0, 0, 0, time.UTC), jun10, false},
		{"same-month before window", time.Date(1999, time.June, 9, 0, 0, 0, 0, time.UTC), jun10, false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got := contact.InBirthdayWindow(tt.birthday, tt.today)

			if got != tt.want {
				t.Fatalf("InBirthdayWindow(%s, %s) = %v, want %v",
					tt.birthday.Format("2006-01-02"), tt.today.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestBirthYearIsIgnored(t *testing.T) {
	today := time.Date(2025, time.June, 28, 0, 0, 0, 0, time.UTC)

	for _, year := range []int{1950, 1999, 2024} {
		birthday := time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)

		if !contact.InBirthdayWindow(birthday, today) {
			t.Fatalf("birthday year %d excluded from the window", year)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := contact.NewDate(1990, time.April, 7)

	raw, err := json.Marshal(d)

	if err != nil {
		t.Fatalf("marshal date: %v", err)
	}

	if string(raw) != `"1990-04-07"` {
		t.Fatalf("got %s, want %q", raw, "1990-04-07")
	}

	var back contact.Date

	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}

	if !back.Equal(d.Time) {
		t.Fatalf("round trip changed the date: got %v, want %v", back.Time, d.Time)
	}
}

func TestDateJSONRejectsBadInput(t *testing.T) {
	for _, raw := range []string{`"07-04-1990"`, `"1990/04/07"`, `123`, `""`} {
		var d contact.Date

		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			t.Fatalf("accepted %s as a date", raw)
		}
	}
}

func TestUpdateRequestEmpty(t *testing.T) {
	var patch contact.UpdateContactRequest

	if !patch.Empty() {
		t.Fatal("zero patch reported as non-empty")
	}

	name := "Ada"
	patch.FirstName = &name

	if patch.Empty() {
		t.Fatal("patch with a field reported as empty")
	}
}
