package contact

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("contact not found")

// Date is a calendar date without a time component. It marshals as
// "2006-01-02", matching the wire format for birthdays.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)

	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("birthday must be a quoted YYYY-MM-DD date")
	}

	t, err := time.Parse(dateLayout, s[1:len(s)-1])

	if err != nil {
		return err
	}

	d.Time = t
	return nil
}

type Contact struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"-"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  Date    `json:"birthday"`
	Notes     *string `json:"notes"`
}

type CreateContactRequest struct {
	FirstName string  `json:"first_name" binding:"required,max=20"`
	LastName  string  `json:"last_name" binding:"required,max=20"`
	Email     string  `json:"email" binding:"required,email,max=40"`
	Phone     string  `json:"phone" binding:"required,max=20"`
	Birthday  Date    `json:"birthday" binding:"required"`
	Notes     *string `json:"notes" binding:"omitempty,max=250"`
}

// UpdateContactRequest is a partial update: only fields present in the
// request body are applied, so a nil field never clobbers a stored value.
type UpdateContactRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=20"`
	LastName  *string `json:"last_name" binding:"omitempty,max=20"`
	Email     *string `json:"email" binding:"omitempty,email,max=40"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	Birthday  *Date   `json:"birthday"`
	Notes     *string `json:"notes" binding:"omitempty,max=250"`
}

func (r UpdateContactRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil &&
		r.Phone == nil && r.Birthday == nil && r.Notes == nil
}

// InBirthdayWindow reports whether the birthday's month and day fall inside
// the 7-day window starting at today: inclusive of today, exclusive of
// today+7. Only month and day are compared; the birth year is ignored. The
// window may span a month boundary, in which case a day matches if it is
// either in the current month at or after today, or in the end month before
// the window's end day.
func InBirthdayWindow(birthday, today time.Time) bool {
	end := today.AddDate(0, 0, 7)

	if today.Month() == end.Month() {
		return birthday.Month() == today.Month() &&
			birthday.Day() >= today.Day() &&
			birthday.Day() < end.Day()
	}

	if birthday.Month() == today.Month() && birthday.Day() >= today.Day() {
		return true
	}

	return birthday.Month() == end.Month() && birthday.Day() < end.Day()
}
