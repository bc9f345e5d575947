package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/contacthub/internal/domain/contact"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactsRepo persists contacts. Every query is additionally filtered by
// the owning user's id: a contact is never visible outside its owner.
type ContactsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContactsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{pool: pool, prom: prom}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone, birthday, notes`

func scanContact(row pgx.Row) (contact.Contact, error) {
	var c contact.Contact
	var birthday time.Time

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&birthday,
		&c.Notes,
	)

	if err != nil {
		return contact.Contact{}, err
	}

	c.Birthday = contact.Date{Time: birthday}

	return c, nil
}

func (r *ContactsRepo) Create(ctx context.Context, userID int64, req contact.CreateContactRequest) (contact.Contact, error) {
	c := contact.Contact{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  req.Birthday,
		Notes:     req.Notes,
	}

	err := r.prom.ObserveDB("contacts.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO contacts (user_id, first_name, last_name, email, phone, birthday, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			userID, req.FirstName, req.LastName, req.Email, req.Phone, req.Birthday.Time, req.Notes,
		).Scan(&c.ID)
	})

	if err != nil {
		return contact.Contact{}, err
	}

	return c, nil
}

// List returns all contacts owned by userID. A non-empty q narrows the
// result to contacts whose first name, last name or email contains q,
// case-insensitively.
func (r *ContactsRepo) List(ctx context.Context, userID int64, q string) ([]contact.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`
	args := []interface{}{userID}

	if q != "" {
		query += ` AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+q+"%")
	}

	query += ` ORDER BY id ASC`

	return r.queryContacts(ctx, "contacts.list", query, args...)
}

func (r *ContactsRepo) GetByID(ctx context.Context, userID, id int64) (contact.Contact, error) {
	var c contact.Contact

	err := r.prom.ObserveDB("contacts.get", func() error {
		var err error
		c, err = scanContact(r.pool.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 AND id = $2`,
			userID, id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}

		return contact.Contact{}, err
	}

	return c, nil
}

// Update applies the fields present in the patch and returns the stored
// row. An empty patch degenerates to a read.
func (r *ContactsRepo) Update(ctx context.Context, userID, id int64, patch contact.UpdateContactRequest) (contact.Contact, error) {
	if patch.Empty() {
		return r.GetByID(ctx, userID, id)
	}

	var sets []string
	var args []interface{}

	args = append(args, userID, id)
	argsPosition := 3

	set := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argsPosition))
		args = append(args, value)
		argsPosition++
	}

	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Birthday != nil {
		set("birthday", patch.Birthday.Time)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}

	query := `UPDATE contacts SET ` + strings.Join(sets, ", ") +
		` WHERE user_id = $1 AND id = $2 RETURNING ` + contactColumns

	var c contact.Contact

	err := r.prom.ObserveDB("contacts.update", func() error {
		var err error
		c, err = scanContact(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}

		return contact.Contact{}, err
	}

	return c, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, userID, id int64) error {
	return r.prom.ObserveDB("contacts.delete", func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM contacts WHERE user_id = $1 AND id = $2`,
			userID, id,
		)

		if err != nil {
			return err
		}

		// nothing deleted means the contact is absent or owned by someone else
		if tag.RowsAffected() == 0 {
			return contact.ErrNotFound
		}

		return nil
	})
}

// UpcomingBirthdays returns the owner's contacts whose birthday month/day
// falls in the 7-day window starting at today (exclusive of today+7). The
// SQL mirrors contact.InBirthdayWindow, including the month-rollover split.
func (r *ContactsRepo) UpcomingBirthdays(ctx context.Context, userID int64, today time.Time) ([]contact.Contact, error) {
	end := today.AddDate(0, 0, 7)

	if today.Month() == end.Month() {
		query := `SELECT ` + contactColumns + ` FROM contacts
			WHERE user_id = $1
			  AND EXTRACT(MONTH FROM birthday) = $2
			  AND EXTRACT(DAY FROM birthday) >= $3
			  AND EXTRACT(DAY FROM birthday) < $4
			ORDER BY EXTRACT(MONTH FROM birthday), EXTRACT(DAY FROM birthday)`

		return r.queryContacts(ctx, "contacts.birthdays", query,
			userID, int(today.Month()), today.Day(), end.Day())
	}

	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = $1
		  AND ((EXTRACT(MONTH FROM birthday) = $2 AND EXTRACT(DAY FROM birthday) >= $3)
		    OR (EXTRACT(MONTH FROM birthday) = $4 AND EXTRACT(DAY FROM birthday) < $5))
		ORDER BY EXTRACT(MONTH FROM birthday), EXTRACT(DAY FROM birthday)`

	return r.queryContacts(ctx, "contacts.birthdays", query,
		userID, int(today.Month()), today.Day(), int(end.Month()), end.Day())
}

func (r *ContactsRepo) queryContacts(ctx context.Context, op, query string, args ...interface{}) ([]contact.Contact, error) {
	var out []contact.Contact

	err := r.prom.ObserveDB(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]contact.Contact, 0)

		for rows.Next() {
			c, err := scanContact(rows)

			if err != nil {
				return err
			}

			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
