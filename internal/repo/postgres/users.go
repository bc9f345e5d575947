package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string, avatar *string) (user.User, error) {
	u := user.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       avatar,
	}

	err := r.prom.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (username, email, password, avatar)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at, confirmed`,
			username, email, passwordHash, avatar,
		).Scan(&u.ID, &u.CreatedAt, &u.Confirmed)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, username, email, password, created_at, refresh_token, avatar, confirmed
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.RefreshToken,
			&u.Avatar,
			&u.Confirmed,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// UpdateRefreshToken stores the user's single valid refresh token. A nil
// token clears the slot, forcing re-login.
func (r *UsersRepo) UpdateRefreshToken(ctx context.Context, email string, token *string) error {
	return r.prom.ObserveDB("users.update_refresh_token", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET refresh_token = $2 WHERE email = $1`,
			email, token,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

func (r *UsersRepo) ConfirmEmail(ctx context.Context, email string) error {
	return r.prom.ObserveDB("users.confirm_email", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET confirmed = TRUE WHERE email = $1`,
			email,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

func (r *UsersRepo) UpdateAvatar(ctx context.Context, email, url string) (user.User, error) {
	err := r.prom.ObserveDB("users.update_avatar", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET avatar = $2 WHERE email = $1`,
			email, url,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})

	if err != nil {
		return user.User{}, err
	}

	return r.GetByEmail(ctx, email)
}
