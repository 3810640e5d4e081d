package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/utils"
)

// UserRepo persists application users.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,role,name,phone,address,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.Phone, &u.Address, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user with a freshly hashed password and returns
// its ID. A duplicate email surfaces as a conflict error.
func (r *UserRepo) Create(ctx context.Context, email, password, role, name, phone, address string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, apperr.Unexpected(err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, name, phone, address) VALUES (?,?,?,?,?,?)",
		email, hash, role, name, phone, address)
	if err != nil {
		if isDuplicate(err) {
			return 0, apperr.Conflict("user already exists")
		}
		return 0, apperr.Unexpected(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Unexpected(err)
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, apperr.NotFound("user not found")
	}
	if err != nil {
		return u, apperr.Unexpected(err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, apperr.NotFound("user not found")
	}
	if err != nil {
		return u, apperr.Unexpected(err)
	}
	return u, nil
}

// UpdateProfile overwrites the mutable profile fields. Role and email
// are deliberately not updatable here.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, phone, address string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, phone=?, address=? WHERE id=?",
		name, phone, address, id)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean identical values; confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id); err != nil {
		return apperr.Unexpected(err)
	}
	return nil
}

// ListAll returns every user, newest first. Admin-only at the route
// level; the repository does not scope it.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.Phone, &u.Address, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, apperr.Unexpected(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unexpected(err)
	}
	return out, nil
}
