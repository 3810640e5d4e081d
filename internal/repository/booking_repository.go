package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/model"
)

// BookingRepo persists service bookings.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// BookingFilterColumns maps the filter/sort parameters exposed on the
// booking list endpoint to their columns.
var BookingFilterColumns = map[string]string{
	"status":      "status",
	"serviceId":   "service_id",
	"clientId":    "client_id",
	"bookingDate": "booking_date",
	"createdAt":   "created_at",
}

// BookingScope restricts a booking list to what the caller may see.
// Exactly one of the three shapes applies: unscoped (admin), by
// client, or by a set of service ids (provider). ServiceIDs is
// non-nil for the provider shape even when the provider owns no
// services; an empty set short-circuits to zero rows.
type BookingScope struct {
	ClientID   uint64
	ServiceIDs []uint64
}

// ScopeForClient restricts to bookings created by the given client.
func ScopeForClient(clientID uint64) BookingScope { return BookingScope{ClientID: clientID} }

// ScopeForProvider restricts to bookings against the given services.
func ScopeForProvider(serviceIDs []uint64) BookingScope {
	if serviceIDs == nil {
		serviceIDs = []uint64{}
	}
	return BookingScope{ServiceIDs: serviceIDs}
}

// ScopeAll applies no restriction (admin).
func ScopeAll() BookingScope { return BookingScope{} }

// filters renders the scope as extra filters prepended to the
// caller's own. The provider shape is the second half of a two-step
// join: the owned service ids were resolved first, then bookings are
// narrowed to that set here.
func (s BookingScope) filters() ([]Filter, bool) {
	if s.ClientID != 0 {
		return []Filter{{Column: "client_id", Op: "=", Values: []any{s.ClientID}}}, true
	}
	if s.ServiceIDs != nil {
		if len(s.ServiceIDs) == 0 {
			return nil, false // provider owns nothing; no rows can match
		}
		vals := make([]any, len(s.ServiceIDs))
		for i, id := range s.ServiceIDs {
			vals[i] = id
		}
		return []Filter{{Column: "service_id", Op: "IN", Values: vals}}, true
	}
	return nil, true
}

const bookingCols = "id, client_id, service_id, booking_date, status, notes, created_at"

func scanBooking(row scanner) (model.Booking, error) {
	var (
		b     model.Booking
		notes sql.NullString
	)
	err := row.Scan(&b.ID, &b.ClientID, &b.ServiceID, &b.BookingDate, &b.Status, &notes, &b.CreatedAt)
	b.Notes = notes.String
	return b, err
}

// Create inserts a booking and reads the row back to populate
// defaults (status, created_at).
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (client_id, service_id, booking_date, status, notes) VALUES (?,?,?,?,?)",
		b.ClientID, b.ServiceID, b.BookingDate, b.Status, b.Notes)
	if err != nil {
		return apperr.Unexpected(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Unexpected(err)
	}
	b.ID = uint64(id)
	got, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = got
	return nil
}

// GetByID fetches a single booking.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, apperr.NotFound("booking not found")
	}
	if err != nil {
		return b, apperr.Unexpected(err)
	}
	return b, nil
}

// Update overwrites the mutable booking columns. Which fields the
// caller was allowed to change was already settled by the policy
// check and the handler's field shaping.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET booking_date=?, status=?, notes=? WHERE id=?",
		b.BookingDate, b.Status, b.Notes, b.ID); err != nil {
		return apperr.Unexpected(err)
	}
	return nil
}

// Delete removes a booking.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("booking not found")
	}
	return nil
}

// List returns a page of bookings visible under scope, plus the total
// count before pagination.
func (r *BookingRepo) List(ctx context.Context, scope BookingScope, opts ListOptions) ([]model.Booking, int64, error) {
	scopeFilters, possible := scope.filters()
	if !possible {
		return []model.Booking{}, 0, nil
	}
	cond, args := whereClause(append(scopeFilters, opts.Filters...))

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Unexpected(err)
	}

	q := "SELECT " + bookingCols + " FROM bookings WHERE " + cond +
		" ORDER BY " + orderClause(opts.Sort, "created_at") + " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, apperr.Unexpected(err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, apperr.Unexpected(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Unexpected(err)
	}
	return out, total, nil
}

// ListByService returns all bookings against one service, newest
// booking date first. Route-level role checks plus the handler's
// ownership check guard access.
func (r *BookingRepo) ListByService(ctx context.Context, serviceID uint64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE service_id=? ORDER BY booking_date DESC", serviceID)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, apperr.Unexpected(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unexpected(err)
	}
	return out, nil
}
