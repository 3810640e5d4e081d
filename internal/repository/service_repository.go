package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/model"
)

// ServiceRepo persists provider service listings. The services table
// is flat: shared columns plus nullable category-specific columns,
// with `category` acting as the discriminator.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

// ServiceFilterColumns maps the filter/sort parameter names exposed
// on list endpoints to their columns. Parameters outside this map are
// ignored by ParseListOptions.
var ServiceFilterColumns = map[string]string{
	"category":  "category",
	"location":  "location",
	"price":     "price",
	"available": "available",
	"title":     "title",
	"createdAt": "created_at",
}

const serviceCols = `id, owner_id, category, title, description, location, price, image, available, created_at,
	vehicle_type, distance, urgency, brand, model, year, part_number,
	repair_type, estimated_time, tools_required, car_brand, car_model, fuel_type, transmission, rental_duration`

type scanner interface{ Scan(dest ...any) error }

// scanService reads one row in serviceCols order. Nullable detail
// columns scan straight into the pointer fields (NULL -> nil).
func scanService(row scanner) (model.Service, error) {
	var s model.Service
	d := &s.Details
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Category, &s.Title, &s.Description, &s.Location, &s.Price, &s.Image, &s.Available, &s.CreatedAt,
		&d.VehicleType, &d.Distance, &d.Urgency, &d.Brand, &d.Model, &d.Year, &d.PartNumber,
		&d.RepairType, &d.EstimatedTime, &d.ToolsRequired, &d.CarBrand, &d.CarModel, &d.FuelType, &d.Transmission, &d.RentalDuration,
	)
	return s, err
}

// Create inserts a listing and populates the generated ID and
// DB-default fields back onto s. Category validation happens before
// this call; the repository stores whatever it is given.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	const q = `INSERT INTO services
		(owner_id, category, title, description, location, price, image, available,
		 vehicle_type, distance, urgency, brand, model, year, part_number,
		 repair_type, estimated_time, tools_required, car_brand, car_model, fuel_type, transmission, rental_duration)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	d := s.Details
	res, err := r.DB.ExecContext(ctx, q,
		s.OwnerID, s.Category, s.Title, s.Description, s.Location, s.Price, s.Image, s.Available,
		d.VehicleType, d.Distance, d.Urgency, d.Brand, d.Model, d.Year, d.PartNumber,
		d.RepairType, d.EstimatedTime, d.ToolsRequired, d.CarBrand, d.CarModel, d.FuelType, d.Transmission, d.RentalDuration)
	if err != nil {
		return apperr.Unexpected(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Unexpected(err)
	}
	s.ID = uint64(id)
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = got
	return nil
}

// GetByID fetches a single listing.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	s, err := scanService(r.DB.QueryRowContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, apperr.NotFound("service not found with id %d", id)
	}
	if err != nil {
		return s, apperr.Unexpected(err)
	}
	return s, nil
}

// Update overwrites every mutable column of a listing. The handler
// loads the current row, applies the submitted fields and re-runs
// category validation before calling this.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	const q = `UPDATE services SET
		category=?, title=?, description=?, location=?, price=?, image=?, available=?,
		vehicle_type=?, distance=?, urgency=?, brand=?, model=?, year=?, part_number=?,
		repair_type=?, estimated_time=?, tools_required=?, car_brand=?, car_model=?, fuel_type=?, transmission=?, rental_duration=?
		WHERE id=?`
	d := s.Details
	if _, err := r.DB.ExecContext(ctx, q,
		s.Category, s.Title, s.Description, s.Location, s.Price, s.Image, s.Available,
		d.VehicleType, d.Distance, d.Urgency, d.Brand, d.Model, d.Year, d.PartNumber,
		d.RepairType, d.EstimatedTime, d.ToolsRequired, d.CarBrand, d.CarModel, d.FuelType, d.Transmission, d.RentalDuration,
		s.ID); err != nil {
		return apperr.Unexpected(err)
	}
	return nil
}

// Delete removes a listing.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM services WHERE id=?", id)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("service not found with id %d", id)
	}
	return nil
}

// List returns a page of listings matching opts plus the total count
// before pagination. Services are public, so no role scope applies.
func (r *ServiceRepo) List(ctx context.Context, opts ListOptions) ([]model.Service, int64, error) {
	cond, args := whereClause(opts.Filters)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM services WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Unexpected(err)
	}

	q := "SELECT " + serviceCols + " FROM services WHERE " + cond +
		" ORDER BY " + orderClause(opts.Sort, "created_at") + " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, apperr.Unexpected(err)
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, apperr.Unexpected(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Unexpected(err)
	}
	return out, total, nil
}

// ListByOwner returns every listing created by one provider, newest
// first. Used by the public by-user endpoint.
func (r *ServiceRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE owner_id=? ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, apperr.Unexpected(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unexpected(err)
	}
	return out, nil
}

// IDsByOwner returns the ids of every service owned by ownerID. The
// booking list for a provider is scoped with this set.
func (r *ServiceRepo) IDsByOwner(ctx context.Context, ownerID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id FROM services WHERE owner_id=?", ownerID)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Unexpected(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unexpected(err)
	}
	return ids, nil
}
