package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/model"
)

// OrderRepo persists parts orders and their line items. An order and
// its items are written inside one transaction so a failed item
// insert never leaves a headless order behind.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// OrderFilterColumns maps the filter/sort parameters exposed on the
// order list endpoint to their columns.
var OrderFilterColumns = map[string]string{
	"status":    "status",
	"orderDate": "order_date",
}

const orderCols = "id, client_id, total_price, status, order_date"

// Create inserts the order and its items transactionally. TotalPrice
// must already be the recomputed Σ(quantity × unit price); the
// repository stores, it does not price.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unexpected(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (client_id, total_price, status) VALUES (?,?,?)",
		o.ClientID, o.TotalPrice, o.Status)
	if err != nil {
		return apperr.Unexpected(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Unexpected(err)
	}
	o.ID = uint64(id)

	if err := insertItemsTx(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Unexpected(err)
	}
	committed = true

	got, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	*o = got
	return nil
}

// insertItemsTx bulk-inserts order items in a single statement.
func insertItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	q := "INSERT INTO order_items (order_id, product_name, quantity, unit_price) VALUES "
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			q += ","
		}
		q += "(?,?,?,?)"
		args = append(args, orderID, it.ProductName, it.Quantity, it.UnitPrice)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return apperr.Unexpected(err)
	}
	return nil
}

// GetByID fetches an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	var o model.Order
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id=? LIMIT 1", id).
		Scan(&o.ID, &o.ClientID, &o.TotalPrice, &o.Status, &o.OrderDate)
	if errors.Is(err, sql.ErrNoRows) {
		return o, apperr.NotFound("order not found with id %d", id)
	}
	if err != nil {
		return o, apperr.Unexpected(err)
	}
	items, err := r.itemsFor(ctx, []uint64{o.ID})
	if err != nil {
		return o, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}
	return o, nil
}

// Update replaces the order's items and status, writing the new
// authoritative total. Old items are deleted and re-inserted inside
// the same transaction.
func (r *OrderRepo) Update(ctx context.Context, o *model.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unexpected(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET total_price=?, status=? WHERE id=?",
		o.TotalPrice, o.Status, o.ID); err != nil {
		return apperr.Unexpected(err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM order_items WHERE order_id=?", o.ID); err != nil {
		return apperr.Unexpected(err)
	}
	if err := insertItemsTx(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Unexpected(err)
	}
	committed = true

	got, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	*o = got
	return nil
}

// Delete removes an order and its items.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unexpected(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id=?", id); err != nil {
		return apperr.Unexpected(err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id=?", id)
	if err != nil {
		return apperr.Unexpected(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order not found with id %d", id)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Unexpected(err)
	}
	committed = true
	return nil
}

// List returns a page of orders with items. clientID zero means
// unscoped (admin); any other value restricts to that client's
// orders.
func (r *OrderRepo) List(ctx context.Context, clientID uint64, opts ListOptions) ([]model.Order, int64, error) {
	filters := opts.Filters
	if clientID != 0 {
		filters = append([]Filter{{Column: "client_id", Op: "=", Values: []any{clientID}}}, filters...)
	}
	cond, args := whereClause(filters)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Unexpected(err)
	}

	q := "SELECT " + orderCols + " FROM orders WHERE " + cond +
		" ORDER BY " + orderClause(opts.Sort, "order_date") + " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, apperr.Unexpected(err)
	}
	defer rows.Close()

	out := []model.Order{}
	ids := []uint64{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.ClientID, &o.TotalPrice, &o.Status, &o.OrderDate); err != nil {
			return nil, 0, apperr.Unexpected(err)
		}
		o.Items = []model.OrderItem{}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Unexpected(err)
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if got := items[out[i].ID]; got != nil {
			out[i].Items = got
		}
	}
	return out, total, nil
}

// itemsFor loads the items of several orders in one query, keyed by
// order id.
func (r *OrderRepo) itemsFor(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	out := map[uint64][]model.OrderItem{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	vals := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		vals[i] = id
	}
	cond, args := whereClause([]Filter{{Column: "order_id", Op: "IN", Values: vals}})
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, order_id, product_name, quantity, unit_price FROM order_items WHERE "+cond+" ORDER BY id", args...)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, apperr.Unexpected(err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unexpected(err)
	}
	return out, nil
}
