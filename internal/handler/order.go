package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/authz"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// OrderHandler serves parts orders. The total is never taken from the
// request body; it is recomputed from the items on every write.
type OrderHandler struct {
	Orders *repository.OrderRepo
}

func NewOrderHandler(o *repository.OrderRepo) *OrderHandler {
	return &OrderHandler{Orders: o}
}

type orderView struct {
	ID         uint64            `json:"id"`
	ClientID   uint64            `json:"clientId"`
	Items      []model.OrderItem `json:"items"`
	TotalPrice float64           `json:"totalPrice"`
	Status     string            `json:"status"`
	OrderDate  time.Time         `json:"orderDate"`
}

func toOrderView(o model.Order) orderView {
	items := o.Items
	if items == nil {
		items = []model.OrderItem{}
	}
	return orderView{
		ID: o.ID, ClientID: o.ClientID, Items: items,
		TotalPrice: o.TotalPrice, Status: o.Status, OrderDate: o.OrderDate,
	}
}

func toOrderViews(list []model.Order) []orderView {
	out := make([]orderView, len(list))
	for i, o := range list {
		out[i] = toOrderView(o)
	}
	return out
}

type orderItemReq struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// validateItems checks the line items and converts them to the model
// shape. Every order needs at least one item.
func validateItems(reqs []orderItemReq) ([]model.OrderItem, error) {
	if len(reqs) == 0 {
		return nil, apperr.Validation("please provide at least one item")
	}
	items := make([]model.OrderItem, len(reqs))
	for i, it := range reqs {
		if it.ProductName == "" {
			return nil, apperr.Validation("please provide productName for every item")
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1")
		}
		if it.UnitPrice < 0 {
			return nil, apperr.Validation("unitPrice cannot be negative")
		}
		items[i] = model.OrderItem{ProductName: it.ProductName, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return items, nil
}

// Create places a parts order for the caller. Any total submitted by
// the client is discarded.
func (h *OrderHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionCreate, (*authz.Order)(nil)); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	var req struct {
		Items []orderItemReq `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	items, err := validateItems(req.Items)
	if err != nil {
		return respondErr(c, err)
	}

	o := model.Order{
		ClientID:   ident.ID,
		Items:      items,
		TotalPrice: model.OrderTotal(items),
		Status:     model.OrderPending,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.Create(ctx, &o); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, toOrderView(o))
}

// List returns the caller's orders; admins see everyone's.
func (h *OrderHandler) List(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionReadMany, (*authz.Order)(nil)); !dec.Allowed {
		return respondErr(c, dec.Err())
	}
	opts := repository.ParseListOptions(c.QueryParams(), repository.OrderFilterColumns)

	clientID := ident.ID
	if ident.Role == model.RoleAdmin {
		clientID = 0 // unscoped
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Orders.List(ctx, clientID, opts)
	if err != nil {
		return respondErr(c, err)
	}
	return respondList(c, toOrderViews(list), len(list),
		repository.NewPagination(opts.Page, opts.Limit, total))
}

// Get returns one order for its client or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionReadOne, &authz.Order{ClientID: o.ClientID}); !dec.Allowed {
		return respondErr(c, dec.Err())
	}
	return respond(c, http.StatusOK, toOrderView(o))
}

type updateOrderReq struct {
	Items  []orderItemReq `json:"items"`
	Status *string        `json:"status"`
}

// Update replaces an order's items and/or status. The total is
// recomputed from whatever items end up on the order.
func (h *OrderHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var req updateOrderReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionUpdate, &authz.Order{ClientID: o.ClientID}); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	if req.Items != nil {
		items, err := validateItems(req.Items)
		if err != nil {
			return respondErr(c, err)
		}
		o.Items = items
	}
	if req.Status != nil {
		if !model.ValidOrderStatus(*req.Status) {
			return respondErr(c, apperr.Validation("invalid status"))
		}
		o.Status = *req.Status
	}
	o.TotalPrice = model.OrderTotal(o.Items)

	if err := h.Orders.Update(ctx, &o); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, toOrderView(o))
}

// Delete removes an order. Client owner or admin only.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionDelete, &authz.Order{ClientID: o.ClientID}); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	if err := h.Orders.Delete(ctx, id); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"deleted": true})
}

// ByUser lists one client's orders. Admin-only at the route level.
func (h *OrderHandler) ByUser(c echo.Context) error {
	clientID, err := parseID(c, "userId")
	if err != nil {
		return respondErr(c, err)
	}
	opts := repository.ParseListOptions(c.QueryParams(), repository.OrderFilterColumns)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Orders.List(ctx, clientID, opts)
	if err != nil {
		return respondErr(c, err)
	}
	return respondList(c, toOrderViews(list), len(list),
		repository.NewPagination(opts.Page, opts.Limit, total))
}
