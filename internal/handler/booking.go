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
	"github.com/amineqh/auto-services-marketplace/internal/queue"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
	queue_publisher "github.com/amineqh/auto-services-marketplace/internal/service"
)

// BookingHandler serves the booking lifecycle. Status changes are
// published to the broker for the audit consumer; a broker outage
// never fails the request.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Services *repository.ServiceRepo

	// Publish is swappable for tests.
	Publish func(ctx context.Context, ev queue.BookingStatusEvent) error
}

func NewBookingHandler(b *repository.BookingRepo, s *repository.ServiceRepo) *BookingHandler {
	return &BookingHandler{Bookings: b, Services: s, Publish: queue_publisher.PublishBookingStatus}
}

type bookingView struct {
	ID          uint64    `json:"id"`
	ClientID    uint64    `json:"clientId"`
	ServiceID   uint64    `json:"serviceId"`
	BookingDate time.Time `json:"bookingDate"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toBookingView(b model.Booking) bookingView {
	return bookingView{
		ID: b.ID, ClientID: b.ClientID, ServiceID: b.ServiceID,
		BookingDate: b.BookingDate, Status: b.Status, Notes: b.Notes, CreatedAt: b.CreatedAt,
	}
}

func toBookingViews(list []model.Booking) []bookingView {
	out := make([]bookingView, len(list))
	for i, b := range list {
		out[i] = toBookingView(b)
	}
	return out
}

// serviceRef loads the policy-relevant state of a service. A missing
// row comes back as nil so the policy engine reports not-found rather
// than the handler branching on it.
func (h *BookingHandler) serviceRef(ctx context.Context, id uint64) (*authz.Service, *model.Service, error) {
	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &authz.Service{OwnerID: s.OwnerID, Available: s.Available}, &s, nil
}

// loadBooking fetches a booking together with its service reference
// as policy state.
func (h *BookingHandler) loadBooking(ctx context.Context, id uint64) (model.Booking, *authz.Booking, *model.Service, error) {
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return b, nil, nil, err
	}
	ref, svc, err := h.serviceRef(ctx, b.ServiceID)
	if err != nil {
		return b, nil, nil, err
	}
	return b, &authz.Booking{ClientID: b.ClientID, Service: ref}, svc, nil
}

type createBookingReq struct {
	ServiceID   uint64    `json:"serviceId"`
	BookingDate time.Time `json:"bookingDate"`
	Notes       string    `json:"notes"`
}

// Create places a booking against an available service. The service
// must exist and be accepting bookings; both checks run inside the
// policy engine so every role sees the same answer.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	if req.ServiceID == 0 {
		return respondErr(c, apperr.Validation("please provide serviceId"))
	}
	if req.BookingDate.IsZero() {
		return respondErr(c, apperr.Validation("please provide bookingDate"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ref, _, err := h.serviceRef(ctx, req.ServiceID)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	dec := authz.Authorize(ident, authz.ActionCreate, &authz.Booking{Service: ref})
	if !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	b := model.Booking{
		ClientID:    ident.ID,
		ServiceID:   req.ServiceID,
		BookingDate: req.BookingDate,
		Status:      model.BookingPending,
		Notes:       req.Notes,
	}
	if err := h.Bookings.Create(ctx, &b); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, toBookingView(b))
}

// List returns the bookings the caller may see: clients their own,
// providers those against their services, admins everything.
func (h *BookingHandler) List(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	opts := repository.ParseListOptions(c.QueryParams(), repository.BookingFilterColumns)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var scope repository.BookingScope
	switch ident.Role {
	case model.RoleAdmin:
		scope = repository.ScopeAll()
	case model.RoleServiceUser:
		ids, err := h.Services.IDsByOwner(ctx, ident.ID)
		if err != nil {
			return respondErr(c, err)
		}
		scope = repository.ScopeForProvider(ids)
	default:
		scope = repository.ScopeForClient(ident.ID)
	}

	list, total, err := h.Bookings.List(ctx, scope, opts)
	if err != nil {
		return respondErr(c, err)
	}
	return respondList(c, toBookingViews(list), len(list),
		repository.NewPagination(opts.Page, opts.Limit, total))
}

// Get returns one booking if the caller is its client, the owner of
// the booked service, or an admin.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, res, _, err := h.loadBooking(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionReadOne, res); !dec.Allowed {
		return respondErr(c, dec.Err())
	}
	return respond(c, http.StatusOK, toBookingView(b))
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus lets the service owner (or an admin) accept or reject a
// booking. The change is published to the audit stream.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	if !model.ValidBookingStatus(req.Status) {
		return respondErr(c, apperr.Validation("invalid status"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, res, svc, err := h.loadBooking(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionUpdateStatus, res); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	old := b.Status
	b.Status = req.Status
	if err := h.Bookings.Update(ctx, &b); err != nil {
		return respondErr(c, err)
	}
	if old != b.Status {
		h.publishStatusChange(b, svc, old, ident.ID)
	}
	return respond(c, http.StatusOK, toBookingView(b))
}

type updateBookingReq struct {
	BookingDate *time.Time `json:"bookingDate"`
	Status      *string    `json:"status"`
	Notes       *string    `json:"notes"`
}

// Update modifies a booking. Which fields apply depends on who asks:
// clients may edit only their notes, the service owner may set status
// and notes, admins may do all three. Fields outside the caller's set
// are ignored rather than rejected.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, res, svc, err := h.loadBooking(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionUpdate, res); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	old := b.Status
	admin := ident.Role == model.RoleAdmin
	client := ident.Role == model.RoleClient

	if req.BookingDate != nil && admin {
		b.BookingDate = *req.BookingDate
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
	if req.Status != nil && !client {
		if !model.ValidBookingStatus(*req.Status) {
			return respondErr(c, apperr.Validation("invalid status"))
		}
		b.Status = *req.Status
	}

	if err := h.Bookings.Update(ctx, &b); err != nil {
		return respondErr(c, err)
	}
	if old != b.Status {
		h.publishStatusChange(b, svc, old, ident.ID)
	}
	return respond(c, http.StatusOK, toBookingView(b))
}

// Delete cancels a booking. Only the booking's client or an admin.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, res, _, err := h.loadBooking(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionDelete, res); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	if err := h.Bookings.Delete(ctx, id); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"deleted": true})
}

// ByService lists every booking against one service for its owner or
// an admin.
func (h *BookingHandler) ByService(c echo.Context) error {
	serviceID, err := parseID(c, "serviceId")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, serviceID)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	if ident.Role != model.RoleAdmin && s.OwnerID != ident.ID {
		return respondErr(c, apperr.Authorization("not authorized to view bookings for this service"))
	}

	list, err := h.Bookings.ListByService(ctx, serviceID)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCount(c, toBookingViews(list), len(list))
}

// ByUser lists one client's bookings. Admin-only at the route level.
func (h *BookingHandler) ByUser(c echo.Context) error {
	clientID, err := parseID(c, "userId")
	if err != nil {
		return respondErr(c, err)
	}
	opts := repository.ParseListOptions(c.QueryParams(), repository.BookingFilterColumns)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Bookings.List(ctx, repository.ScopeForClient(clientID), opts)
	if err != nil {
		return respondErr(c, err)
	}
	return respondList(c, toBookingViews(list), len(list),
		repository.NewPagination(opts.Page, opts.Limit, total))
}

// publishStatusChange fires the audit event in the background so the
// response never waits on the broker.
func (h *BookingHandler) publishStatusChange(b model.Booking, svc *model.Service, oldStatus string, changedBy uint64) {
	ev := queue.BookingStatusEvent{
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		ServiceID:   b.ServiceID,
		OldStatus:   oldStatus,
		NewStatus:   b.Status,
		ChangedBy:   changedBy,
		BookingDate: b.BookingDate.UTC().Format(time.RFC3339),
		ChangedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if svc != nil {
		ev.ServiceTitle = svc.Title
		ev.Category = svc.Category
		ev.Price = svc.Price
	}
	publish := h.Publish
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = publish(ctx, ev)
	}()
}
