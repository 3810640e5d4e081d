package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/authz"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// defaultServiceImage is stored when a listing is created without one.
const defaultServiceImage = "no-photo.jpg"

// ServiceHandler serves the public catalog and the provider-side
// listing management endpoints.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(s *repository.ServiceRepo) *ServiceHandler {
	return &ServiceHandler{Services: s}
}

// serviceView is the JSON shape of a listing. Detail fields are
// promoted to the top level and omitted when NULL.
type serviceView struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"ownerId"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	model.ServiceDetails
}

func toServiceView(s model.Service) serviceView {
	return serviceView{
		ID: s.ID, OwnerID: s.OwnerID, Category: s.Category, Title: s.Title,
		Description: s.Description, Location: s.Location, Price: s.Price,
		Image: s.Image, Available: s.Available, CreatedAt: s.CreatedAt,
		ServiceDetails: s.Details,
	}
}

func toServiceViews(list []model.Service) []serviceView {
	out := make([]serviceView, len(list))
	for i, s := range list {
		out[i] = toServiceView(s)
	}
	return out
}

// parseID reads a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

type createServiceReq struct {
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Available   *bool   `json:"available"`
	model.ServiceDetails
}

// updateServiceReq uses pointers throughout: absent fields keep their
// stored value, matching partial-update semantics.
type updateServiceReq struct {
	Category    *string  `json:"category"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Price       *float64 `json:"price"`
	Image       *string  `json:"image"`
	Available   *bool    `json:"available"`
	model.ServiceDetails
}

// List is the public catalog: filterable, sortable, paginated.
func (h *ServiceHandler) List(c echo.Context) error {
	opts := repository.ParseListOptions(c.QueryParams(), repository.ServiceFilterColumns)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Services.List(ctx, opts)
	if err != nil {
		return respondErr(c, err)
	}
	return respondList(c, toServiceViews(list), len(list),
		repository.NewPagination(opts.Page, opts.Limit, total))
}

// Get returns one listing. Public.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, toServiceView(s))
}

// ByUser returns every listing of one provider. Public.
func (h *ServiceHandler) ByUser(c echo.Context) error {
	ownerID, err := parseID(c, "userId")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Services.ListByOwner(ctx, ownerID)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCount(c, toServiceViews(list), len(list))
}

// Create adds a listing owned by the caller. Category-specific detail
// requirements are enforced here, before anything is stored.
func (h *ServiceHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if dec := authz.Authorize(ident, authz.ActionCreate, (*authz.Service)(nil)); !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	var req createServiceReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	if req.Title == "" {
		return respondErr(c, apperr.Validation("please provide title"))
	}
	if !model.ValidCategory(req.Category) {
		return respondErr(c, apperr.Validation("invalid category"))
	}
	if req.Price < 0 {
		return respondErr(c, apperr.Validation("price cannot be negative"))
	}
	if err := model.ValidateDetails(req.Category, req.ServiceDetails); err != nil {
		return respondErr(c, apperr.Validation("%s", err.Error()))
	}

	s := model.Service{
		OwnerID:     ident.ID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		Image:       req.Image,
		Available:   true,
		Details:     req.ServiceDetails,
	}
	if s.Image == "" {
		s.Image = defaultServiceImage
	}
	if req.Available != nil {
		s.Available = *req.Available
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Create(ctx, &s); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, toServiceView(s))
}

// Update modifies a listing. Only the owner (or an admin) may; absent
// fields keep their stored value and detail requirements are re-run
// against the merged result.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	dec := authz.Authorize(ident, authz.ActionUpdate, &authz.Service{OwnerID: s.OwnerID, Available: s.Available})
	if !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	var req updateServiceReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	if req.Category != nil {
		if !model.ValidCategory(*req.Category) {
			return respondErr(c, apperr.Validation("invalid category"))
		}
		s.Category = *req.Category
	}
	if req.Title != nil {
		if *req.Title == "" {
			return respondErr(c, apperr.Validation("please provide title"))
		}
		s.Title = *req.Title
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Location != nil {
		s.Location = *req.Location
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return respondErr(c, apperr.Validation("price cannot be negative"))
		}
		s.Price = *req.Price
	}
	if req.Image != nil {
		s.Image = *req.Image
	}
	if req.Available != nil {
		s.Available = *req.Available
	}
	mergeDetails(&s.Details, req.ServiceDetails)
	if err := model.ValidateDetails(s.Category, s.Details); err != nil {
		return respondErr(c, apperr.Validation("%s", err.Error()))
	}

	if err := h.Services.Update(ctx, &s); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, toServiceView(s))
}

// mergeDetails copies every detail field present in src onto dst.
func mergeDetails(dst *model.ServiceDetails, src model.ServiceDetails) {
	if src.VehicleType != nil {
		dst.VehicleType = src.VehicleType
	}
	if src.Distance != nil {
		dst.Distance = src.Distance
	}
	if src.Urgency != nil {
		dst.Urgency = src.Urgency
	}
	if src.Brand != nil {
		dst.Brand = src.Brand
	}
	if src.Model != nil {
		dst.Model = src.Model
	}
	if src.Year != nil {
		dst.Year = src.Year
	}
	if src.PartNumber != nil {
		dst.PartNumber = src.PartNumber
	}
	if src.RepairType != nil {
		dst.RepairType = src.RepairType
	}
	if src.EstimatedTime != nil {
		dst.EstimatedTime = src.EstimatedTime
	}
	if src.ToolsRequired != nil {
		dst.ToolsRequired = src.ToolsRequired
	}
	if src.CarBrand != nil {
		dst.CarBrand = src.CarBrand
	}
	if src.CarModel != nil {
		dst.CarModel = src.CarModel
	}
	if src.FuelType != nil {
		dst.FuelType = src.FuelType
	}
	if src.Transmission != nil {
		dst.Transmission = src.Transmission
	}
	if src.RentalDuration != nil {
		dst.RentalDuration = src.RentalDuration
	}
}

// Delete removes a listing. Owner or admin only.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	ident := middleware.CurrentIdentity(c)
	dec := authz.Authorize(ident, authz.ActionDelete, &authz.Service{OwnerID: s.OwnerID, Available: s.Available})
	if !dec.Allowed {
		return respondErr(c, dec.Err())
	}

	if err := h.Services.Delete(ctx, id); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{"deleted": true})
}
