package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/authz"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/queue"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// newRequest builds an echo context carrying the given identity, the
// way the JWT middleware would after verifying a token.
func newRequest(t *testing.T, method, path, body string, ident *authz.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if ident != nil {
		c.Set("identity", ident)
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestServiceCreateForbiddenForClient(t *testing.T) {
	h := NewServiceHandler(nil) // denied before any storage access

	c, rec := newRequest(t, http.MethodPost, "/api/v1/services",
		`{"category":"REMORQUAGE","title":"Depannage"}`,
		&authz.Identity{ID: 10, Role: model.RoleClient})

	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := decodeEnvelope(t, rec); body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
}

func TestServiceCreateMissingDetail(t *testing.T) {
	h := NewServiceHandler(nil)

	c, rec := newRequest(t, http.MethodPost, "/api/v1/services",
		`{"category":"PIECE_AUTO","title":"Filtre a air","price":15,"model":"208"}`,
		&authz.Identity{ID: 20, Role: model.RoleServiceUser})

	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeEnvelope(t, rec)
	if body["message"] != "please provide brand" {
		t.Fatalf("message = %v, want %q", body["message"], "please provide brand")
	}
}

// Whatever total the client claims, the stored value is recomputed
// from the items.
func TestOrderCreateRecomputesTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(int64(10), 71.0, "PENDING"). // not the claimed 1.0
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM orders WHERE id=\\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "total_price", "status", "order_date"}).
			AddRow(int64(7), int64(10), 71.0, "PENDING", now))
	mock.ExpectQuery("FROM order_items WHERE order_id IN \\(\\?\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_name", "quantity", "unit_price"}).
			AddRow(int64(1), int64(7), "plaquettes", int64(2), 35.5))

	h := NewOrderHandler(repository.NewOrderRepo(db))

	c, rec := newRequest(t, http.MethodPost, "/api/v1/orders",
		`{"totalPrice":1,"items":[{"productName":"plaquettes","quantity":2,"unitPrice":35.5}]}`,
		&authz.Identity{ID: 10, Role: model.RoleClient})

	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOrderCreateRejectsEmptyItems(t *testing.T) {
	h := NewOrderHandler(nil)

	c, rec := newRequest(t, http.MethodPost, "/api/v1/orders",
		`{"items":[]}`,
		&authz.Identity{ID: 10, Role: model.RoleClient})

	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestOrderCreateForbiddenForProvider(t *testing.T) {
	h := NewOrderHandler(nil)

	c, rec := newRequest(t, http.MethodPost, "/api/v1/orders",
		`{"items":[{"productName":"x","quantity":1,"unitPrice":1}]}`,
		&authz.Identity{ID: 20, Role: model.RoleServiceUser})

	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// A client may never flip a booking's status, even on their own
// booking, and no event may be published for the refused attempt.
func TestBookingUpdateStatusDeniedForClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM bookings WHERE id=\\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "service_id", "booking_date", "status", "notes", "created_at"}).
			AddRow(int64(1), int64(10), int64(5), now, "PENDING", "", now))
	mock.ExpectQuery("FROM services WHERE id=\\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "category", "title", "description", "location", "price", "image", "available", "created_at",
			"vehicle_type", "distance", "urgency", "brand", "model", "year", "part_number",
			"repair_type", "estimated_time", "tools_required", "car_brand", "car_model", "fuel_type", "transmission", "rental_duration",
		}).AddRow(
			int64(5), int64(20), "MECANIQUE", "Vidange", "", "Rabat", 200.0, "no-photo.jpg", true, now,
			nil, nil, nil, nil, nil, nil, nil,
			"vidange", nil, nil, nil, nil, nil, nil, nil))

	h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewServiceRepo(db))
	published := false
	h.Publish = func(ctx context.Context, ev queue.BookingStatusEvent) error {
		published = true
		return nil
	}

	c, rec := newRequest(t, http.MethodPatch, "/api/v1/bookings/1/status",
		`{"status":"ACCEPTED"}`,
		&authz.Identity{ID: 10, Role: model.RoleClient})
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if published {
		t.Fatalf("audit event published for a denied status change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// expectBookingWithService queues the booking-plus-service load that
// every single-booking handler performs.
func expectBookingWithService(mock sqlmock.Sqlmock, bookingDate, now time.Time, status, notes string) {
	mock.ExpectQuery("FROM bookings WHERE id=\\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "service_id", "booking_date", "status", "notes", "created_at"}).
			AddRow(int64(1), int64(10), int64(5), bookingDate, status, notes, now))
	mock.ExpectQuery("FROM services WHERE id=\\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "category", "title", "description", "location", "price", "image", "available", "created_at",
			"vehicle_type", "distance", "urgency", "brand", "model", "year", "part_number",
			"repair_type", "estimated_time", "tools_required", "car_brand", "car_model", "fuel_type", "transmission", "rental_duration",
		}).AddRow(
			int64(5), int64(20), "REMORQUAGE", "Depannage", "", "Rabat", 300.0, "no-photo.jpg", true, now,
			"citadine", nil, nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, nil, nil, nil))
}

// On a general update a client may touch only the notes; a submitted
// bookingDate is ignored and the stored date written back unchanged.
func TestBookingUpdateClientNotesOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	orig := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	expectBookingWithService(mock, orig, now, "PENDING", "old notes")
	mock.ExpectExec("UPDATE bookings SET booking_date=\\?, status=\\?, notes=\\? WHERE id=\\?").
		WithArgs(orig, "PENDING", "new notes", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewServiceRepo(db))
	published := false
	h.Publish = func(ctx context.Context, ev queue.BookingStatusEvent) error {
		published = true
		return nil
	}

	c, rec := newRequest(t, http.MethodPut, "/api/v1/bookings/1",
		`{"bookingDate":"2026-12-01T09:00:00Z","status":"ACCEPTED","notes":"new notes"}`,
		&authz.Identity{ID: 10, Role: model.RoleClient})
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if published {
		t.Fatalf("audit event published though the status cannot change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// The service owner may set both status and notes on a general
// update; the date stays the client's.
func TestBookingUpdateOwnerStatusAndNotes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	orig := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	expectBookingWithService(mock, orig, now, "PENDING", "old notes")
	mock.ExpectExec("UPDATE bookings SET booking_date=\\?, status=\\?, notes=\\? WHERE id=\\?").
		WithArgs(orig, "ACCEPTED", "bring winch", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewServiceRepo(db))
	events := make(chan queue.BookingStatusEvent, 1)
	h.Publish = func(ctx context.Context, ev queue.BookingStatusEvent) error {
		events <- ev
		return nil
	}

	c, rec := newRequest(t, http.MethodPut, "/api/v1/bookings/1",
		`{"bookingDate":"2026-12-01T09:00:00Z","status":"ACCEPTED","notes":"bring winch"}`,
		&authz.Identity{ID: 20, Role: model.RoleServiceUser})
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	select {
	case ev := <-events:
		if ev.OldStatus != "PENDING" || ev.NewStatus != "ACCEPTED" || ev.ChangedBy != 20 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no audit event for the status change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// The admin back-office view pins the list to one client.
func TestBookingByUserScopedToClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings WHERE client_id = \\?").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("FROM bookings WHERE client_id = \\?").
		WithArgs(int64(10), int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "service_id", "booking_date", "status", "notes", "created_at"}).
			AddRow(int64(1), int64(10), int64(5), now, "PENDING", "", now))

	h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewServiceRepo(db))

	c, rec := newRequest(t, http.MethodGet, "/api/v1/bookings/user/10", "",
		&authz.Identity{ID: 99, Role: model.RoleAdmin})
	c.SetParamNames("userId")
	c.SetParamValues("10")

	if err := h.ByUser(c); err != nil {
		t.Fatalf("ByUser returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// Booking against a service that does not exist answers 404, and an
// unavailable one answers 400; neither is a permission error.
func TestBookingCreateReferenceChecks(t *testing.T) {
	t.Run("missing service", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery("FROM services WHERE id=\\?").
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewServiceRepo(db))
		c, rec := newRequest(t, http.MethodPost, "/api/v1/bookings",
			`{"serviceId":999,"bookingDate":"2026-09-15T10:00:00Z"}`,
			&authz.Identity{ID: 10, Role: model.RoleClient})

		if err := h.Create(c); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("unavailable service", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()

		now := time.Now().UTC()
		mock.ExpectQuery("FROM services WHERE id=\\?").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "owner_id", "category", "title", "description", "location", "price", "image", "available", "created_at",
				"vehicle_type", "distance", "urgency", "brand", "model", "year", "part_number",
				"repair_type", "estimated_time", "tools_required", "car_brand", "car_model", "fuel_type", "transmission", "rental_duration",
			}).AddRow(
				int64(5), int64(20), "MECANIQUE", "Vidange", "", "Rabat", 200.0, "no-photo.jpg", false, now,
				nil, nil, nil, nil, nil, nil, nil,
				"vidange", nil, nil, nil, nil, nil, nil, nil))

		h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewServiceRepo(db))
		c, rec := newRequest(t, http.MethodPost, "/api/v1/bookings",
			`{"serviceId":5,"bookingDate":"2026-09-15T10:00:00Z"}`,
			&authz.Identity{ID: 10, Role: model.RoleClient})

		if err := h.Create(c); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		body := decodeEnvelope(t, rec)
		if body["message"] != "service is not available" {
			t.Fatalf("message = %v", body["message"])
		}
	})
}
