package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/model"
)

var serviceTestCols = []string{
	"id", "owner_id", "category", "title", "description", "location", "price", "image", "available", "created_at",
	"vehicle_type", "distance", "urgency", "brand", "model", "year", "part_number",
	"repair_type", "estimated_time", "tools_required", "car_brand", "car_model", "fuel_type", "transmission", "rental_duration",
}

func TestServiceGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM services WHERE id=\\?").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(serviceTestCols))

	repo := NewServiceRepo(db)
	if _, err := repo.GetByID(context.Background(), 404); !apperr.IsNotFound(err) {
		t.Fatalf("GetByID = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestServiceDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM services WHERE id=\\?").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewServiceRepo(db)
	if err := repo.Delete(context.Background(), 404); !apperr.IsNotFound(err) {
		t.Fatalf("Delete = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// List renders caller filters into the WHERE clause and scans NULL
// detail columns into nil pointers.
func TestServiceListWithFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(serviceTestCols).AddRow(
		int64(1), int64(20), "REMORQUAGE", "Remorquage 24/7", "", "Rabat", 300.0, "no-photo.jpg", true, now,
		"citadine", 25.0, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM services WHERE price >= \\?").
		WithArgs("100").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("FROM services WHERE price >= \\? ORDER BY created_at DESC LIMIT \\? OFFSET \\?").
		WithArgs("100", int64(10), int64(0)).
		WillReturnRows(rows)

	repo := NewServiceRepo(db)
	opts := ListOptions{
		Filters: []Filter{{Column: "price", Op: ">=", Values: []any{"100"}}},
		Page:    1, Limit: 10,
	}
	got, total, err := repo.List(context.Background(), opts)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("total, len = %d, %d, want 1, 1", total, len(got))
	}
	s := got[0]
	if s.Category != "REMORQUAGE" || s.Title != "Remorquage 24/7" {
		t.Fatalf("unexpected service: %+v", s)
	}
	if s.Details.VehicleType == nil || *s.Details.VehicleType != "citadine" {
		t.Fatalf("VehicleType = %v, want citadine", s.Details.VehicleType)
	}
	if s.Details.Distance == nil || *s.Details.Distance != 25 {
		t.Fatalf("Distance = %v, want 25", s.Details.Distance)
	}
	if s.Details.Brand != nil || s.Details.RepairType != nil || s.Details.CarBrand != nil {
		t.Fatalf("NULL detail columns should scan to nil: %+v", s.Details)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// Creating a listing and reading it back returns identical
// category-specific values.
func TestServiceCreateRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	vehicleType, urgency := "camion", "haute"
	distance := 40.5
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO services").
		WithArgs(int64(20), "REMORQUAGE", "Remorquage poids lourd", "plateau 19t", "Tanger", 650.0, "no-photo.jpg", true,
			vehicleType, distance, urgency, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("FROM services WHERE id=\\?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(serviceTestCols).AddRow(
			int64(9), int64(20), "REMORQUAGE", "Remorquage poids lourd", "plateau 19t", "Tanger", 650.0, "no-photo.jpg", true, now,
			vehicleType, distance, urgency, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, nil, nil, nil))

	repo := NewServiceRepo(db)
	s := model.Service{
		OwnerID: 20, Category: "REMORQUAGE", Title: "Remorquage poids lourd",
		Description: "plateau 19t", Location: "Tanger", Price: 650, Image: "no-photo.jpg", Available: true,
		Details: model.ServiceDetails{VehicleType: &vehicleType, Distance: &distance, Urgency: &urgency},
	}
	if err := repo.Create(context.Background(), &s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID != 9 {
		t.Fatalf("ID = %d, want 9", s.ID)
	}
	if s.Details.VehicleType == nil || *s.Details.VehicleType != vehicleType {
		t.Fatalf("VehicleType = %v, want %q", s.Details.VehicleType, vehicleType)
	}
	if s.Details.Distance == nil || *s.Details.Distance != distance {
		t.Fatalf("Distance = %v, want %v", s.Details.Distance, distance)
	}
	if s.Details.Urgency == nil || *s.Details.Urgency != urgency {
		t.Fatalf("Urgency = %v, want %q", s.Details.Urgency, urgency)
	}
	if s.Details.Brand != nil || s.Details.CarBrand != nil || s.Details.RepairType != nil {
		t.Fatalf("unrelated detail fields populated: %+v", s.Details)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestServiceIDsByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM services WHERE owner_id=\\?").
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	repo := NewServiceRepo(db)
	ids, err := repo.IDsByOwner(context.Background(), 20)
	if err != nil {
		t.Fatalf("IDsByOwner: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ids = %v, want [1 2]", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
