package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
)

// bcrypt's minimum cost keeps the hashing in tests fast.
const testBcryptCost = 4

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ali@example.com' for key 'users.email'"))

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "Ali@Example.com", "secret123", "CLIENT", "Ali", "", "", testBcryptCost)
	if !apperr.IsConflict(err) {
		t.Fatalf("Create = %v, want conflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("ali@example.com", sqlmock.AnyArg(), "CLIENT", "Ali", "0601020304", "Casablanca").
		WillReturnResult(sqlmock.NewResult(5, 1))

	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), "  Ali@Example.COM ", "secret123", "CLIENT", "Ali", "0601020304", "Casablanca", testBcryptCost)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 5 {
		t.Fatalf("id = %d, want 5", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE id=\\?").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepo(db)
	if _, err := repo.GetByID(context.Background(), 404); !apperr.IsNotFound(err) {
		t.Fatalf("GetByID = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
