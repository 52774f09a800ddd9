package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

func TestFindByID(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer conn.Close()
	r := NewPostgres(conn)

	created := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, email, points, created_at FROM users WHERE id = \\$1").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "points", "created_at"}).
			AddRow("u1", "fan@example.com", int64(300), created))
	mock.ExpectQuery("SELECT id, email, points, created_at FROM users WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "points", "created_at"}))

	u, err := r.FindByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u.Points != 300 || u.Email != "fan@example.com" {
		t.Fatalf("Unexpected user: %+v", u)
	}

	if _, err := r.FindByID(context.Background(), "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
