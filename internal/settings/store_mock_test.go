package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// These tests inject driver-level failures that a real SQLite file cannot
// produce on demand, to pin down the all-or-nothing batch contract.

func TestUpsertManyRollsBackOnMidBatchFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := newStore(db, "mock.db")

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	// Keys are written in sorted order, so the first exec sees "aaa_first".
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("aaa_first", "1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("bbb_second", "2", sqlmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	err = store.UpsertMany(context.Background(), map[string]string{
		"bbb_second": "2",
		"aaa_first":  "1",
	})
	if err == nil {
		t.Fatal("expected mid-batch failure to surface")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("transaction was not rolled back as expected: %v", err)
	}
}

func TestUpsertManyRollsBackWhenRevisionBumpFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := newStore(db, "mock.db")

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("background_color", "black", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE store_revision").
		WillReturnError(boom)
	mock.ExpectRollback()

	err = store.UpsertMany(context.Background(), map[string]string{"background_color": "black"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("transaction was not rolled back as expected: %v", err)
	}
}

func TestUpsertManyCommitsFullBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := newStore(db, "mock.db")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("default_interval", "12", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("enable_inky", "false", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE store_revision").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.UpsertMany(context.Background(), map[string]string{
		"enable_inky":      "false",
		"default_interval": "12",
	})
	if err != nil {
		t.Fatalf("UpsertMany failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
