package shift

import (
	"errors"
	"testing"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/core"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return gdb, mock, func() { db.Close() }
}

func TestOpenRejectsSecondShift(t *testing.T) {
	gdb, mock, done := mockDB(t)
	defer done()

	// An open shift already exists for the user; no insert may follow.
	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "start_time", "start_cash"}).
			AddRow(7, 2, "open", time.Now(), "1000"))

	_, err := Open(gdb, 2, "cashier", decimal.NewFromInt(500))
	if !errors.Is(err, core.ErrShiftAlreadyOpen) {
		t.Fatalf("err = %v, want ErrShiftAlreadyOpen", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("second open must not write anything: %v", err)
	}
}

func TestOpenRejectsNegativeStartCash(t *testing.T) {
	gdb, mock, done := mockDB(t)
	defer done()

	if _, err := Open(gdb, 2, "cashier", decimal.NewFromInt(-1)); err == nil {
		t.Fatal("negative start cash should be rejected")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("validation must reject before any query: %v", err)
	}
}

func TestCloseRejectsClosedShift(t *testing.T) {
	gdb, mock, done := mockDB(t)
	defer done()

	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "start_time", "start_cash"}).
			AddRow(7, 2, "closed", time.Now(), "1000"))

	_, _, err := Close(gdb, 7, decimal.NewFromInt(900))
	if !errors.Is(err, core.ErrShiftNotOpen) {
		t.Fatalf("err = %v, want ErrShiftNotOpen", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("closing a closed shift must not write anything: %v", err)
	}
}
