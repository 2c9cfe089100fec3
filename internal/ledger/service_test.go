package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/logger"
	"github.com/smsm300/fox-kiro-v5/internal/models"
	"github.com/smsm300/fox-kiro-v5/internal/offline"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Init("error")
}

func mockService(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
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

	// No upstream: standalone store, nothing is queued.
	monitor := offline.NewMonitor(nil, time.Minute)
	svc := NewService(gdb, offline.NewQueue(gdb), monitor, nil)
	return svc, mock, func() { db.Close() }
}

var (
	cashier = auth.Actor{UserID: 2, Name: "cashier", Role: models.RoleCashier}
	admin   = auth.Actor{UserID: 1, Name: "boss", Role: models.RoleAdmin}
)

func saleInput() SaleInput {
	return SaleInput{
		Items:         []CartLine{{ProductID: 1, Quantity: decimal.NewFromInt(2)}},
		PaymentMethod: models.PayCash,
		TotalAmount:   decimal.NewFromInt(100),
	}
}

func TestCreateSaleRequiresOpenShift(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	// No open shift for the cashier; nothing else may touch the database.
	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.CreateSale(context.Background(), cashier, saleInput())
	if !errors.Is(err, core.ErrShiftRequired) {
		t.Fatalf("err = %v, want ErrShiftRequired", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestCreateSaleValidatesBeforeDatabase(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	cases := []struct {
		name string
		in   SaleInput
	}{
		{"empty cart", SaleInput{PaymentMethod: models.PayCash, TotalAmount: decimal.NewFromInt(10)}},
		{"zero total", SaleInput{Items: []CartLine{{ProductID: 1, Quantity: decimal.NewFromInt(1)}}, PaymentMethod: models.PayCash}},
		{"bad method", SaleInput{Items: []CartLine{{ProductID: 1, Quantity: decimal.NewFromInt(1)}}, PaymentMethod: "bitcoin", TotalAmount: decimal.NewFromInt(10)}},
	}

	for _, tc := range cases {
		if _, err := svc.CreateSale(context.Background(), cashier, tc.in); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("validation must reject before any query: %v", err)
	}
}

func TestCreateExpenseStandalone(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	now := time.Now()

	// Admin without a shift: the gate passes and shift_id stays null.
	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date", "amount", "payment_method", "status", "sync_state"}).
			AddRow(42, "expense", now, "75", "cash", "completed", "local"))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.CreateExpense(context.Background(), admin, MoneyInput{
		Amount:        decimal.NewFromInt(75),
		PaymentMethod: models.PayCash,
		Category:      "rent",
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if out.ID != 42 {
		t.Errorf("ID = %d, want 42", out.ID)
	}
	if !out.Amount.Equal(decimal.NewFromInt(75)) {
		t.Errorf("Amount = %s, want 75", out.Amount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations not met: %v", err)
	}
}

func TestCreateSaleLocksInvoiceCounter(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	// The settings row is read with a row lock inside the transaction, so two
	// concurrent sales cannot mint the same invoice number.
	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "settings" (.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "next_invoice_number", "prevent_negative_stock"}).
			AddRow(1, 7, false))
	mock.ExpectQuery(`SELECT (.+) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "quantity", "cost_price", "sell_price"}).
			AddRow(1, "beans", "10", "20", "50"))
	mock.ExpectExec(`UPDATE "products"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "settings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(`INSERT INTO "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "amount", "invoice_number"}).
			AddRow(11, "sale", "100", "INV-000007"))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.CreateSale(context.Background(), admin, saleInput())
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if out.InvoiceNumber != "INV-000007" {
		t.Errorf("InvoiceNumber = %q, want INV-000007", out.InvoiceNumber)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations not met: %v", err)
	}
}

func TestCreateReturnRestoresStock(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	now := time.Now()

	// Original sale with two lines that left inventory; its return must put
	// back exactly those quantities.
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date", "amount", "payment_method", "status", "is_direct_sale"}).
			AddRow(7, "sale", now, "100", "cash", "completed", false))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "product_id", "quantity"}).
			AddRow(1, 7, 3, "2").
			AddRow(2, 7, 4, "5"))
	mock.ExpectQuery(`SELECT count(.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products"`).
		WithArgs(decimal.NewFromInt(2), sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "products"`).
		WithArgs(decimal.NewFromInt(5), sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "amount", "return_of_id"}).
			AddRow(8, "return", "100", 7))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.CreateReturn(context.Background(), admin, ReturnInput{OriginalID: 7})
	if err != nil {
		t.Fatalf("CreateReturn failed: %v", err)
	}
	if !out.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Amount = %s, want the full original 100", out.Amount)
	}
	if out.ReturnOfID == nil || *out.ReturnOfID != 7 {
		t.Errorf("ReturnOfID = %v, want 7", out.ReturnOfID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations not met: %v", err)
	}
}

func TestCreateReturnDirectSaleSkipsInventory(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	now := time.Now()

	// A direct sale never touched stock, so its return must not either. The
	// ordered expectations admit no product update between Begin and the
	// transaction insert.
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date", "amount", "payment_method", "status", "is_direct_sale"}).
			AddRow(7, "sale", now, "100", "cash", "completed", true))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "product_id", "quantity"}).
			AddRow(1, 7, 3, "2"))
	mock.ExpectQuery(`SELECT count(.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT (.+) FROM "shifts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "amount", "is_direct_sale"}).
			AddRow(9, "return", "100", true))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.CreateReturn(context.Background(), admin, ReturnInput{OriginalID: 7})
	if err != nil {
		t.Fatalf("CreateReturn failed: %v", err)
	}
	if !out.IsDirectSale {
		t.Error("the return should carry the original's direct-sale marker")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations not met: %v", err)
	}
}

func TestCreateReturnRejectsRepeat(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	now := time.Now()

	// A return already exists for the original: refuse before any write, or
	// money and stock would be reversed twice.
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date", "amount", "payment_method", "status", "is_direct_sale"}).
			AddRow(7, "sale", now, "100", "cash", "completed", false))
	mock.ExpectQuery(`SELECT (.+) FROM "transaction_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "product_id", "quantity"}).
			AddRow(1, 7, 3, "2"))
	mock.ExpectQuery(`SELECT count(.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.CreateReturn(context.Background(), admin, ReturnInput{OriginalID: 7})
	if !errors.Is(err, core.ErrAlreadyReturned) {
		t.Fatalf("err = %v, want ErrAlreadyReturned", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("repeat return must be refused before any write: %v", err)
	}
}

func TestCreateMoneyRejectsDeferred(t *testing.T) {
	svc, mock, done := mockService(t)
	defer done()

	_, err := svc.CreateExpense(context.Background(), admin, MoneyInput{
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: models.PayDeferred,
	})
	if err == nil {
		t.Fatal("deferred expense should be rejected")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("rejection must happen before any query: %v", err)
	}
}
