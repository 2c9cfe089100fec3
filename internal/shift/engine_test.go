package shift

import (
	"testing"

	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tx(txType models.TransactionType, amount string, method models.PaymentMethod) models.Transaction {
	return models.Transaction{
		Type:          txType,
		Amount:        dec(amount),
		PaymentMethod: method,
		Status:        models.TxCompleted,
	}
}

func checkDec(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestReconcileDrawerArithmetic(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxSale, "500", models.PayCash),
		tx(models.TxSale, "300", models.PayWallet),
		tx(models.TxExpense, "100", models.PayCash),
	}

	rec := Reconcile(dec("1000"), txs, nil)
	checkDec(t, "CashMovement", rec.CashMovement, dec("400"))
	checkDec(t, "ExpectedCash", rec.ExpectedCash, dec("1400"))
	checkDec(t, "SalesTotal", rec.SalesTotal, dec("800"))
	checkDec(t, "SalesByMethod[cash]", rec.SalesByMethod[models.PayCash], dec("500"))
	checkDec(t, "SalesByMethod[wallet]", rec.SalesByMethod[models.PayWallet], dec("300"))
	checkDec(t, "SalesByMethod[instapay]", rec.SalesByMethod[models.PayInstapay], decimal.Zero)
	checkDec(t, "SalesByMethod[deferred]", rec.SalesByMethod[models.PayDeferred], decimal.Zero)
}

func TestReconcileNonCashNeverMovesDrawer(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxSale, "250", models.PayInstapay),
		tx(models.TxExpense, "90", models.PayWallet),
		tx(models.TxPurchase, "60", models.PayInstapay),
		tx(models.TxSale, "400", models.PayDeferred),
	}

	rec := Reconcile(dec("500"), txs, nil)
	checkDec(t, "CashMovement", rec.CashMovement, decimal.Zero)
	checkDec(t, "ExpectedCash", rec.ExpectedCash, dec("500"))
	// Every method still counts toward the sales totals.
	checkDec(t, "SalesTotal", rec.SalesTotal, dec("650"))
	checkDec(t, "SalesByMethod[deferred]", rec.SalesByMethod[models.PayDeferred], dec("400"))
}

func TestReconcileReturnDirection(t *testing.T) {
	customers := map[uint]struct{}{3: {}}

	refund := tx(models.TxReturn, "120", models.PayCash)
	refund.CounterpartyType = models.CounterpartyCustomer

	supplierRefund := tx(models.TxReturn, "70", models.PayCash)
	supplierRefund.CounterpartyType = models.CounterpartySupplier

	rec := Reconcile(dec("1000"), []models.Transaction{refund, supplierRefund}, customers)
	checkDec(t, "CashMovement", rec.CashMovement, dec("-50"))
	checkDec(t, "ExpectedCash", rec.ExpectedCash, dec("950"))
	checkDec(t, "SalesTotal", rec.SalesTotal, decimal.Zero)
}

func TestReconcileCapitalAndWithdrawal(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxCapital, "2000", models.PayCash),
		tx(models.TxWithdrawal, "500", models.PayCash),
		tx(models.TxCapital, "900", models.PayWallet), // not in the drawer
	}

	rec := Reconcile(decimal.Zero, txs, nil)
	checkDec(t, "CashMovement", rec.CashMovement, dec("1500"))
}

func TestReconcileIgnoresMarkers(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxShiftOpen, "0", models.PayCash),
		tx(models.TxAdjustment, "0", models.PayCash),
		tx(models.TxShiftClose, "0", models.PayCash),
	}

	rec := Reconcile(dec("777"), txs, nil)
	checkDec(t, "ExpectedCash", rec.ExpectedCash, dec("777"))
	checkDec(t, "CashMovement", rec.CashMovement, decimal.Zero)
}
