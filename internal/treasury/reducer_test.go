package treasury

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

func TestComputeBalanceBasicFlow(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxSale, "500", models.PayCash),
		tx(models.TxSale, "300", models.PayWallet),
		tx(models.TxCapital, "1000", models.PayCash),
		tx(models.TxPurchase, "400", models.PayCash),
		tx(models.TxExpense, "100", models.PayCash),
		tx(models.TxWithdrawal, "50", models.PayCash),
	}

	sum := ComputeBalance(txs, nil, dec("200"))
	checkDec(t, "Balance", sum.Balance, dec("1450"))
	checkDec(t, "TotalIncome", sum.TotalIncome, dec("1800"))
	checkDec(t, "TotalExpenses", sum.TotalExpenses, dec("550"))
	checkDec(t, "NetFlow", sum.NetFlow, dec("1250"))
}

func TestComputeBalanceSkipsDeferred(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxSale, "500", models.PayCash),
		tx(models.TxSale, "900", models.PayDeferred),
		tx(models.TxPurchase, "700", models.PayDeferred),
	}

	sum := ComputeBalance(txs, nil, decimal.Zero)
	checkDec(t, "Balance", sum.Balance, dec("500"))
	checkDec(t, "TotalIncome", sum.TotalIncome, dec("500"))
	checkDec(t, "TotalExpenses", sum.TotalExpenses, decimal.Zero)
}

func TestComputeBalanceSkipsPendingAndRejected(t *testing.T) {
	pending := tx(models.TxSale, "500", models.PayCash)
	pending.Status = models.TxPending
	rejected := tx(models.TxExpense, "200", models.PayCash)
	rejected.Status = models.TxRejected

	sum := ComputeBalance([]models.Transaction{
		pending,
		rejected,
		tx(models.TxSale, "100", models.PayCash),
	}, nil, decimal.Zero)
	checkDec(t, "Balance", sum.Balance, dec("100"))
}

func TestComputeBalanceReturnDirection(t *testing.T) {
	customers := map[uint]struct{}{7: {}}

	toCustomer := tx(models.TxReturn, "150", models.PayCash)
	toCustomer.CounterpartyType = models.CounterpartyCustomer

	fromSupplier := tx(models.TxReturn, "80", models.PayCash)
	fromSupplier.CounterpartyType = models.CounterpartySupplier

	sum := ComputeBalance([]models.Transaction{toCustomer, fromSupplier}, customers, dec("1000"))
	checkDec(t, "Balance", sum.Balance, dec("930"))
	checkDec(t, "TotalIncome", sum.TotalIncome, dec("80"))
	checkDec(t, "TotalExpenses", sum.TotalExpenses, dec("150"))
}

func TestComputeBalanceLegacyReturnFallback(t *testing.T) {
	customers := map[uint]struct{}{7: {}}
	customerID := uint(7)
	supplierID := uint(9)

	legacyCustomer := tx(models.TxReturn, "100", models.PayCash)
	legacyCustomer.RelatedID = &customerID

	legacySupplier := tx(models.TxReturn, "40", models.PayCash)
	legacySupplier.RelatedID = &supplierID

	if !IsCustomerReturn(legacyCustomer, customers) {
		t.Error("untagged return to a known customer id should classify as customer return")
	}
	if IsCustomerReturn(legacySupplier, customers) {
		t.Error("untagged return to an unknown id should classify as supplier return")
	}

	// Explicit tag wins over the id lookup.
	tagged := legacyCustomer
	tagged.CounterpartyType = models.CounterpartySupplier
	if IsCustomerReturn(tagged, customers) {
		t.Error("explicit supplier tag must override the customer-id fallback")
	}
}

func TestComputeBalanceIgnoresMarkersAndAdjustments(t *testing.T) {
	sum := ComputeBalance([]models.Transaction{
		tx(models.TxShiftOpen, "0", models.PayCash),
		tx(models.TxShiftClose, "0", models.PayCash),
		tx(models.TxAdjustment, "0", models.PayCash),
	}, nil, dec("333"))
	checkDec(t, "Balance", sum.Balance, dec("333"))
	checkDec(t, "NetFlow", sum.NetFlow, decimal.Zero)
}

func TestComputeBalancePure(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TxSale, "500", models.PayCash),
		tx(models.TxExpense, "120", models.PayCash),
	}

	first := ComputeBalance(txs, nil, decimal.Zero)
	second := ComputeBalance(txs, nil, decimal.Zero)
	checkDec(t, "second Balance", second.Balance, first.Balance)

	if !txs[0].Amount.Equal(dec("500")) {
		t.Error("reducer must not mutate its input slice")
	}
}
