package treasury

import (
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/shopspring/decimal"
)

// Summary is the result of folding the ledger into a running balance.
type Summary struct {
	Balance       decimal.Decimal `json:"balance"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetFlow       decimal.Decimal `json:"net_flow"`
}

// ReturnDirection classifies a return transaction. An explicit counterparty
// tag wins; rows created before the tag existed fall back to the customer-id
// lookup (a colliding customer/supplier id can misclassify those legacy rows).
func IsCustomerReturn(t models.Transaction, customerIDs map[uint]struct{}) bool {
	switch t.CounterpartyType {
	case models.CounterpartyCustomer:
		return true
	case models.CounterpartySupplier:
		return false
	}
	if t.RelatedID == nil {
		return false
	}
	_, ok := customerIDs[*t.RelatedID]
	return ok
}

// ComputeBalance folds the ledger into balance/income/expense totals starting
// from the opening balance. Pure: never mutates its inputs, order-independent,
// safe to re-run on any snapshot (including mid-sync ones).
//
// Deferred transactions never touch cash, and only completed transactions
// count. Sales and capital injections are income; purchases, expenses and
// withdrawals are outflow. Returns flip direction by counterparty: money goes
// back to a customer, or comes back from a supplier. Adjustments and shift
// markers are zero-amount ledger noise.
func ComputeBalance(txs []models.Transaction, customerIDs map[uint]struct{}, opening decimal.Decimal) Summary {
	balance := opening
	income := decimal.Zero
	expenses := decimal.Zero

	for _, t := range txs {
		if t.PaymentMethod == models.PayDeferred {
			continue
		}
		if t.Status == models.TxPending || t.Status == models.TxRejected {
			continue
		}

		switch t.Type {
		case models.TxSale, models.TxCapital:
			balance = balance.Add(t.Amount)
			income = income.Add(t.Amount)
		case models.TxPurchase, models.TxExpense, models.TxWithdrawal:
			balance = balance.Sub(t.Amount)
			expenses = expenses.Add(t.Amount)
		case models.TxReturn:
			if IsCustomerReturn(t, customerIDs) {
				balance = balance.Sub(t.Amount)
				expenses = expenses.Add(t.Amount)
			} else {
				balance = balance.Add(t.Amount)
				income = income.Add(t.Amount)
			}
		}
		// adjustment / shift_open / shift_close contribute nothing
	}

	return Summary{
		Balance:       balance,
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetFlow:       income.Sub(expenses),
	}
}

// CustomerIDSet builds the lookup set the reducer needs for legacy returns.
func CustomerIDSet(customers []models.Customer) map[uint]struct{} {
	set := make(map[uint]struct{}, len(customers))
	for _, c := range customers {
		set[c.ID] = struct{}{}
	}
	return set
}
