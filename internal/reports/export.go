package reports

import (
	"fmt"

	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/xuri/excelize/v2"
)

func buildLedgerWorkbook(txs []models.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"ID", "Type", "Date", "Amount", "Payment Method", "Status", "Invoice", "Shift", "Description"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, t := range txs {
		shiftID := ""
		if t.ShiftID != nil {
			shiftID = fmt.Sprintf("%d", *t.ShiftID)
		}
		values := []any{
			t.ID,
			string(t.Type),
			t.Date.Format("2006-01-02 15:04:05"),
			t.Amount.StringFixed(2),
			string(t.PaymentMethod),
			string(t.Status),
			t.InvoiceNumber,
			shiftID,
			t.Description,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
