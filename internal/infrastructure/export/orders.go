package export

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/SivanLevi100/storefront/internal/domain/order"
)

const (
	OrdersSheet = "Orders"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var orderHeaders = []string{"ID", "Number", "User", "Status", "Items", "Total", "Date"}

// WriteOrders renders orders as a single-sheet workbook.
func WriteOrders(w io.Writer, orders []order.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(OrdersSheet)
	if err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range orderHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetInt64(o.ID)
		row.AddCell().SetString(o.Number)
		row.AddCell().SetInt64(o.UserID)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetInt(o.TotalItems)
		row.AddCell().SetString(o.TotalAmount.StringFixed(2))
		row.AddCell().SetString(o.OrderDate.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
