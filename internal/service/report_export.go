package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	movementSheet = "Daily Movement"
	productSheet  = "Products"
)

// Export renders the same report Generate returns as an XLSX workbook.
func (s *reportService) Export(ctx context.Context, filter ReportFilter) ([]byte, error) {
	report, err := s.Generate(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(movementSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(productSheet); err != nil {
		return nil, err
	}

	supplier := "All suppliers"
	if report.Filters.SupplierID != nil {
		for _, sp := range report.Suppliers {
			if sp.ID == *report.Filters.SupplierID {
				supplier = sp.Name
			}
		}
	}

	summary := [][]interface{}{
		{"Start date", report.Filters.StartDate},
		{"End date", report.Filters.EndDate},
		{"Supplier", supplier},
		{},
		{"Total sales", money(report.Metrics.TotalSales)},
		{"Cost of goods sold", money(report.Metrics.TotalOutboundCost)},
		{"Total inbound", money(report.Metrics.TotalInbound)},
		{"Profit margin (%)", money(report.Metrics.ProfitMargin)},
		{"Low stock products", report.Metrics.LowStock},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}

	movement := [][]interface{}{{"Date", "Inbound", "Outbound"}}
	for _, p := range report.ChartData {
		movement = append(movement, []interface{}{p.Date, p.Inbound, p.Outbound})
	}
	if err := writeRows(f, movementSheet, movement); err != nil {
		return nil, err
	}

	products := [][]interface{}{{"Name", "SKU", "Quantity", "Units sold", "Revenue", "Stock level"}}
	for _, p := range report.Products {
		products = append(products, []interface{}{p.Name, p.SKU, p.Quantity, p.UnitsSold, money(p.Revenue), p.StockLevel})
	}
	if err := writeRows(f, productSheet, products); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}
