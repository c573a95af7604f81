package handler

import (
	"strings"
	"time"

	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// reportFilter reads startDate, endDate (YYYY-MM-DD) and supplierId from the
// query string. Empty values, and supplierId "all", mean no filter.
func reportFilter(c *fiber.Ctx) (service.ReportFilter, error) {
	var filter service.ReportFilter
	fields := map[string]string{}

	parseDate := func(key string) time.Time {
		v := strings.TrimSpace(c.Query(key))
		if v == "" {
			return time.Time{}
		}
		t, err := time.Parse(service.DateLayout, v)
		if err != nil {
			fields[key] = "The " + key + " is not a valid date."
		}
		return t
	}
	filter.StartDate = parseDate("startDate")
	filter.EndDate = parseDate("endDate")

	if v := strings.TrimSpace(c.Query("supplierId")); v != "" && v != "all" {
		id, err := uuid.Parse(v)
		if err != nil {
			fields["supplierId"] = "The selected supplierId is invalid."
		} else {
			filter.SupplierID = &id
		}
	}

	if len(fields) > 0 {
		return filter, &service.ValidationError{Fields: fields}
	}
	return filter, nil
}

// GetReport returns financial metrics, daily movement and product performance
// GET /api/v1/reports?startDate=2024-01-01&endDate=2024-01-31&supplierId=<uuid>
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	filter, err := reportFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	report, err := h.reports.Generate(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ExportReport streams the same report as an Excel workbook
// GET /api/v1/reports/export
func (h *ReportHandler) ExportReport(c *fiber.Ctx) error {
	filter, err := reportFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	data, err := h.reports.Export(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	c.Attachment("inventory-report.xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}
