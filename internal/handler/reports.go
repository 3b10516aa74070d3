package handler

import (
	"net/http"
	"strconv"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	svc service.ReportService
	loc *time.Location
	now func() time.Time
}

// NewReportsHandler needs loc to pick the default year when none is given.
func NewReportsHandler(svc service.ReportService, loc *time.Location) *ReportsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportsHandler{svc: svc, loc: loc, now: time.Now}
}

// Daily godoc
// @Summary      Daily totals for a year
// @Description  One row per calendar date with at least one sale, newest first.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year query int false "Year (default current)"
// @Success      200  {array} dto.DailyTotal
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/reports/daily [get]
func (h *ReportsHandler) Daily(c *gin.Context) {
	year, ok := queryInt(c, "year", h.now().In(h.loc).Year())
	if !ok {
		return
	}
	resp, err := h.svc.DailyTotals(c.Request.Context(), ownerID(c), year)
	if err != nil {
		apierror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// OnDate godoc
// @Summary      Sales of one date
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        date path string true "YYYY-MM-DD"
// @Success      200  {array} dto.SaleRow
// @Router       /v1/reports/daily/{date} [get]
func (h *ReportsHandler) OnDate(c *gin.Context) {
	resp, err := h.svc.SalesOnDate(c.Request.Context(), ownerID(c), c.Param("date"))
	if err != nil {
		apierror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary      Daily report as PDF
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        date path string true "YYYY-MM-DD"
// @Success      200
// @Router       /v1/reports/daily/{date}/pdf [get]
func (h *ReportsHandler) PDF(c *gin.Context) {
	date := c.Param("date")
	content, err := h.svc.DailyReportPDF(c.Request.Context(), ownerID(c), date)
	if err != nil {
		apierror.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="sales_`+date+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", content)
}

// Email godoc
// @Summary      Mail the daily report
// @Description  Queues a job that renders the PDF and mails it.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        date path string true "YYYY-MM-DD"
// @Param        body body dto.EmailReportRequest true "Recipient"
// @Success      202  {object} dto.EmailReportResponse
// @Router       /v1/reports/daily/{date}/email [post]
func (h *ReportsHandler) Email(c *gin.Context) {
	var req dto.EmailReportRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.EmailDailyReport(c.Request.Context(), ownerID(c), c.Param("date"), req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *ReportsHandler) Yearly(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		apierror.Respond(c, apierror.Invalid("year", "must be a number"))
		return
	}
	resp, err := h.svc.YearSummary(c.Request.Context(), ownerID(c), year)
	if err != nil {
		apierror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
