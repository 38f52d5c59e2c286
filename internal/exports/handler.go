package exports

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/logger"
)

const (
	dateLayout       = "2006-01-02"
	defaultRangeDays = 90

	msgInvalidRequest = "invalid request"
)

var salesHeader = []string{
	"lead_id", "first_name", "last_name", "email", "phone", "state", "origin",
	"agent_name", "agent_email", "order_id", "leg", "sold_at",
}

// Handler serves admin CSV exports of sold leads.
type Handler struct {
	repo Repository
	log  *logger.Logger
}

func NewHandler(repo Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// RegisterRoutes mounts the export routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sales", h.ExportSales)
}

// ExportSales streams a campaign's sold leads as a CSV attachment. The range
// is [fromDate, toDate]; toDate is inclusive by extending it one day.
func (h *Handler) ExportSales(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Query("campaignId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "campaignId must be a valid uuid")
		return
	}

	from, to, err := parseDateRange(c.Query("fromDate"), c.Query("toDate"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	sales, err := h.repo.ListSales(c.Request.Context(), campaignID, from, to)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	filename := "sales_" + from.Format(dateLayout) + "_" + to.AddDate(0, 0, -1).Format(dateLayout) + ".csv"
	writer := startCsvResponse(c, filename, salesHeader)
	defer writer.Flush()

	for _, row := range sales {
		record := []string{
			row.LeadID.String(),
			row.FirstName,
			row.LastName,
			row.Email,
			row.Phone,
			row.State,
			row.Origin,
			row.AgentName,
			row.AgentEmail,
			row.OrderID.String(),
			row.Leg,
			row.SoldAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			// Headers are already sent; all we can do is stop streaming.
			h.log.Error("failed to write csv row", "error", err, "leadId", row.LeadID)
			return
		}
	}
}

func startCsvResponse(c *gin.Context, filename string, header []string) *csv.Writer {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(header)
	return writer
}

// parseDateRange parses optional fromDate/toDate query values. An empty range
// defaults to the trailing window ending today; the returned upper bound is
// exclusive.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	to := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -defaultRangeDays)

	if toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("toDate")
		}
		to = parsed.AddDate(0, 0, 1)
		from = to.AddDate(0, 0, -defaultRangeDays)
	}
	if fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("fromDate")
		}
		from = parsed
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, errRange{}
	}

	return from, to, nil
}

type errRange struct{}

func (errRange) Error() string { return "fromDate must be before toDate" }

type errInvalidDate string

func (e errInvalidDate) Error() string { return string(e) + " must use the YYYY-MM-DD format" }
