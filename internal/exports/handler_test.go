package exports

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadmarket_backend/platform/logger"
)

type fakeRepository struct {
	sales []SaleRow
	from  time.Time
	to    time.Time
}

func (f *fakeRepository) ListSales(_ context.Context, _ uuid.UUID, from, to time.Time) ([]SaleRow, error) {
	f.from = from
	f.to = to
	return f.sales, nil
}

func newTestRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHandler(repo, logger.New("test"))
	handler.RegisterRoutes(engine.Group("/exports"))
	return engine
}

func TestExportSalesStreamsCsv(t *testing.T) {
	leadID := uuid.New()
	orderID := uuid.New()
	soldAt := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	repo := &fakeRepository{sales: []SaleRow{{
		LeadID:     leadID,
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@example.com",
		Phone:      "+15551234567",
		State:      "TX",
		Origin:     "facebook",
		AgentName:  "Acme Roofing",
		AgentEmail: "sales@acme.test",
		OrderID:    orderID,
		Leg:        "second_chance",
		SoldAt:     soldAt,
	}}}

	router := newTestRouter(repo)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/exports/sales?campaignId="+uuid.NewString()+"&fromDate=2026-02-01&toDate=2026-02-28", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "sales_2026-02-01_2026-02-28.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d records", len(records))
	}
	if records[0][0] != "lead_id" || records[0][11] != "sold_at" {
		t.Fatalf("unexpected header row %v", records[0])
	}

	row := records[1]
	if row[0] != leadID.String() {
		t.Fatalf("expected lead id %s, got %s", leadID, row[0])
	}
	if row[7] != "Acme Roofing" {
		t.Fatalf("expected agent name Acme Roofing, got %s", row[7])
	}
	if row[10] != "second_chance" {
		t.Fatalf("expected second_chance leg, got %s", row[10])
	}
	if row[11] != "2026-02-10T14:30:00Z" {
		t.Fatalf("unexpected sold_at %s", row[11])
	}
}

func TestExportSalesQueriesExclusiveUpperBound(t *testing.T) {
	repo := &fakeRepository{}

	router := newTestRouter(repo)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/exports/sales?campaignId="+uuid.NewString()+"&fromDate=2026-02-01&toDate=2026-02-28", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	wantFrom := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !repo.from.Equal(wantFrom) {
		t.Fatalf("expected from %v, got %v", wantFrom, repo.from)
	}
	if !repo.to.Equal(wantTo) {
		t.Fatalf("expected to %v, got %v", wantTo, repo.to)
	}
}

func TestExportSalesRejectsBadInput(t *testing.T) {
	router := newTestRouter(&fakeRepository{})

	cases := []struct {
		name string
		url  string
	}{
		{"missing campaign id", "/exports/sales"},
		{"malformed campaign id", "/exports/sales?campaignId=not-a-uuid"},
		{"malformed date", "/exports/sales?campaignId=" + uuid.NewString() + "&fromDate=02/01/2026"},
		{"inverted range", "/exports/sales?campaignId=" + uuid.NewString() + "&fromDate=2026-03-01&toDate=2026-02-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestParseDateRangeDefaultsToTrailingWindow(t *testing.T) {
	from, to, err := parseDateRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := to.Sub(from); got != defaultRangeDays*24*time.Hour {
		t.Fatalf("expected %d day window, got %v", defaultRangeDays, got)
	}
}
