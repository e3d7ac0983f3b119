package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/api/items", 200, time.Millisecond)
	m.Transfer("ok", 3)
	m.ImportRows("items", 1, 2, 3)
	m.Complaint("high")
	m.Notification("complaint_high", nil)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersExposed(t *testing.T) {
	m := New()
	m.Transfer("ok", 5)
	m.Transfer("insufficient_stock", 9)
	m.ImportRows("items", 2, 1, 1)
	m.ObserveRequest("POST", "POST /api/transfers", 201, 10*time.Millisecond)
	m.Notification("complaint_high", nil)
	m.Notification("complaint_high", errors.New("timeout"))
	m.Notification("complaint_high", errors.New("refused"))

	body := scrape(t, m)
	assert.Contains(t, body, "labstock_transferred_units_total 5\n")
	assert.Contains(t, body, `labstock_transfers_total{outcome="insufficient_stock"} 1`)
	assert.Contains(t, body, `labstock_import_rows_total{kind="items",result="created"} 2`)
	assert.Contains(t, body, `route="POST /api/transfers"`)
	assert.Contains(t, body, `labstock_notifications_total{kind="complaint_high",result="sent"} 1`)
	assert.Contains(t, body, `labstock_notifications_total{kind="complaint_high",result="failed"} 2`)
	assert.Contains(t, body, "go_goroutines")
}
