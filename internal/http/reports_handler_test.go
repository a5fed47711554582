package http_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitlog/internal/testsupport"
	"visitlog/internal/visits"
)

func TestVisitsIndex(t *testing.T) {
	a := newTestApp(t)
	for i := 0; i < 3; i++ {
		testsupport.InsertVisit(t, a.db, visits.Visit{
			VisitorID:  fmt.Sprintf("v%d", i),
			Timestamp:  fmt.Sprintf("2024-01-0%dT00:00:00Z", i+1),
			DeviceType: "Mobile",
			Path:       "/home",
		})
	}

	resp := a.get(t, "/api/analytics/visits")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []map[string]any
	decode(t, resp, &rows)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-03T00:00:00Z", rows[0]["timestamp"])
	assert.Equal(t, "Mobile", rows[0]["device"])
	assert.Equal(t, "/home", rows[0]["path"])
	assert.NotContains(t, rows[0], "user_agent")
	assert.NotContains(t, rows[0], "processed")
}

func TestStatsIndex(t *testing.T) {
	a := newTestApp(t)
	testsupport.InsertVisit(t, a.db, visits.Visit{VisitorID: "v1", Timestamp: "t1", DeviceType: "Mobile", Duration: 10})
	testsupport.InsertVisit(t, a.db, visits.Visit{VisitorID: "v2", Timestamp: "t2", DeviceType: "Desktop", Duration: 20})

	resp := a.get(t, "/api/stats")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats map[string]any
	decode(t, resp, &stats)
	assert.Equal(t, float64(2), stats["total_visits"])
	assert.Equal(t, float64(2), stats["unique_visitors"])
	assert.Equal(t, float64(15), stats["avg_duration"])
	assert.Equal(t, float64(1), stats["mobile_visits"])
	assert.Equal(t, float64(1), stats["desktop_visits"])
}

func TestStatsBreakdown(t *testing.T) {
	a := newTestApp(t)
	testsupport.InsertVisit(t, a.db, visits.Visit{VisitorID: "v1", Timestamp: "t1", DeviceType: "Mobile", Language: "fr", Country: "FR"})

	resp := a.get(t, "/api/stats/breakdown")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Devices   []map[string]any `json:"devices"`
		Languages []map[string]any `json:"languages"`
		Countries []map[string]any `json:"countries"`
		Referrers []map[string]any `json:"referrers"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Devices, 1)
	assert.Equal(t, "Mobile", body.Devices[0]["name"])
	require.Len(t, body.Languages, 1)
	assert.Equal(t, "French", body.Languages[0]["label"])
	require.Len(t, body.Countries, 1)
	assert.Equal(t, "France", body.Countries[0]["name"])
	assert.Equal(t, "FR", body.Countries[0]["code"])
	require.Len(t, body.Referrers, 1)
	assert.Equal(t, "Direct", body.Referrers[0]["name"])
}

func TestStatusIndex(t *testing.T) {
	a := newTestApp(t)
	testsupport.InsertVisit(t, a.db, visits.Visit{VisitorID: "v1", Timestamp: "t1"})

	resp := a.get(t, "/api/status")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["visitsCount"])
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "dbPath")
}

func TestBackupCreate(t *testing.T) {
	a := newFileTestApp(t)
	testsupport.InsertVisit(t, a.db, visits.Visit{VisitorID: "v1", Timestamp: "t1"})

	resp := a.get(t, "/api/backup")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, true, body["success"])

	backupPath, _ := body["backupPath"].(string)
	assert.True(t, strings.HasPrefix(filepath.Base(backupPath), "analytics-backup-"))
	assert.Equal(t, filepath.Dir(a.cfg.DatabaseName), filepath.Dir(backupPath))
	_, err := os.Stat(backupPath)
	assert.NoError(t, err)
}

func TestBackupCreateFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	a := newFileTestApp(t)
	require.NoError(t, os.Chmod(filepath.Dir(a.cfg.DatabaseName), 0o500))
	t.Cleanup(func() { os.Chmod(filepath.Dir(a.cfg.DatabaseName), 0o755) })

	resp := a.get(t, "/api/backup")
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "Backup failed", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestTestDB(t *testing.T) {
	a := newTestApp(t)

	resp := a.get(t, "/api/test-db")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "connected", body["status"])
	assert.NotEmpty(t, body["version"])
	assert.Contains(t, body["tables"], "visits")
}

func TestHealthIndex(t *testing.T) {
	a := newTestApp(t)

	resp := a.get(t, "/health")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestPages(t *testing.T) {
	a := newTestApp(t)

	for path, marker := range map[string]string{
		"/":          "Analytics Server",
		"/dashboard": "Analytics Dashboard",
	} {
		resp := a.get(t, path)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), marker)
	}
}

func TestMetricsIndex(t *testing.T) {
	a := newTestApp(t)
	a.postJSON(t, "/api/track", map[string]any{"visitor_id": "v1", "timestamp": "t1"})

	resp := a.get(t, "/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "visitlog_visits_inserted_total")
}
