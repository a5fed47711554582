package internal

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitlog/internal/config"
	"visitlog/internal/visits"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VISITLOG_ENV", config.Test)
	t.Setenv("VISITLOG_STORAGE_PATH", dir)
	t.Setenv("VISITLOG_LOGS_DIR", filepath.Join(dir, "logs"))
	t.Setenv("VISITLOG_GEO_DB_PATH", filepath.Join(dir, "GeoLite2-Country.mmdb"))
	config.Reset()
	t.Cleanup(config.Reset)

	app, err := NewAppWithConfig(config.GetConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.Geo.Close()
		app.DBManager.Close()
	})
	require.NoError(t, app.DBManager.MigrateDatabase())
	return app
}

func TestApplicationAcceptsBeaconsFromAnySite(t *testing.T) {
	app := newTestApplication(t)

	for i, site := range []string{"", "cross-site", "same-site", "same-origin", "none"} {
		req := httptest.NewRequest(fiber.MethodPost, "/api/track",
			strings.NewReader(`{"visitor_id":"v1","timestamp":"2024-01-01T00:00:00Z"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if site != "" {
			req.Header.Set("Sec-Fetch-Site", site)
		}

		resp, err := app.Server.App().Test(req, 30000)
		require.NoError(t, err)
		assert.Equalf(t, fiber.StatusOK, resp.StatusCode, "Sec-Fetch-Site %q", site)
		resp.Body.Close()

		count, err := app.Services.Reports.GetStatus(req.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), count.VisitsCount)
	}
}

func TestApplicationWiresGeoLookupWithoutDatabase(t *testing.T) {
	app := newTestApplication(t)
	assert.False(t, app.Geo.Enabled())

	result, err := app.Services.Visits.Ingest(t.Context(), visits.Payload{
		"visitor_id": "v1",
		"timestamp":  "2024-01-01T00:00:00Z",
	}, visits.RequestContext{RemoteAddr: "203.0.113.7:1234"})
	require.NoError(t, err)

	var row visits.Visit
	require.NoError(t, app.DBManager.GetConnection().First(&row, result.ID).Error)
	assert.Empty(t, row.Country)
	assert.Equal(t, "203.0.113.7", row.IPAddress)
}
