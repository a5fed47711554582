package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"visitlog/internal"
	"visitlog/internal/config"
	"visitlog/internal/testsupport"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func testConfig(t *testing.T, dbPath string) *config.Config {
	t.Helper()
	t.Setenv("VISITLOG_ENV", config.Test)
	t.Setenv("VISITLOG_STORAGE_PATH", t.TempDir())
	config.Reset()
	t.Cleanup(config.Reset)

	cfg := config.GetConfig()
	if dbPath != "" {
		cfg.DatabaseName = dbPath
	}
	return cfg
}

func buildApp(t *testing.T, db *gorm.DB, cfg *config.Config) *testApp {
	t.Helper()

	logger := testsupport.GetLogger()
	services := internal.NewServices(cfg, db, logger, nil, time.Now())

	serverCfg := internal.NewServerConfig()
	serverCfg.Config = cfg
	serverCfg.Logger = logger
	serverCfg.DBManager = testsupport.NewTestDBManager(db)
	serverCfg.StaticDirectory = t.TempDir()
	serverCfg.TemplatesDirectory = serverCfg.StaticDirectory

	srv, err := cartridge.NewServer(serverCfg)
	require.NoError(t, err)

	internal.MountRoutes(srv, cfg, services)
	return &testApp{app: srv.App(), db: db, cfg: cfg}
}

// newTestApp mounts every route over an in-memory database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig(t, "")
	return buildApp(t, testsupport.SetupTestDB(t), cfg)
}

// newFileTestApp mounts every route over a file-backed database.
func newFileTestApp(t *testing.T) *testApp {
	t.Helper()
	db, path := testsupport.SetupFileDB(t)
	cfg := testConfig(t, path)
	return buildApp(t, db, cfg)
}

func (a *testApp) do(t *testing.T, req *nethttp.Request) *nethttp.Response {
	t.Helper()
	resp, err := a.app.Test(req, 30000)
	require.NoError(t, err)
	return resp
}

func (a *testApp) postJSON(t *testing.T, path string, body any) *nethttp.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(fiber.MethodPost, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return a.do(t, req)
}

func (a *testApp) get(t *testing.T, path string) *nethttp.Response {
	t.Helper()
	return a.do(t, httptest.NewRequest(fiber.MethodGet, path, nil))
}

func decode(t *testing.T, resp *nethttp.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
