package clientip

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		want         string
	}{
		{"first forwarded entry", "203.0.113.7, 10.0.0.1", "198.51.100.2", "192.0.2.1:5555", "203.0.113.7"},
		{"forwarded entry is trimmed", "  203.0.113.9  ", "", "", "203.0.113.9"},
		{"private forwarded address is kept", "10.1.2.3", "", "", "10.1.2.3"},
		{"real ip when no forwarded header", "", "198.51.100.2", "192.0.2.1:5555", "198.51.100.2"},
		{"remote address without port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote address without port", "", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"remote address without port already", "", "", "192.0.2.1", "192.0.2.1"},
		{"blank forwarded entry falls through", " , 203.0.113.7", "198.51.100.2", "", "198.51.100.2"},
		{"nothing known", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.forwardedFor, tt.realIP, tt.remoteAddr))
		})
	}
}

func TestFromFiber(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(FromFiber(c))
	})

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "203.0.113.50", string(body))

	req = httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("X-Real-IP", "198.51.100.23")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "198.51.100.23", string(body))

	req = httptest.NewRequest("GET", "/ip", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.NotEmpty(t, string(body))
}
