// Package clientip derives the address a beacon came from.
package clientip

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Resolve picks, in order: the first X-Forwarded-For entry, X-Real-IP,
// then the remote address of the connection without its port.
func Resolve(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP = strings.TrimSpace(realIP); realIP != "" {
		return realIP
	}

	return stripPort(remoteAddr)
}

// RemoteAddr returns the connection's remote address of a Fiber request.
func RemoteAddr(c *fiber.Ctx) string {
	if addr := c.Context().RemoteAddr(); addr != nil {
		if s := addr.String(); s != "" {
			return s
		}
	}
	return c.IP()
}

// FromFiber resolves the client address of a Fiber request.
func FromFiber(c *fiber.Ctx) string {
	return Resolve(c.Get(fiber.HeaderXForwardedFor), c.Get("X-Real-IP"), RemoteAddr(c))
}

func stripPort(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
