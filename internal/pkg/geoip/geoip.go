package geoip

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Locator resolves IP addresses to ISO country codes from a GeoLite2 database.
// A nil or disabled Locator answers "" for every lookup.
type Locator struct {
	mu     sync.RWMutex
	path   string
	reader *geoip2.Reader
	logger *slog.Logger
}

// Open loads the database at path. GeoIP is optional: an empty path or a
// missing file yields a disabled Locator, never an error.
func Open(path string, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Locator{path: path, logger: logger}
	l.reader = l.load()
	return l
}

func (l *Locator) load() *geoip2.Reader {
	if l.path == "" {
		l.logger.Debug("GeoIP database path not configured - country enrichment disabled")
		return nil
	}

	fileInfo, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		l.logger.Info("GeoLite2 database not found - country enrichment disabled",
			slog.String("path", l.path),
			slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		return nil
	} else if err != nil {
		l.logger.Warn("Error checking GeoLite2 database file",
			slog.String("path", l.path),
			slog.Any("error", err))
		return nil
	}

	reader, err := geoip2.Open(l.path)
	if err != nil {
		l.logger.Error("Failed to open GeoLite2 database",
			slog.String("path", l.path),
			slog.Any("error", err))
		return nil
	}

	l.logger.Info("GeoLite2 database initialized",
		slog.String("path", l.path),
		slog.Int64("size_bytes", fileInfo.Size()))
	return reader
}

// Enabled reports whether lookups can return data.
func (l *Locator) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reader != nil
}

// Country returns the ISO 3166-1 alpha-2 code for ip, or "" when unknown.
func (l *Locator) Country(ip string) string {
	if l == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.reader == nil {
		return ""
	}

	record, err := l.reader.Country(parsed)
	if err != nil {
		l.logger.Debug("GeoIP lookup failed", slog.String("ip", ip), slog.Any("error", err))
		return ""
	}
	return record.Country.IsoCode
}

// Reload reopens the database from disk, e.g. after it was replaced.
func (l *Locator) Reload() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reader != nil {
		l.reader.Close()
	}
	l.reader = l.load()
}

// Close releases the database.
func (l *Locator) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reader == nil {
		return nil
	}
	err := l.reader.Close()
	l.reader = nil
	return err
}
