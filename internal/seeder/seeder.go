// Package seeder fills the visits table with plausible traffic for local testing.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"visitlog/internal/visits"
)

var (
	paths = []string{"/", "/pricing", "/blog", "/blog/launch", "/docs", "/docs/install", "/contact", "/about"}

	referrers = []string{"", "", "https://www.google.com/", "https://news.ycombinator.com/", "https://twitter.com/", "https://github.com/"}

	acceptLanguages = []string{"en-US,en;q=0.9", "en-GB,en;q=0.8", "de-DE,de;q=0.9", "fr-FR,fr;q=0.9", "es-ES,es;q=0.9", "ja-JP", ""}

	screens = [][2]int{{1920, 1080}, {1440, 900}, {1366, 768}, {390, 844}, {412, 915}, {820, 1180}}
)

// Seeder generates visitors and replays their beacons through the ingestion service.
type Seeder struct {
	Visits        *visits.Service
	Logger        *slog.Logger
	Visitors      int
	// MaxPageViews bounds the page views generated per visitor.
	MaxPageViews  int
	// DurationRatio is the share of visitors that send a session_duration beacon.
	DurationRatio float64

	faker *gofakeit.Faker
}

// Summary reports what a run produced.
type Summary struct {
	Visitors        int
	PageViews       int
	DurationUpdates int
}

// NewSeeder creates a seeder. A zero seed draws a random one.
func NewSeeder(svc *visits.Service, logger *slog.Logger, visitors int, seed int64) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		Visits:        svc,
		Logger:        logger,
		Visitors:      visitors,
		MaxPageViews:  5,
		DurationRatio: 0.6,
		faker:         gofakeit.New(seed),
	}
}

// Run generates every visitor in turn and stops early when ctx is cancelled.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	s.Logger.Info("Seeding visits...", slog.Int("visitors", s.Visitors), slog.Int("max_page_views", s.MaxPageViews))

	var summary Summary
	for i := 0; i < s.Visitors; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		views, updated, err := s.seedVisitor(ctx)
		if err != nil {
			return summary, fmt.Errorf("seed visitor %d: %w", i, err)
		}
		summary.Visitors++
		summary.PageViews += views
		if updated {
			summary.DurationUpdates++
		}
	}

	s.Logger.Info("Seeding completed",
		slog.Int("visitors", summary.Visitors),
		slog.Int("page_views", summary.PageViews),
		slog.Int("duration_updates", summary.DurationUpdates),
		slog.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (s *Seeder) seedVisitor(ctx context.Context) (int, bool, error) {
	f := s.faker
	visitorID := f.UUID()
	userAgent := f.UserAgent()
	screen := screens[f.Number(0, len(screens)-1)]
	rc := visits.RequestContext{
		AcceptLanguage: acceptLanguages[f.Number(0, len(acceptLanguages)-1)],
		RemoteAddr:     f.IPv4Address(),
	}

	maxViews := s.MaxPageViews
	if maxViews < 1 {
		maxViews = 1
	}
	views := f.Number(1, maxViews)
	at := f.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
	referrer := f.RandomString(referrers)

	for v := 0; v < views; v++ {
		path := f.RandomString(paths)
		payload := visits.Payload{
			"visitor_id":    visitorID,
			"timestamp":     at.UTC().Format(time.RFC3339),
			"url":           (&url.URL{Scheme: "https", Host: "example.com", Path: path}).String(),
			"path":          path,
			"referrer":      referrer,
			"user_agent":    userAgent,
			"screen_width":  screen[0],
			"screen_height": screen[1],
		}
		if _, err := s.Visits.Ingest(ctx, payload, rc); err != nil {
			return v, false, err
		}
		// Later pages in the same session are internal navigation.
		referrer = "https://example.com" + path
		at = at.Add(time.Duration(f.Number(10, 120)) * time.Second)
	}

	if f.Float64Range(0, 1) >= s.DurationRatio {
		return views, false, nil
	}
	result, err := s.Visits.Ingest(ctx, visits.Payload{
		"visitor_id": visitorID,
		"timestamp":  at.UTC().Format(time.RFC3339),
		"event_type": visits.EventTypeSessionDuration,
		"duration":   f.Number(5, 900),
	}, rc)
	if err != nil {
		return views, false, err
	}
	return views, result.Updated, nil
}
