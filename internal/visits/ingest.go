package visits

import (
	"context"
	"log/slog"

	"visitlog/internal/metrics"
	"visitlog/internal/pkg/clientip"
	"visitlog/internal/pkg/device"
	"visitlog/internal/pkg/locale"
)

// CountryLookup maps an IP address to an ISO country code, "" when unknown.
type CountryLookup interface {
	Country(ip string) string
}

// RequestContext is what the transport knows about a beacon's request.
type RequestContext struct {
	AcceptLanguage string
	ForwardedFor   string
	RealIP         string
	RemoteAddr     string
}

// Result is the outcome of one ingested beacon: either a new row (ID) or a
// duration update (DurationUpdate with Updated telling whether a row matched).
type Result struct {
	ID             uint
	DurationUpdate bool
	Updated        bool
}

// Service runs ingestion and duration reconciliation against a Store.
type Service struct {
	store     Store
	logger    *slog.Logger
	countries CountryLookup
}

// Option configures a Service.
type Option func(*Service)

// WithCountryLookup enables country enrichment.
func WithCountryLookup(lookup CountryLookup) Option {
	return func(s *Service) {
		s.countries = lookup
	}
}

// NewService returns a Service writing to store.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage gateway.
func (s *Service) Store() Store {
	return s.store
}

// Ingest validates and normalises a beacon, then either inserts a visit or,
// for session_duration events, updates the latest page view of the visitor.
func (s *Service) Ingest(ctx context.Context, payload Payload, rc RequestContext) (Result, error) {
	visitorID := payload.String("visitor_id")
	timestamp := payload.String("timestamp")
	if visitorID == "" || timestamp == "" {
		metrics.IngestRejected.WithLabelValues("missing_fields").Inc()
		s.logger.Debug("Rejecting beacon with missing fields",
			slog.Bool("has_visitor_id", visitorID != ""),
			slog.Bool("has_timestamp", timestamp != ""))
		return Result{}, NewValidationError("", ErrMissingFields)
	}

	eventType := payload.String("event_type")
	if eventType == "" {
		eventType = EventTypePageView
	}
	duration := payload.Int("duration")

	if eventType == EventTypeSessionDuration {
		updated, err := s.UpdateDuration(ctx, visitorID, duration)
		if err != nil {
			return Result{}, err
		}
		return Result{DurationUpdate: true, Updated: updated}, nil
	}

	ipAddress := clientip.Resolve(rc.ForwardedFor, rc.RealIP, rc.RemoteAddr)
	userAgent := payload.String("user_agent")

	visit := &Visit{
		VisitorID:    visitorID,
		Timestamp:    timestamp,
		URL:          payload.String("url"),
		Path:         payload.String("path"),
		Referrer:     payload.String("referrer"),
		UserAgent:    userAgent,
		ScreenWidth:  payload.Int("screen_width"),
		ScreenHeight: payload.Int("screen_height"),
		IPAddress:    ipAddress,
		DeviceType:   string(device.Classify(userAgent)),
		Language:     locale.ResolveLanguage(rc.AcceptLanguage, payload.String("language")),
		EventType:    eventType,
		Duration:     duration,
	}
	if s.countries != nil {
		visit.Country = s.countries.Country(ipAddress)
	}

	id, err := s.store.InsertVisit(ctx, visit)
	if err != nil {
		return Result{}, err
	}

	metrics.VisitsInserted.Inc()
	s.logger.Info("Visit recorded",
		slog.Uint64("id", uint64(id)),
		slog.String("visitor_id", visitorID),
		slog.String("event_type", eventType),
		slog.String("device_type", visit.DeviceType))

	return Result{ID: id}, nil
}
