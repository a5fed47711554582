package visits

import (
	"context"
	"log/slog"
	"strings"

	"visitlog/internal/metrics"
)

// UpdateDuration sets the duration of the visitor's most recent page view.
// It reports false, without error, when the visitor has no page view.
// It never creates a row.
func (s *Service) UpdateDuration(ctx context.Context, visitorID string, duration int) (bool, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		metrics.IngestRejected.WithLabelValues("missing_visitor_id").Inc()
		return false, NewValidationError("visitor_id", ErrMissingVisitorID)
	}

	changed, err := s.store.UpdateLatestDuration(ctx, visitorID, duration)
	if err != nil {
		return false, err
	}

	updated := changed > 0
	if updated {
		metrics.DurationUpdates.WithLabelValues("updated").Inc()
	} else {
		metrics.DurationUpdates.WithLabelValues("missed").Inc()
	}

	s.logger.Info("Updated duration",
		slog.String("visitor_id", visitorID),
		slog.Int("duration", duration),
		slog.Bool("updated", updated))

	return updated, nil
}
