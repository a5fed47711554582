package http

import (
	"encoding/base64"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"visitlog/internal/metrics"
	"visitlog/internal/pkg/clientip"
	"visitlog/internal/visits"
)

// transparentGIF is a 1x1 transparent GIF.
var transparentGIF, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// TrackResponse is returned by the ingestion endpoints. ID is set for new
// rows, Updated for duration updates.
type TrackResponse struct {
	Success bool  `json:"success"`
	ID      *uint `json:"id,omitempty"`
	Updated *bool `json:"updated,omitempty"`
}

func newTrackResponse(result visits.Result) TrackResponse {
	if result.DurationUpdate {
		updated := result.Updated
		return TrackResponse{Success: true, Updated: &updated}
	}
	id := result.ID
	return TrackResponse{Success: true, ID: &id}
}

// TrackCreateAction handles POST /api/track
func (h *Handlers) TrackCreateAction(ctx *cartridge.Context) error {
	payload, err := visits.ParseJSONPayload(ctx.Body())
	if err != nil {
		metrics.IngestRejected.WithLabelValues("invalid_json").Inc()
		requestLogger(ctx).Debug("Invalid track payload", slog.Any("error", err))
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON payload",
		})
	}

	result, err := h.Visits.Ingest(ctx.UserContext(), payload, requestContext(ctx))
	if err != nil {
		return respondError(ctx, err, "Failed to record visit")
	}

	return ctx.JSON(newTrackResponse(result))
}

// TrackPixelAction handles GET /api/track-pixel. The GIF is always returned.
func (h *Handlers) TrackPixelAction(ctx *cartridge.Context) error {
	payload := h.pixelPayload(ctx)

	if _, err := h.Visits.Ingest(ctx.UserContext(), payload, requestContext(ctx)); err != nil {
		requestLogger(ctx).Warn("Pixel beacon not recorded",
			slog.String("client_ip", clientip.FromFiber(ctx.Ctx)),
			slog.Any("error", err))
	}

	ctx.Set(fiber.HeaderContentType, "image/gif")
	ctx.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	ctx.Set(fiber.HeaderPragma, "no-cache")
	ctx.Set(fiber.HeaderExpires, "0")
	return ctx.Status(fiber.StatusOK).Send(transparentGIF)
}

// pixelPayload decodes the data parameter as JSON and falls back to the raw
// query parameters when it is missing or malformed.
func (h *Handlers) pixelPayload(ctx *cartridge.Context) visits.Payload {
	if data := ctx.Query("data"); data != "" {
		decoded, err := url.PathUnescape(data)
		if err == nil {
			var payload visits.Payload
			if payload, err = visits.ParseJSONPayload([]byte(decoded)); err == nil {
				return payload
			}
		}
		metrics.PixelFallbacks.Inc()
		requestLogger(ctx).Debug("Pixel data is not valid JSON, using query parameters", slog.Any("error", err))
	}

	values := url.Values{}
	for key, value := range ctx.Queries() {
		values.Set(key, value)
	}
	return visits.PayloadFromValues(values)
}

// UpdateDurationAction handles POST /api/update-duration
func (h *Handlers) UpdateDurationAction(ctx *cartridge.Context) error {
	payload, err := visits.ParseJSONPayload(ctx.Body())
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON payload",
		})
	}

	visitorID := payload.String("visitor_id")
	if visitorID == "" || !payload.Has("duration") {
		metrics.IngestRejected.WithLabelValues("missing_fields").Inc()
		return respondError(ctx, visits.NewValidationError("", visits.ErrMissingFields), "")
	}

	updated, err := h.Visits.UpdateDuration(ctx.UserContext(), visitorID, payload.Int("duration"))
	if err != nil {
		return respondError(ctx, err, "Failed to update duration")
	}

	return ctx.JSON(TrackResponse{Success: true, Updated: &updated})
}
