package http

import (
	"github.com/karloscodes/cartridge"

	"visitlog/internal/visits"
)

// VisitRow is one entry of the recent visits listing.
type VisitRow struct {
	ID           uint   `json:"id"`
	VisitorID    string `json:"visitor_id"`
	Timestamp    string `json:"timestamp"`
	URL          string `json:"url"`
	Path         string `json:"path"`
	Referrer     string `json:"referrer"`
	Device       string `json:"device"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	Duration     int    `json:"duration"`
	EventType    string `json:"event_type"`
	IPAddress    string `json:"ip_address"`
	Language     string `json:"language"`
	Country      string `json:"country"`
}

func newVisitRow(v visits.Visit) VisitRow {
	return VisitRow{
		ID:           v.ID,
		VisitorID:    v.VisitorID,
		Timestamp:    v.Timestamp,
		URL:          v.URL,
		Path:         v.Path,
		Referrer:     v.Referrer,
		Device:       v.DeviceType,
		ScreenWidth:  v.ScreenWidth,
		ScreenHeight: v.ScreenHeight,
		Duration:     v.Duration,
		EventType:    v.EventType,
		IPAddress:    v.IPAddress,
		Language:     v.Language,
		Country:      v.Country,
	}
}

// VisitsIndexAction handles GET /api/analytics/visits
func (h *Handlers) VisitsIndexAction(ctx *cartridge.Context) error {
	rows, err := h.Reports.GetRecentVisits(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err, "Failed to fetch visits")
	}

	out := make([]VisitRow, len(rows))
	for i, row := range rows {
		out[i] = newVisitRow(row)
	}
	return ctx.JSON(out)
}

// StatsIndexAction handles GET /api/stats
func (h *Handlers) StatsIndexAction(ctx *cartridge.Context) error {
	stats, err := h.Reports.GetStats(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err, "Failed to fetch stats")
	}
	return ctx.JSON(stats)
}

// StatsBreakdownAction handles GET /api/stats/breakdown
func (h *Handlers) StatsBreakdownAction(ctx *cartridge.Context) error {
	breakdown, err := h.Reports.Breakdown(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err, "Failed to fetch breakdown")
	}
	return ctx.JSON(breakdown)
}
