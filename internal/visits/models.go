package visits

import "visitlog/internal/pkg/device"

// DeviceType is the coarse device category derived from a user agent.
type DeviceType = device.Type

const (
	DeviceMobile  = device.Mobile
	DeviceDesktop = device.Desktop
	DeviceLaptop  = device.Laptop
	DeviceUnknown = device.Unknown
)

// Event types. SessionDuration is a control value and is never stored.
const (
	EventTypePageView        = "page_view"
	EventTypeSessionDuration = "session_duration"
)

// UnknownLanguage is stored when neither the request nor the payload names a language.
const UnknownLanguage = "Unknown"

// Visit is a single row of the visits table.
type Visit struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	VisitorID    string `gorm:"column:visitor_id;index:idx_visitor_id;not null" json:"visitor_id"`
	Timestamp    string `gorm:"column:timestamp;index:idx_timestamp;not null" json:"timestamp"`
	URL          string `gorm:"column:url" json:"url"`
	Path         string `gorm:"column:path" json:"path"`
	Referrer     string `gorm:"column:referrer" json:"referrer"`
	UserAgent    string `gorm:"column:user_agent" json:"user_agent"`
	ScreenWidth  int    `gorm:"column:screen_width" json:"screen_width"`
	ScreenHeight int    `gorm:"column:screen_height" json:"screen_height"`
	IPAddress    string `gorm:"column:ip_address" json:"ip_address"`
	DeviceType   string `gorm:"column:device_type;index:idx_device_type" json:"device_type"`
	Language     string `gorm:"column:language" json:"language"`
	Country      string `gorm:"column:country" json:"country"`
	EventType    string `gorm:"column:event_type;default:page_view" json:"event_type"`
	Duration     int    `gorm:"column:duration;default:0" json:"duration"`
	CreatedAt    string `gorm:"column:created_at" json:"created_at"`
	Processed    int    `gorm:"column:processed;default:0" json:"-"`
}

// TableName pins the table name regardless of GORM naming strategy.
func (Visit) TableName() string {
	return "visits"
}

// SummaryStats is the single aggregate row computed over the whole table.
type SummaryStats struct {
	TotalVisits    int64   `json:"total_visits"`
	UniqueVisitors int64   `json:"unique_visitors"`
	AvgDuration    float64 `json:"avg_duration"`
	MobileVisits   int64   `json:"mobile_visits"`
	DesktopVisits  int64   `json:"desktop_visits"`
}

// GroupCount is one bucket of a GROUP BY over the visits table.
type GroupCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
