package protocol

import "time"

// Severity grades a jetty scheduling conflict.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Conflict is a derived jetty double-booking finding. Never persisted.
type Conflict struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// DelayNotice is a delay signal extracted from one email for one vessel.
// Duplicate notices across matched indicator phrases are expected and kept.
type DelayNotice struct {
	Vessel  string `json:"vessel"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// TimelineRow is a display-ready line of the jetty timeline.
type TimelineRow struct {
	Vessel     string `json:"vessel"`
	Jetty      string `json:"jetty"`
	JettyName  string `json:"jetty_name,omitempty"`
	Cargo      string `json:"cargo,omitempty"`
	Agent      string `json:"agent,omitempty"`
	StatusDesc string `json:"status_desc,omitempty"`
	Surveyor   string `json:"surveyor,omitempty"`
	Arrived    bool   `json:"arrived"`
	Countdown  string `json:"countdown"` // e.g. "ARRIVED", "Arriving in 4h", "Scheduled"
	Color      string `json:"color"`     // card tone: Good, Warning, Attention, Default
	ETADisplay string `json:"eta_display"`
	ETDDisplay string `json:"etd_display"`
	TrackURL   string `json:"track_url,omitempty"`
	Barge      bool   `json:"barge"` // inland vessel (ENI-registered)
}

// WeatherConditions is the opaque display-only weather block.
type WeatherConditions struct {
	Temperature       float64 `json:"temperature"`
	FeelsLike         float64 `json:"feels_like"`
	WindSpeedKt       float64 `json:"wind_speed_kt"`
	WindDirection     string  `json:"wind_direction"`
	WindStatus        string  `json:"wind_status"`
	VisibilityKm      float64 `json:"visibility_km"`
	Conditions        string  `json:"conditions"`
	SafeForOperations bool    `json:"safe_for_operations"`
	OperationalStatus string  `json:"operational_status"`
	ObservedAt        string  `json:"observed_at"`
}

// PilotStatus is the last known pilot-service state, persisted across runs.
type PilotStatus struct {
	Status      string `json:"status"` // NORMAL, SUSPENDED, UPDATE
	Text        string `json:"status_text"`
	Color       string `json:"color"`
	Timestamp   string `json:"timestamp"`
	Operational bool   `json:"operational"`
}

// VesselMentions indexes the emails referring to one known vessel in a run.
type VesselMentions struct {
	Vessel         string     `json:"vessel"`
	Identifier     string     `json:"identifier,omitempty"`
	IdentifierType string     `json:"identifier_type,omitempty"` // IMO or ENI
	TrackURL       string     `json:"track_url"`
	EmailIDs       []string   `json:"email_ids"`
	Categories     []Category `json:"categories"`
}

// ReplyDraft is a templated reply suggestion for an urgent email.
type ReplyDraft struct {
	EmailID string `json:"email_id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Report is the single structured summary assembled per run and handed
// to the notifiers. Assembly never mutates upstream state.
type Report struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	Weather        *WeatherConditions         `json:"weather,omitempty"`
	Pilot          *PilotStatus               `json:"pilot,omitempty"`
	Emails         []EmailMessage             `json:"emails"`
	CategoryCounts map[Category]int           `json:"category_counts"`
	UrgentCount    int                        `json:"urgent_count"`
	Vessels        map[string]*VesselMentions `json:"vessels"`
	Timeline       []TimelineRow              `json:"timeline"`
	Conflicts      []Conflict                 `json:"conflicts"`
	Delays         map[string][]DelayNotice   `json:"delays"`
	Checklists     ChecklistSummary           `json:"checklists"`
	ChecklistByVes map[string]*Checklist      `json:"checklist_detail,omitempty"`
	ReplyDrafts    []ReplyDraft               `json:"reply_drafts,omitempty"`
	Calendar       []CalendarEvent            `json:"calendar,omitempty"`
	ScheduleCount  int                        `json:"schedule_count"`
}

// CalendarEvent is one meeting shown in the daily summary.
type CalendarEvent struct {
	Subject   string `json:"subject"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Location  string `json:"location,omitempty"`
	Organizer string `json:"organizer,omitempty"`
	AllDay    bool   `json:"all_day"`
}
