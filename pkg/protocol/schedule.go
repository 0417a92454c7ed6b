package protocol

import "strings"

// ScheduleEntry is one vessel in the external schedule snapshot.
// Timestamps are kept as the feed's raw strings and parsed on demand:
// the feed mixes formats and a malformed value must only skip the one
// record, never fail the batch.
type ScheduleEntry struct {
	Name          string `json:"name"`
	ETA           string `json:"eta,omitempty"`
	ETD           string `json:"etd,omitempty"`
	Jetty         string `json:"jetty,omitempty"`
	Cargo         string `json:"cargo,omitempty"`
	Agent         string `json:"agent,omitempty"`
	StatusDesc    string `json:"status_desc,omitempty"`
	ShipInspector string `json:"ship_inspector,omitempty"`
	AnchoredDate  string `json:"anchored_date,omitempty"` // actual physical arrival, independent of ETA
}

// Snapshot is the whole-state schedule feed. There is no delta form.
type Snapshot struct {
	Vessels []ScheduleEntry `json:"vessels"`
}

// inspectorSentinels are feed values meaning "no surveyor assigned".
var inspectorSentinels = map[string]bool{
	"":                    true,
	"NONE":                true,
	"NA":                  true,
	"N.A.":                true,
	"TBA":                 true,
	"NIET VAN TOEPASSING": true, // "not applicable"
}

// InspectorAssigned reports whether the entry carries a real ship
// inspector, as opposed to one of the feed's empty sentinels.
func (e *ScheduleEntry) InspectorAssigned() bool {
	v := strings.ToUpper(strings.TrimSpace(e.ShipInspector))
	return !inspectorSentinels[v]
}

// Names returns the vessel names present in the snapshot.
func (s *Snapshot) Names() map[string]bool {
	names := make(map[string]bool, len(s.Vessels))
	for _, v := range s.Vessels {
		names[v.Name] = true
	}
	return names
}
