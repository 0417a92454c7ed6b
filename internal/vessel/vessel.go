// Package vessel holds the known-vessel registry: identifier typing,
// tracking URLs and mention extraction from message text.
package vessel

import (
	"net/url"
	"sort"
	"strings"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Identifier kinds. Seagoing vessels carry 7-digit IMO numbers, inland
// barges carry 8-character ENI registrations.
const (
	IMO = "IMO"
	ENI = "ENI"
)

// maxMentions caps how many vessels one email is indexed under.
const maxMentions = 3

// Registry maps vessel names (uppercase) to registry identifiers.
type Registry struct {
	vessels map[string]string
	names   []string // insertion order, for deterministic extraction
}

// DefaultFleet is the terminal's known-vessel table. Config may replace it.
var DefaultFleet = map[string]string{
	"TEMPEST": "9424754", "SEFARINA": "9715701", "CHEMICAL LUNA": "9521423",
	"SFL BONAIRE": "9919773", "XING TONG KAI YUAN": "9640126", "VOYAGER": "02332403",
	"KENTERING": "02211189", "LEONARDO": "07001724", "STOLT MERWEDE": "9232490",
	"BARCELONA": "9233647", "BITHAV": "9999998", "VICTROL": "9999999", "UNIGAS II": "02340295",
	"BAYAMO": "9655004", "UNIGAS III": "EN02340282", "UNIGAS I": "EN02340295",
}

// NewRegistry builds a registry from a name→identifier table.
func NewRegistry(fleet map[string]string) *Registry {
	r := &Registry{vessels: make(map[string]string, len(fleet))}
	for name, id := range fleet {
		r.vessels[strings.ToUpper(name)] = id
	}
	for name := range r.vessels {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Identifier returns the registry identifier for a vessel, or "".
func (r *Registry) Identifier(name string) string {
	return r.vessels[strings.ToUpper(name)]
}

// IdentifierType classifies an identifier by its length: 8 characters is
// an ENI registration, 7 an IMO number, anything else unknown.
func IdentifierType(id string) string {
	switch len(id) {
	case 8:
		return ENI
	case 7:
		return IMO
	default:
		return ""
	}
}

// IsBarge reports whether the vessel's registry identifier marks it as an
// inland barge. Barges skip the surveyor checklist task.
func (r *Registry) IsBarge(name string) bool {
	return IdentifierType(r.Identifier(name)) == ENI
}

// Extract returns the known vessels mentioned in text, uppercased
// substring match, first occurrence wins, at most maxMentions.
func (r *Registry) Extract(text string) []string {
	upper := strings.ToUpper(text)
	var found []string
	for _, name := range r.names {
		if strings.Contains(upper, name) {
			found = append(found, name)
			if len(found) == maxMentions {
				break
			}
		}
	}
	return found
}

// TrackURL builds a public tracking link for a vessel.
func TrackURL(name, id string) string {
	switch IdentifierType(id) {
	case IMO:
		return "https://www.vesselfinder.com/?imo=" + id
	case ENI:
		return "https://www.marinetraffic.com/en/ais/index/search/all?keyword=" + id
	}
	if name != "" {
		return "https://www.vesselfinder.com/vessels?name=" + url.QueryEscape(name)
	}
	return "https://www.vesselfinder.com"
}

// CollectMentions indexes a batch of classified emails by mentioned
// vessel: which emails refer to it and under which categories.
func (r *Registry) CollectMentions(emails []protocol.EmailMessage) map[string]*protocol.VesselMentions {
	out := make(map[string]*protocol.VesselMentions)
	for _, email := range emails {
		for _, name := range email.Vessels {
			m, ok := out[name]
			if !ok {
				id := r.Identifier(name)
				m = &protocol.VesselMentions{
					Vessel:         name,
					Identifier:     id,
					IdentifierType: IdentifierType(id),
					TrackURL:       TrackURL(name, id),
				}
				out[name] = m
			}
			m.EmailIDs = append(m.EmailIDs, email.ID)
			if !hasCategory(m.Categories, email.Category) {
				m.Categories = append(m.Categories, email.Category)
			}
		}
	}
	return out
}

func hasCategory(cats []protocol.Category, c protocol.Category) bool {
	for _, v := range cats {
		if v == c {
			return true
		}
	}
	return false
}
