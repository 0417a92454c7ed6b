package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// ScheduleCache is the persistence hook the feed falls back to.
// Satisfied by *store.Store.
type ScheduleCache interface {
	LoadScheduleCache() *protocol.Snapshot
	SaveScheduleCache(*protocol.Snapshot) error
}

// Schedule fetches the terminal's vessel schedule feed, caching each
// good snapshot so an unreachable feed degrades to the last known one.
type Schedule struct {
	url    string
	token  string
	client *http.Client
	retry  Retry
	cache  ScheduleCache
	logger *slog.Logger
}

// NewSchedule builds a schedule feed client.
func NewSchedule(feedURL, token string, retry Retry, cache ScheduleCache, logger *slog.Logger) *Schedule {
	if logger == nil {
		logger = slog.Default()
	}
	return &Schedule{
		url:    feedURL,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
		retry:  retry,
		cache:  cache,
		logger: logger,
	}
}

// feedRecord is the feed's wire shape. All timestamps stay raw strings;
// parsing happens at the point of use.
type feedRecord struct {
	Vessel        string `json:"vessel"`
	ETA           string `json:"eta"`
	ETD           string `json:"etd"`
	Jetty         string `json:"jetty"`
	Cargo         string `json:"cargo"`
	Agent         string `json:"agent"`
	Status        string `json:"status"`
	ShipInspector string `json:"ship_inspector"`
	AnchoredDate  string `json:"anchored_date"`
}

// Fetch returns the current snapshot. On success the snapshot is cached;
// on failure the last cached snapshot is returned with stale=true. A
// failure with no cache yields an error.
func (s *Schedule) Fetch(ctx context.Context) (snap *protocol.Snapshot, stale bool, err error) {
	var records []feedRecord
	fetchErr := s.retry.Do(ctx, func() error {
		return s.get(ctx, &records)
	})
	if fetchErr != nil {
		if cached := s.cache.LoadScheduleCache(); cached != nil {
			s.logger.Warn("schedule feed unreachable, using cached snapshot",
				"error", fetchErr, "cached_vessels", len(cached.Vessels))
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("source: schedule: %w", fetchErr)
	}

	snap = &protocol.Snapshot{Vessels: make([]protocol.ScheduleEntry, 0, len(records))}
	for _, rec := range records {
		if rec.Vessel == "" {
			continue // nameless record, nothing to key on
		}
		snap.Vessels = append(snap.Vessels, protocol.ScheduleEntry{
			Name:          rec.Vessel,
			ETA:           rec.ETA,
			ETD:           rec.ETD,
			Jetty:         rec.Jetty,
			Cargo:         rec.Cargo,
			Agent:         rec.Agent,
			StatusDesc:    rec.Status,
			ShipInspector: rec.ShipInspector,
			AnchoredDate:  rec.AnchoredDate,
		})
	}

	if err := s.cache.SaveScheduleCache(snap); err != nil {
		s.logger.Warn("schedule cache save failed", "error", err)
	}
	return snap, false, nil
}

func (s *Schedule) get(ctx context.Context, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
