package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	r := Retry{Attempts: 3, Delay: time.Millisecond}
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	r := Retry{Attempts: 2, Delay: time.Millisecond}
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("down")
	})
	if err == nil || !strings.Contains(err.Error(), "2 attempts") {
		t.Fatalf("err = %v, want attempts-exhausted error", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Retry{Attempts: 3, Delay: time.Minute}
	err := r.Do(ctx, func() error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMailboxFetchUnread(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"m1","from":{"name":"Agent","address":"ops@agent.example"},
			 "subject":"TEMPEST ETA","body":"plain text","body_type":"text",
			 "received":"2026-03-02T08:00:00Z"},
			{"id":"m2","from":{"name":"Old","address":"old@agent.example"},
			 "subject":"seen before","body":"x","body_type":"text",
			 "received":"2026-03-01T08:00:00Z"}
		]`))
	}))
	defer srv.Close()

	mb := NewMailbox(srv.URL, "sekrit", Retry{Attempts: 1}, nil)
	emails, err := mb.FetchUnread(context.Background(), map[string]bool{"m2": true})
	if err != nil {
		t.Fatalf("FetchUnread: %v", err)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(emails) != 1 || emails[0].ID != "m1" {
		t.Fatalf("emails = %+v, want only m1 (m2 already seen)", emails)
	}
	if emails[0].SenderEmail != "ops@agent.example" || emails[0].Body != "plain text" {
		t.Errorf("m1 fields wrong: %+v", emails[0])
	}
}

func TestMailboxFetchUnreadHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"m1","from":{"name":"A","address":"a@b.c"},
			"subject":"s","body_type":"html",
			"body":"<html><body><article><p>Pilot booked for the morning tide. The agent office confirmed boarding at the Maas entrance and will send the final boarding time this afternoon.</p></article></body></html>"}]`))
	}))
	defer srv.Close()

	mb := NewMailbox(srv.URL, "t", Retry{Attempts: 1}, nil)
	emails, err := mb.FetchUnread(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchUnread: %v", err)
	}
	body := emails[0].Body
	if strings.Contains(body, "<") {
		t.Errorf("body still contains markup: %q", body)
	}
	if !strings.Contains(body, "Pilot booked") {
		t.Errorf("body lost its text: %q", body)
	}
}

func TestMailboxAcknowledgeEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mb := NewMailbox(srv.URL, "t", Retry{Attempts: 1}, nil)
	mb.Acknowledge(context.Background(), "AAMkAD/x=")
	if !strings.HasPrefix(gotPath, "/api/messages/") || !strings.HasSuffix(gotPath, "/read") {
		t.Fatalf("path = %q", gotPath)
	}
	if strings.Contains(strings.TrimSuffix(strings.TrimPrefix(gotPath, "/api/messages/"), "/read"), "/") {
		t.Errorf("message id not escaped in path %q", gotPath)
	}
}

// fakeCache implements ScheduleCache in memory.
type fakeCache struct {
	snap  *protocol.Snapshot
	saved int
}

func (f *fakeCache) LoadScheduleCache() *protocol.Snapshot { return f.snap }
func (f *fakeCache) SaveScheduleCache(s *protocol.Snapshot) error {
	f.snap = s
	f.saved++
	return nil
}

func TestScheduleFetchCachesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"vessel":"TEMPEST","eta":"2026-03-03T06:00:00Z","jetty":"ST17",
			 "cargo":"Base oils","status":"Expected","ship_inspector":"J. de Vries"},
			{"vessel":"","eta":"2026-03-03T09:00:00Z"}
		]`))
	}))
	defer srv.Close()

	cache := &fakeCache{}
	sched := NewSchedule(srv.URL, "", Retry{Attempts: 1}, cache, nil)
	snap, stale, err := sched.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if stale {
		t.Error("fresh fetch reported stale")
	}
	if len(snap.Vessels) != 1 {
		t.Fatalf("vessels = %d, want 1 (nameless record dropped)", len(snap.Vessels))
	}
	e := snap.Vessels[0]
	if e.Name != "TEMPEST" || e.Jetty != "ST17" || e.ShipInspector != "J. de Vries" {
		t.Errorf("entry = %+v", e)
	}
	if cache.saved != 1 {
		t.Errorf("cache saves = %d, want 1", cache.saved)
	}
}

func TestScheduleFetchFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	cache := &fakeCache{snap: &protocol.Snapshot{Vessels: []protocol.ScheduleEntry{{Name: "SEFARINA"}}}}
	sched := NewSchedule(srv.URL, "", Retry{Attempts: 1}, cache, nil)
	snap, stale, err := sched.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !stale {
		t.Error("cache fallback not reported stale")
	}
	if len(snap.Vessels) != 1 || snap.Vessels[0].Name != "SEFARINA" {
		t.Errorf("snapshot = %+v, want cached SEFARINA", snap)
	}
}

func TestScheduleFetchNoCacheErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	sched := NewSchedule(srv.URL, "", Retry{Attempts: 1}, &fakeCache{}, nil)
	if _, _, err := sched.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when feed is down and cache is empty")
	}
}

func TestWeatherCurrentGrading(t *testing.T) {
	tests := []struct {
		name       string
		windMS     float64
		wantStatus string
		wantSafe   bool
	}{
		{"calm", 5.0, "NORMAL", true},
		{"warning", 14.0, "WARNING", true},   // ~27 kt
		{"critical", 19.0, "CRITICAL", false}, // ~37 kt
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("appid") != "key" {
					http.Error(w, "no key", http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"main":{"temp":12.5,"feels_like":10.1},
					"wind":{"speed":` + floatField(tt.windMS) + `,"deg":225},
					"visibility":8000,
					"weather":[{"description":"light rain"}],"dt":1767346200}`))
			}))
			defer srv.Close()

			w := NewWeather("key", "Rotterdam,NL", Retry{Attempts: 1}, nil)
			w.baseURL = srv.URL
			cond := w.Current(context.Background())
			if cond == nil {
				t.Fatal("Current returned nil")
			}
			if cond.WindStatus != tt.wantStatus {
				t.Errorf("status = %q, want %q", cond.WindStatus, tt.wantStatus)
			}
			if cond.SafeForOperations != tt.wantSafe {
				t.Errorf("safe = %v, want %v", cond.SafeForOperations, tt.wantSafe)
			}
			if cond.WindDirection != "SW" {
				t.Errorf("direction = %q, want SW", cond.WindDirection)
			}
			if cond.VisibilityKm != 8 {
				t.Errorf("visibility = %v km, want 8", cond.VisibilityKm)
			}
		})
	}
}

func TestWeatherNoAPIKey(t *testing.T) {
	w := NewWeather("", "Rotterdam,NL", Retry{Attempts: 1}, nil)
	if cond := w.Current(context.Background()); cond != nil {
		t.Fatalf("Current = %+v, want nil without an API key", cond)
	}
}

func TestWindDirection(t *testing.T) {
	cases := map[float64]string{0: "N", 90: "E", 180: "S", 270: "W", 359: "N", 22.5: "NNE"}
	for deg, want := range cases {
		if got := windDirection(deg); got != want {
			t.Errorf("windDirection(%v) = %q, want %q", deg, got, want)
		}
	}
}

func floatField(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
