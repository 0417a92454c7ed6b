package vessel

import (
	"testing"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

func TestIdentifierType(t *testing.T) {
	if got := IdentifierType("9424754"); got != IMO {
		t.Errorf("7-char id = %q, want IMO", got)
	}
	if got := IdentifierType("02332403"); got != ENI {
		t.Errorf("8-char id = %q, want ENI", got)
	}
	if got := IdentifierType(""); got != "" {
		t.Errorf("empty id = %q, want unknown", got)
	}
}

func TestIsBarge(t *testing.T) {
	r := NewRegistry(DefaultFleet)
	if r.IsBarge("TEMPEST") {
		t.Error("TEMPEST (IMO 9424754) classified as barge")
	}
	if !r.IsBarge("VOYAGER") {
		t.Error("VOYAGER (ENI 02332403) not classified as barge")
	}
}

func TestExtract(t *testing.T) {
	r := NewRegistry(DefaultFleet)

	found := r.Extract("Revised ETA for tempest, proceeding to ST18")
	if len(found) != 1 || found[0] != "TEMPEST" {
		t.Errorf("Extract = %v", found)
	}

	found = r.Extract("BAYAMO and SEFARINA and TEMPEST and BARCELONA all inbound")
	if len(found) != 3 {
		t.Errorf("Extract returned %d vessels, want cap of 3", len(found))
	}

	if found := r.Extract("no ships here"); len(found) != 0 {
		t.Errorf("Extract = %v, want none", found)
	}
}

func TestTrackURL(t *testing.T) {
	if got := TrackURL("TEMPEST", "9424754"); got != "https://www.vesselfinder.com/?imo=9424754" {
		t.Errorf("IMO url = %q", got)
	}
	if got := TrackURL("VOYAGER", "02332403"); got != "https://www.marinetraffic.com/en/ais/index/search/all?keyword=02332403" {
		t.Errorf("ENI url = %q", got)
	}
	if got := TrackURL("CHEMICAL LUNA", ""); got != "https://www.vesselfinder.com/vessels?name=CHEMICAL+LUNA" {
		t.Errorf("name url = %q", got)
	}
}

func TestCollectMentions(t *testing.T) {
	r := NewRegistry(DefaultFleet)
	emails := []protocol.EmailMessage{
		{ID: "m1", Vessels: []string{"TEMPEST"}, Category: protocol.CategoryAgent},
		{ID: "m2", Vessels: []string{"TEMPEST", "BAYAMO"}, Category: protocol.CategoryTerminal},
	}

	mentions := r.CollectMentions(emails)
	if len(mentions) != 2 {
		t.Fatalf("mentions = %d vessels", len(mentions))
	}

	tempest := mentions["TEMPEST"]
	if len(tempest.EmailIDs) != 2 {
		t.Errorf("TEMPEST emails = %v", tempest.EmailIDs)
	}
	if len(tempest.Categories) != 2 {
		t.Errorf("TEMPEST categories = %v", tempest.Categories)
	}
	if tempest.IdentifierType != IMO {
		t.Errorf("TEMPEST id type = %q", tempest.IdentifierType)
	}
}
