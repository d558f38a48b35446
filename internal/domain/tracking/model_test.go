package tracking

import (
	"errors"
	"fmt"
	"testing"
)

func TestEntityPushRecord_NewestFirstAndBounded(t *testing.T) {
	t.Parallel()

	var entity Entity
	for i := 1; i <= 13; i++ {
		entity.PushRecord(PerformanceRecord{MatchID: fmt.Sprintf("EUW1_%d", i)}, DefaultHistorySize)
		if entity.History[0].MatchID != fmt.Sprintf("EUW1_%d", i) {
			t.Fatalf("expected newest record at index 0, got=%s", entity.History[0].MatchID)
		}
		if len(entity.History) > DefaultHistorySize {
			t.Fatalf("history exceeded limit: %d", len(entity.History))
		}
	}

	if len(entity.History) != DefaultHistorySize {
		t.Fatalf("unexpected history size: got=%d want=%d", len(entity.History), DefaultHistorySize)
	}
	if got := entity.History[len(entity.History)-1].MatchID; got != "EUW1_4" {
		t.Fatalf("expected oldest kept record EUW1_4, got=%s", got)
	}
}

func TestEntityPushRecord_NonPositiveLimitUsesDefault(t *testing.T) {
	t.Parallel()

	var entity Entity
	for i := 0; i < 20; i++ {
		entity.PushRecord(PerformanceRecord{MatchID: fmt.Sprint(i)}, 0)
	}
	if len(entity.History) != DefaultHistorySize {
		t.Fatalf("unexpected history size: %d", len(entity.History))
	}
}

func TestGroupUpsert_CaseInsensitiveUpdateInPlace(t *testing.T) {
	t.Parallel()

	group := NewGroup("chat-1")
	created, err := group.Upsert(Entity{ExternalID: "puuid-1", DisplayName: "Faker#KR1", Region: "kr", RoutingKey: "asia", LastSeen: []string{"KR_1"}})
	if err != nil || !created {
		t.Fatalf("expected create, created=%v err=%v", created, err)
	}

	created, err = group.Upsert(Entity{ExternalID: "puuid-1", DisplayName: "faker#kr1", Region: "euw1", RoutingKey: "europe"})
	if err != nil {
		t.Fatalf("upsert existing: %v", err)
	}
	if created {
		t.Fatalf("expected update in place, not create")
	}
	if len(group.Entities) != 1 {
		t.Fatalf("expected one entity, got=%d", len(group.Entities))
	}
	if group.Entities[0].RoutingKey != "europe" || group.Entities[0].Region != "euw1" {
		t.Fatalf("expected routing to be updated, got=%+v", group.Entities[0])
	}
	if len(group.Entities[0].LastSeen) != 1 {
		t.Fatalf("expected cursor to survive re-track of same account")
	}
}

func TestGroupUpsert_RejectsBeyondCap(t *testing.T) {
	t.Parallel()

	group := NewGroup("chat-1")
	for i := 0; i < MaxEntitiesPerGroup; i++ {
		if _, err := group.Upsert(Entity{ExternalID: fmt.Sprint("p", i), DisplayName: fmt.Sprintf("P%d#TAG", i), RoutingKey: "europe"}); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	_, err := group.Upsert(Entity{ExternalID: "p-extra", DisplayName: "Extra#TAG", RoutingKey: "europe"})
	if !errors.Is(err, ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}

	if _, err := group.Upsert(Entity{ExternalID: "p0", DisplayName: "p0#tag", RoutingKey: "americas"}); err != nil {
		t.Fatalf("re-track at capacity should succeed: %v", err)
	}
}

func TestGroupRemove(t *testing.T) {
	t.Parallel()

	group := Group{ID: "g", Entities: []Entity{
		{ExternalID: "a", DisplayName: "Alpha#EUW", RoutingKey: "europe"},
		{ExternalID: "b", DisplayName: "Beta#EUW", RoutingKey: "europe"},
	}}

	if !group.Remove("ALPHA#euw") {
		t.Fatalf("expected removal to match case-insensitively")
	}
	if group.Remove("missing#x") {
		t.Fatalf("did not expect removal of unknown player")
	}
	if len(group.Entities) != 1 || group.Entities[0].ExternalID != "b" {
		t.Fatalf("unexpected entities after removal: %+v", group.Entities)
	}
	if removed := group.RemoveAll(); removed != 1 {
		t.Fatalf("expected RemoveAll to report 1, got=%d", removed)
	}
}

func TestGroupPollable(t *testing.T) {
	t.Parallel()

	entity := Entity{ExternalID: "a", DisplayName: "A#1", RoutingKey: "europe"}
	cases := []struct {
		name  string
		group Group
		want  bool
	}{
		{name: "no sink", group: Group{ID: "g", Entities: []Entity{entity}}, want: false},
		{name: "no entities", group: Group{ID: "g", SinkID: "123"}, want: false},
		{name: "ready", group: Group{ID: "g", SinkID: "123", Entities: []Entity{entity}}, want: true},
	}
	for _, tc := range cases {
		if got := tc.group.Pollable(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestGroupValidate_DuplicateKeys(t *testing.T) {
	t.Parallel()

	group := Group{ID: "g", Entities: []Entity{
		{ExternalID: "a", DisplayName: "Alpha#EUW", RoutingKey: "europe"},
		{ExternalID: "b", DisplayName: "alpha#euw", RoutingKey: "europe"},
	}}
	if err := group.Validate(); !errors.Is(err, ErrDuplicateEntityKey) {
		t.Fatalf("expected ErrDuplicateEntityKey, got %v", err)
	}
}

func TestGroupClone_DoesNotShareSlices(t *testing.T) {
	t.Parallel()

	original := Group{ID: "g", SinkID: "1", Entities: []Entity{{
		ExternalID:  "a",
		DisplayName: "A#1",
		LastSeen:    []string{"m2", "m1"},
		History:     []PerformanceRecord{{MatchID: "m2"}},
	}}}

	copied := original.Clone()
	copied.Entities[0].LastSeen[0] = "changed"
	copied.Entities[0].History[0].MatchID = "changed"
	copied.Entities[0].DisplayName = "B#2"

	if original.Entities[0].LastSeen[0] != "m2" || original.Entities[0].History[0].MatchID != "m2" {
		t.Fatalf("clone shares slices with the original: %+v", original.Entities[0])
	}
	if original.Entities[0].DisplayName != "A#1" {
		t.Fatalf("clone shares entities with the original")
	}
}

func TestValidateSinkID(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"42", "-1001234567890", " 7 "} {
		if err := ValidateSinkID(valid); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "  ", "0", "abc", "chat-1", "1.5"} {
		if err := ValidateSinkID(invalid); !errors.Is(err, ErrInvalidSink) {
			t.Fatalf("expected ErrInvalidSink for %q, got %v", invalid, err)
		}
	}
}
