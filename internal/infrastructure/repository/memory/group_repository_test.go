package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
)

func sampleGroup(id string) tracking.Group {
	return tracking.Group{
		ID:     id,
		SinkID: "100",
		Entities: []tracking.Entity{
			{ExternalID: "puuid-1", DisplayName: "Hero#EUW", Region: "euw1", RoutingKey: "europe", LastSeen: []string{"EUW1_2", "EUW1_1"}},
		},
	}
}

func TestGroupRepository_SaveAndLoadAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewGroupRepository(nil)

	group := sampleGroup("g1")
	if err := repo.Save(ctx, group); err != nil {
		t.Fatalf("save group: %v", err)
	}
	group.Entities[0].LastSeen[0] = "mutated"

	loaded, ok, err := repo.GetByID(ctx, "g1")
	if err != nil || !ok {
		t.Fatalf("get group: ok=%v err=%v", ok, err)
	}
	if loaded.Entities[0].LastSeen[0] != "EUW1_2" {
		t.Fatalf("expected stored cursor to be isolated from caller, got %v", loaded.Entities[0].LastSeen)
	}

	loaded.Entities[0].LastSeen[0] = "mutated-again"
	again, _, _ := repo.GetByID(ctx, "g1")
	if again.Entities[0].LastSeen[0] != "EUW1_2" {
		t.Fatalf("expected returned groups to be copies")
	}
}

func TestGroupRepository_ListKeepsInsertionOrderAndDeletes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewGroupRepository([]tracking.Group{sampleGroup("b"), sampleGroup("a")})
	if err := repo.Save(ctx, sampleGroup("c")); err != nil {
		t.Fatalf("save group: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	groups, err := repo.ListGroups(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(groups) != 2 || groups[0].ID != "b" || groups[1].ID != "c" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if _, ok, _ := repo.GetByID(ctx, "a"); ok {
		t.Fatalf("expected deleted group to be gone")
	}
}

func TestGroupRepository_SaveRejectsInvalidGroup(t *testing.T) {
	t.Parallel()

	group := sampleGroup("g1")
	group.Entities = append(group.Entities, group.Entities[0])

	err := NewGroupRepository(nil).Save(context.Background(), group)
	if !errors.Is(err, tracking.ErrDuplicateEntityKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}
