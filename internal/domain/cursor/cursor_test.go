package cursor

import (
	"reflect"
	"testing"
)

func TestNewIDs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lastSeen []string
		current  []string
		want     []string
	}{
		{
			name:     "two new on top",
			lastSeen: []string{"M3", "M2", "M1"},
			current:  []string{"M5", "M4", "M3"},
			want:     []string{"M4", "M5"},
		},
		{
			name:     "subset yields nothing",
			lastSeen: []string{"M5", "M4", "M3"},
			current:  []string{"M5", "M4"},
			want:     []string{},
		},
		{
			name:     "identical batch",
			lastSeen: []string{"M2", "M1"},
			current:  []string{"M2", "M1"},
			want:     []string{},
		},
		{
			name:     "absent anywhere not just prefix",
			lastSeen: []string{"M9", "M1"},
			current:  []string{"M9", "M8", "M1", "M0"},
			want:     []string{"M0", "M8"},
		},
		{
			name:     "all new",
			lastSeen: []string{"A"},
			current:  []string{"D", "C", "B"},
			want:     []string{"B", "C", "D"},
		},
	}

	for _, tc := range cases {
		got := NewIDs(tc.lastSeen, tc.current)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestPlan_InitialSeedsWithoutNewIDs(t *testing.T) {
	t.Parallel()

	step := Plan(nil, []string{"M3", "M2", "M1"}, 5)
	if !step.Initial {
		t.Fatalf("expected initial step")
	}
	if len(step.NewIDs) != 0 {
		t.Fatalf("expected no new ids on initialization, got=%v", step.NewIDs)
	}
	if !reflect.DeepEqual(step.NextLastSeen, []string{"M3", "M2", "M1"}) {
		t.Fatalf("unexpected seeded cursor: %v", step.NextLastSeen)
	}
}

func TestPlan_AlwaysAdvancesToCurrent(t *testing.T) {
	t.Parallel()

	step := Plan([]string{"M2", "M1"}, []string{"M6", "M5", "M4", "M3", "M2", "M1"}, 5)
	if step.Initial {
		t.Fatalf("did not expect initial step")
	}
	if !reflect.DeepEqual(step.NextLastSeen, []string{"M6", "M5", "M4", "M3", "M2"}) {
		t.Fatalf("expected cursor truncated to batch size, got=%v", step.NextLastSeen)
	}
	if !reflect.DeepEqual(step.NewIDs, []string{"M3", "M4", "M5", "M6"}) {
		t.Fatalf("unexpected new ids: %v", step.NewIDs)
	}
}

func TestAdvance_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	current := []string{"A", "B"}
	next := Advance(current, 5)
	next[0] = "Z"
	if current[0] != "A" {
		t.Fatalf("Advance must copy its input")
	}
}

func TestChanged(t *testing.T) {
	t.Parallel()

	if Changed([]string{"A", "B"}, []string{"A", "B"}) {
		t.Fatalf("expected identical cursors to be unchanged")
	}
	if !Changed([]string{"A"}, []string{"B"}) || !Changed(nil, []string{"A"}) {
		t.Fatalf("expected movement to be detected")
	}
}
