package tracking

import "testing"

func TestRoutingFor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"euw1":   "europe",
		" EUN1 ": "europe",
		"na1":    "americas",
		"la2":    "americas",
		"kr":     "asia",
		"jp1":    "asia",
		"oc1":    "sea",
		"vn2":    "sea",
		"xx9":    "europe",
		"":       "europe",
	}
	for region, want := range cases {
		if got := RoutingFor(region); got != want {
			t.Fatalf("RoutingFor(%q): expected %s, got %s", region, want, got)
		}
	}
}

func TestKnownRegionAndList(t *testing.T) {
	t.Parallel()

	if !KnownRegion("BR1") {
		t.Fatalf("expected br1 to be known")
	}
	if KnownRegion("mars1") {
		t.Fatalf("expected mars1 to be unknown")
	}
	regions := Regions()
	if len(regions) != 16 || regions[0] != "br1" {
		t.Fatalf("unexpected region list: %v", regions)
	}
}
