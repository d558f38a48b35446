package tracking

import (
	"sort"
	"strings"
)

const (
	DefaultRegion     = "euw1"
	DefaultRoutingKey = "europe"
)

var regionRouting = map[string]string{
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"oc1":  "sea",
	"ph2":  "sea",
	"sg2":  "sea",
	"th2":  "sea",
	"tw2":  "sea",
	"vn2":  "sea",
	"jp1":  "asia",
	"kr":   "asia",
}

// RoutingFor maps a platform region to the regional routing key used by the match API.
// Unknown regions fall back to DefaultRoutingKey.
func RoutingFor(region string) string {
	if routing, ok := regionRouting[NormalizeRegion(region)]; ok {
		return routing
	}
	return DefaultRoutingKey
}

// KnownRegion reports whether region is in the routing table.
func KnownRegion(region string) bool {
	_, ok := regionRouting[NormalizeRegion(region)]
	return ok
}

func NormalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}

// Regions lists the supported platform regions sorted alphabetically.
func Regions() []string {
	out := make([]string, 0, len(regionRouting))
	for region := range regionRouting {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}
