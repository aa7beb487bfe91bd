package presence

import "sync"

// Zone is a named axis-aligned rectangle on the office map. Entering one
// triggers proximity behavior on the client (meeting areas, call zones).
// Zones are immutable after load.
type Zone struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains tests point containment with inclusive bounds on all four edges.
// A point exactly on a shared boundary between adjacent zones matches both;
// the index's load order breaks the tie.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.X && x <= z.X+z.Width &&
		y >= z.Y && y <= z.Y+z.Height
}

// ZoneIndex answers point-in-zone queries over a small static zone list.
// Lookup is a linear scan in load order; at tens of zones there is nothing
// to gain from a spatial structure, and the stable order doubles as the
// documented tie-break for overlapping zones.
type ZoneIndex struct {
	mu    sync.RWMutex
	zones []Zone
}

func NewZoneIndex() *ZoneIndex {
	return &ZoneIndex{}
}

// Load atomically replaces the active zone set. Supports hot reload; queries
// in flight see either the old or the new set, never a mix.
func (i *ZoneIndex) Load(zones []Zone) {
	dup := make([]Zone, len(zones))
	copy(dup, zones)

	i.mu.Lock()
	i.zones = dup
	i.mu.Unlock()
}

// Lookup returns the name of the first zone (in load order) containing the
// point, or ("", false) when the point is in no zone.
func (i *ZoneIndex) Lookup(x, y float64) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, z := range i.zones {
		if z.Contains(x, y) {
			return z.Name, true
		}
	}
	return "", false
}

// Zones returns a copy of the active zone list in load order.
func (i *ZoneIndex) Zones() []Zone {
	i.mu.RLock()
	defer i.mu.RUnlock()

	dup := make([]Zone, len(i.zones))
	copy(dup, i.zones)
	return dup
}
