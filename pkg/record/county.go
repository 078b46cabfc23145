package record

import (
	"strings"
)

// iNaturalist place IDs for the Central Texas counties.
const (
	PlaceBastrop    = 441
	PlaceBlanco     = 1767
	PlaceBurnet     = 1909
	PlaceCaldwell   = 1223
	PlaceHays       = 326
	PlaceTravis     = 431
	PlaceWilliamson = 2442
)

// County pairs an iNaturalist place ID with the county name printed for it.
type County struct {
	PlaceID int
	Name    string
}

// CountyTable maps known place IDs to county names. The zero value is an
// empty table that resolves every observation to its place guess.
type CountyTable struct {
	counties []County
	byID     map[int]string
}

// NewCountyTable builds a table from the given counties. Order is kept for
// PlaceIDs and Counties.
func NewCountyTable(counties ...County) *CountyTable {
	t := &CountyTable{
		counties: make([]County, 0, len(counties)),
		byID:     make(map[int]string, len(counties)),
	}
	for _, c := range counties {
		if _, dup := t.byID[c.PlaceID]; dup {
			continue
		}
		t.counties = append(t.counties, c)
		t.byID[c.PlaceID] = c.Name
	}
	return t
}

// CentralTexas returns the table of the seven Central Texas counties.
func CentralTexas() *CountyTable {
	return NewCountyTable(
		County{PlaceBastrop, "Bastrop"},
		County{PlaceBlanco, "Blanco"},
		County{PlaceBurnet, "Burnet"},
		County{PlaceCaldwell, "Caldwell"},
		County{PlaceHays, "Hays"},
		County{PlaceTravis, "Travis"},
		County{PlaceWilliamson, "Williamson"},
	)
}

// Resolve returns the county name when exactly one known place ID appears
// in placeIDs (repeats of the same ID count once). Otherwise, including when
// none or several counties match, it returns guess unchanged.
func (t *CountyTable) Resolve(placeIDs []int, guess string) string {
	if t == nil || len(t.byID) == 0 {
		return guess
	}

	var name string
	matched := make(map[int]struct{}, 1)
	for _, id := range placeIDs {
		county, ok := t.byID[id]
		if !ok {
			continue
		}
		matched[id] = struct{}{}
		if len(matched) > 1 {
			return guess
		}
		name = county
	}

	if len(matched) == 1 {
		return name
	}
	return guess
}

// PlaceIDs returns the table's place IDs in insertion order.
func (t *CountyTable) PlaceIDs() []int {
	ids := make([]int, len(t.counties))
	for i, c := range t.counties {
		ids[i] = c.PlaceID
	}
	return ids
}

// Counties returns a copy of the table entries.
func (t *CountyTable) Counties() []County {
	out := make([]County, len(t.counties))
	copy(out, t.counties)
	return out
}

// Lookup finds a county by name, case-insensitively.
func (t *CountyTable) Lookup(name string) (County, bool) {
	for _, c := range t.counties {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return County{}, false
}

// Subset returns a new table holding only the named counties. Unknown names
// are reported in the second return value.
func (t *CountyTable) Subset(names ...string) (*CountyTable, []string) {
	var picked []County
	var unknown []string
	for _, n := range names {
		c, ok := t.Lookup(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		picked = append(picked, c)
	}
	return NewCountyTable(picked...), unknown
}
