package points

import "strings"

// Category is the semantic class of a map point, computed once at catalog
// snapshot build and carried on the Point value.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryShelf
	CategoryShelfDocking
	CategoryPickup
	CategoryPickupDocking
	CategoryDropoff
	CategoryDropoffDocking
	CategoryCharger
)

func (c Category) String() string {
	switch c {
	case CategoryShelf:
		return "shelf"
	case CategoryShelfDocking:
		return "shelf_docking"
	case CategoryPickup:
		return "pickup"
	case CategoryPickupDocking:
		return "pickup_docking"
	case CategoryDropoff:
		return "dropoff"
	case CategoryDropoffDocking:
		return "dropoff_docking"
	case CategoryCharger:
		return "charger"
	default:
		return "unknown"
	}
}

// IsDocking reports whether the point is a stand-off/approach position.
func (c Category) IsDocking() bool {
	return c == CategoryShelfDocking || c == CategoryPickupDocking || c == CategoryDropoffDocking
}

// Classify derives a point's category from its id using the site naming
// convention: <base>, <base>_load, <base>_load_docking; charger points
// match "charg" case-insensitively anywhere in the id.
func Classify(id string) Category {
	lower := strings.ToLower(id)
	if strings.Contains(lower, "charg") {
		return CategoryCharger
	}

	docking := strings.HasSuffix(lower, "_docking")
	base := BaseID(id)
	lowerBase := strings.ToLower(base)

	switch {
	case strings.Contains(lowerBase, "pick"):
		if docking {
			return CategoryPickupDocking
		}
		return CategoryPickup
	case strings.Contains(lowerBase, "drop"):
		if docking {
			return CategoryDropoffDocking
		}
		return CategoryDropoff
	case isShelfBase(lowerBase):
		if docking {
			return CategoryShelfDocking
		}
		return CategoryShelf
	}
	return CategoryUnknown
}

// isShelfBase reports whether a base id looks like a shelf number ("104").
func isShelfBase(base string) bool {
	if base == "" {
		return false
	}
	for _, r := range base {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
