package providers

import "strings"

// Cost is a storage-cost preference.
type Cost string

const (
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

// Location is a coarse geographic preference.
type Location string

const (
	NorthAmerica Location = "north_america"
	SouthAmerica Location = "south_america"
	Europe       Location = "europe"
	Others       Location = "others"
)

// ParseCost normalizes input to a Cost, defaulting to low.
func ParseCost(s string) Cost {
	switch Cost(strings.ToLower(s)) {
	case CostMedium:
		return CostMedium
	case CostHigh:
		return CostHigh
	default:
		return CostLow
	}
}

// ParseLocation normalizes input to a Location, defaulting to others.
func ParseLocation(s string) Location {
	switch Location(strings.ToLower(s)) {
	case NorthAmerica:
		return NorthAmerica
	case SouthAmerica:
		return SouthAmerica
	case Europe:
		return Europe
	default:
		return Others
	}
}

// Resolve maps a {cost, location} preference to a provider:
// low cost goes to Backblaze, medium to Google, and high cost splits by
// region between Azure (North America, Europe) and Amazon (elsewhere).
func Resolve(cost Cost, location Location) Type {
	switch cost {
	case CostLow:
		return Backblaze
	case CostMedium:
		return Google
	default:
		switch location {
		case NorthAmerica, Europe:
			return Azure
		default:
			return Amazon
		}
	}
}
