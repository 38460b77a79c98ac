// SPDX-License-Identifier: Apache-2.0

package fields

// Canonical field keys of the built-in lane table.
const (
	KeyLaneCode     = "laneCode"
	KeyLaneName     = "laneName"
	KeyOrigin       = "origin"
	KeyDestination  = "destination"
	KeyTruckSize    = "truckSize"
	KeyDistanceKm   = "distanceKm"
	KeyTransitHours = "transitHours"
	KeyRate         = "rate"
	KeyNotes        = "notes"
)

// laneDefinitions is the built-in lane table. Alias lists should not
// overlap between fields: a header matching aliases of two fields is
// proposed for both.
var laneDefinitions = []Definition{
	{
		CanonicalField: CanonicalField{Key: KeyLaneCode, Label: "Lane Code"},
		Aliases:        []string{"lane code", "lane id", "route code", "route id", "code"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyLaneName, Label: "Lane Name"},
		Aliases:        []string{"lane", "route name", "route"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyOrigin, Label: "Origin"},
		Aliases:        []string{"origin", "pickup", "source", "from location", "start point"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyDestination, Label: "Destination", Required: true},
		Aliases:        []string{"destination", "dest", "drop", "delivery", "consignee", "to location"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyTruckSize, Label: "Truck Size", Required: true},
		Aliases:        []string{"truck size", "truck", "vehicle size", "vehicle type", "capacity", "sfr", "tonnage"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyDistanceKm, Label: "Distance (km)"},
		Aliases:        []string{"distance", "km", "kilometer", "kilometre"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyTransitHours, Label: "Transit Time (hours)"},
		Aliases:        []string{"transit", "lead time", "travel time"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyRate, Label: "Rate"},
		Aliases:        []string{"rate", "freight", "tariff", "price", "cost"},
	},
	{
		CanonicalField: CanonicalField{Key: KeyNotes, Label: "Notes"},
		Aliases:        []string{"remark", "note", "comment"},
	},
}

var defaultRegistry = MustNew(laneDefinitions)

// Default returns the built-in lane registry.
func Default() *Registry {
	return defaultRegistry
}

// DefaultDefinitions returns a copy of the built-in table, e.g. as a base
// for an override file.
func DefaultDefinitions() []Definition {
	out := make([]Definition, len(laneDefinitions))
	for i, d := range laneDefinitions {
		out[i] = Definition{CanonicalField: d.CanonicalField, Aliases: append([]string(nil), d.Aliases...)}
	}
	return out
}
