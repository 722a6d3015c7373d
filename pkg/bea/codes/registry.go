package codes

import (
	"sort"
	"strings"
)

// All returns every table, sorted by name.
func All() []Lookup {
	tables := []Lookup{
		Datasets,
		Methods,
		ParameterNames,
		Frequencies,
		NIPATables,
		DirectionsOfInvestment,
		Classifications,
		TypesOfInvestment,
		Components,
		Indicators,
		AreasOrCountries,
		TypesOfService,
		TradeDirections,
		Affiliations,
		GeoFipsAggregates,
		NAICSSectors,
		NAICSSubsectors,
		NAICSIndustries,
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name() < tables[j].Name() })
	return tables
}

// Find returns the table registered under name (case-insensitive).
func Find(name string) (Lookup, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range All() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
