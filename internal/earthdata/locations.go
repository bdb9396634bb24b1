package earthdata

import (
	"fmt"
	"sort"
	"strings"
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// knownLocations maps supported city names to their coordinates.
var knownLocations = map[string]Coordinates{
	"madrid":    {Latitude: 40.4168, Longitude: -3.7038},
	"barcelona": {Latitude: 41.3874, Longitude: 2.1686},
	"valencia":  {Latitude: 39.4699, Longitude: -0.3763},
	"sevilla":   {Latitude: 37.3891, Longitude: -5.9845},
	"bilbao":    {Latitude: 43.2630, Longitude: -2.9350},
	"zaragoza":  {Latitude: 41.6488, Longitude: -0.8891},
}

// UnknownLocationError is returned when a city name is not in the supported
// set.
type UnknownLocationError struct {
	Name string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("unknown location %q, supported: %s", e.Name, strings.Join(LocationNames(), ", "))
}

// LookupLocation resolves a city name to coordinates. Matching is
// case-insensitive.
func LookupLocation(name string) (Coordinates, error) {
	coords, ok := knownLocations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Coordinates{}, &UnknownLocationError{Name: name}
	}
	return coords, nil
}

// LocationNames returns the supported city names in sorted order.
func LocationNames() []string {
	names := make([]string, 0, len(knownLocations))
	for name := range knownLocations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
