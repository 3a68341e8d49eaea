package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// defaultResorts is the compiled-in catalog of monitored Utah resorts.
// RESORTS_FILE replaces it wholesale; ENABLED_RESORTS filters whichever
// catalog is in effect.
var defaultResorts = []domain.Location{
	{ID: "alta", Name: "Alta Ski Area", Lat: 40.5883, Lon: -111.6358, Elevation: 8530, Region: "Little Cottonwood Canyon", Website: "https://www.alta.com"},
	{ID: "snowbird", Name: "Snowbird", Lat: 40.5830, Lon: -111.6556, Elevation: 7760, Region: "Little Cottonwood Canyon", Website: "https://www.snowbird.com"},
	{ID: "brighton", Name: "Brighton Resort", Lat: 40.5977, Lon: -111.5836, Elevation: 8755, Region: "Big Cottonwood Canyon", Website: "https://www.brightonresort.com"},
	{ID: "solitude", Name: "Solitude Mountain Resort", Lat: 40.6199, Lon: -111.5919, Elevation: 7994, Region: "Big Cottonwood Canyon", Website: "https://www.solitudemountain.com"},
	{ID: "park_city", Name: "Park City Mountain", Lat: 40.6514, Lon: -111.5080, Elevation: 6900, Region: "Park City", Website: "https://www.parkcitymountain.com"},
	{ID: "deer_valley", Name: "Deer Valley Resort", Lat: 40.6374, Lon: -111.4783, Elevation: 6570, Region: "Park City", Website: "https://www.deervalley.com"},
	{ID: "snowbasin", Name: "Snowbasin Resort", Lat: 41.2160, Lon: -111.8569, Elevation: 6450, Region: "Ogden", Website: "https://www.snowbasin.com"},
	{ID: "powder_mountain", Name: "Powder Mountain", Lat: 41.3790, Lon: -111.7808, Elevation: 6895, Region: "Ogden", Website: "https://www.powdermountain.com"},
	{ID: "sundance", Name: "Sundance Mountain Resort", Lat: 40.3934, Lon: -111.5888, Elevation: 6100, Region: "Provo", Website: "https://www.sundanceresort.com"},
	{ID: "brian_head", Name: "Brian Head Resort", Lat: 37.7022, Lon: -112.8499, Elevation: 9600, Region: "Southern Utah", Website: "https://www.brianhead.com"},
}

// LoadLocations resolves the monitored location set: the RESORTS_FILE JSON
// catalog if set, otherwise the compiled-in defaults, then filtered by
// ENABLED_RESORTS (comma-separated location IDs; empty means all).
func LoadLocations() ([]domain.Location, error) {
	catalog := defaultResorts
	if path := os.Getenv("RESORTS_FILE"); path != "" {
		loaded, err := loadResortsFile(path)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	for _, loc := range catalog {
		if err := loc.Validate(); err != nil {
			return nil, err
		}
	}
	if err := checkUniqueIDs(catalog); err != nil {
		return nil, err
	}

	return filterEnabled(catalog, os.Getenv("ENABLED_RESORTS"))
}

func loadResortsFile(path string) ([]domain.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Setting: "RESORTS_FILE", Reason: err.Error()}
	}
	var locs []domain.Location
	if err := json.Unmarshal(data, &locs); err != nil {
		return nil, &domain.ConfigurationError{Setting: "RESORTS_FILE", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if len(locs) == 0 {
		return nil, &domain.ConfigurationError{Setting: "RESORTS_FILE", Reason: "catalog is empty"}
	}
	return locs, nil
}

func checkUniqueIDs(locs []domain.Location) error {
	seen := make(map[string]struct{}, len(locs))
	for _, loc := range locs {
		if _, dup := seen[loc.ID]; dup {
			return &domain.ConfigurationError{Setting: "resorts", Reason: fmt.Sprintf("duplicate location id %q", loc.ID)}
		}
		seen[loc.ID] = struct{}{}
	}
	return nil
}

func filterEnabled(catalog []domain.Location, enabled string) ([]domain.Location, error) {
	if strings.TrimSpace(enabled) == "" {
		return catalog, nil
	}

	byID := make(map[string]domain.Location, len(catalog))
	for _, loc := range catalog {
		byID[loc.ID] = loc
	}

	var out []domain.Location
	for _, raw := range strings.Split(enabled, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		loc, ok := byID[id]
		if !ok {
			return nil, &domain.ConfigurationError{Setting: "ENABLED_RESORTS", Reason: fmt.Sprintf("unknown location id %q", id)}
		}
		out = append(out, loc)
	}
	return out, nil
}
