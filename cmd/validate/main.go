// Command validate performs integrity checks on a resort catalog and the
// alert thresholds before they are deployed: field presence, coordinate
// sanity, catalog uniqueness, and threshold/cooldown consistency. It can also
// cross-check catalog coordinates against the live weather providers.
//
// Usage:
//
//	go run ./cmd/validate -resorts-file config/resorts.json
//	go run ./cmd/validate -resorts-file config/resorts.json -live
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/adapter/openweather"
	"github.com/powderline/snowfall-alert-service/internal/adapter/weatherapi"
	"github.com/powderline/snowfall-alert-service/internal/config"
	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// Utah bounding box; a catalog coordinate outside it is almost certainly a
// typo, not a new resort.
const (
	utahLatMin = 36.9
	utahLatMax = 42.1
	utahLonMin = -114.1
	utahLonMax = -109.0
)

const maxElevationFt = 30000

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	resortsFile := flag.String("resorts-file", "", "path to a resort catalog JSON file (empty validates the compiled-in catalog)")
	live := flag.Bool("live", false, "cross-check coordinates against the live weather providers (needs API keys)")
	flag.Parse()

	if code := run(*resortsFile, *live); code != 0 {
		os.Exit(code)
	}
}

func run(resortsFile string, live bool) int {
	fmt.Println("=== Resort Catalog & Threshold Validation ===")
	fmt.Println()

	if resortsFile != "" {
		os.Setenv("RESORTS_FILE", resortsFile)
	}
	locations, err := config.LoadLocations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCatalog(locations),
		validateGeography(locations),
		validateEngineSettings(),
	}
	if live {
		phases = append(phases, validateLiveProviders(locations))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Locations: %d\n", len(locations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Catalog Integrity ──
// Field presence, uniqueness, and value sanity for every location.

func validateCatalog(locations []domain.Location) *phase {
	p := &phase{name: "Phase 1: Catalog Integrity"}

	seenIDs := map[string]int{}
	seenNames := map[string]int{}
	for i, loc := range locations {
		if err := loc.Validate(); err != nil {
			p.errorf("location %d (%s): %v", i, loc.ID, err)
		}
		if prev, dup := seenIDs[loc.ID]; dup {
			p.errorf("location %d: id %q duplicates location %d", i, loc.ID, prev)
		}
		seenIDs[loc.ID] = i
		if prev, dup := seenNames[loc.Name]; dup {
			p.errorf("location %d: name %q duplicates location %d", i, loc.Name, prev)
		}
		seenNames[loc.Name] = i

		if loc.Elevation < 0 || loc.Elevation > maxElevationFt {
			p.errorf("location %d (%s): elevation %d ft outside [0, %d]", i, loc.ID, loc.Elevation, maxElevationFt)
		}
		if loc.Website != "" && !strings.HasPrefix(loc.Website, "http://") && !strings.HasPrefix(loc.Website, "https://") {
			p.errorf("location %d (%s): website %q is not an http(s) URL", i, loc.ID, loc.Website)
		}
	}
	return p
}

// ── Phase 2: Geography ──
// Coordinates must land inside the Utah bounding box and no two resorts may
// share a coordinate.

func validateGeography(locations []domain.Location) *phase {
	p := &phase{name: "Phase 2: Geography (bounding box)"}

	for i, loc := range locations {
		if loc.Lat < utahLatMin || loc.Lat > utahLatMax {
			p.errorf("location %d (%s): lat %.4f outside Utah range [%.1f, %.1f]", i, loc.ID, loc.Lat, utahLatMin, utahLatMax)
		}
		if loc.Lon < utahLonMin || loc.Lon > utahLonMax {
			p.errorf("location %d (%s): lon %.4f outside Utah range [%.1f, %.1f]", i, loc.ID, loc.Lon, utahLonMin, utahLonMax)
		}
	}

	for i := 0; i < len(locations); i++ {
		for j := i + 1; j < len(locations); j++ {
			a, b := locations[i], locations[j]
			if math.Abs(a.Lat-b.Lat) < 1e-4 && math.Abs(a.Lon-b.Lon) < 1e-4 {
				p.errorf("%s and %s share coordinates (%.4f, %.4f)", a.ID, b.ID, a.Lat, a.Lon)
			}
		}
	}
	return p
}

// ── Phase 3: Engine Settings ──
// Thresholds, tolerance, and windows from the environment must form a usable
// engine configuration.

func validateEngineSettings() *phase {
	p := &phase{name: "Phase 3: Engine Settings"}

	thresholds := domain.DefaultThresholds()
	if err := thresholds.Validate(); err != nil {
		p.errorf("default thresholds: %v", err)
	}
	if _, err := domain.NewClassifier(thresholds); err != nil {
		p.errorf("classifier: %v", err)
	}
	if _, err := domain.NewVerifier(2.0, 0.1); err != nil {
		p.errorf("verifier: %v", err)
	}

	// Severity names must round-trip so persisted cooldown records stay
	// readable.
	for _, tier := range []domain.Tier{domain.TierNone, domain.TierLight, domain.TierModerate, domain.TierHeavy} {
		data, err := json.Marshal(tier)
		if err != nil {
			p.errorf("tier %d: marshal: %v", int(tier), err)
			continue
		}
		var back domain.Tier
		if err := json.Unmarshal(data, &back); err != nil {
			p.errorf("tier %s: unmarshal: %v", tier, err)
		} else if back != tier {
			p.errorf("tier %s: round-tripped to %s", tier, back)
		}
	}
	return p
}

// ── Phase 4: Live Providers (optional) ──
// Every catalog coordinate must be resolvable by both weather providers.

func validateLiveProviders(locations []domain.Location) *phase {
	p := &phase{name: "Phase 4: Live Provider Reachability"}

	owKey := os.Getenv("OPENWEATHER_API_KEY")
	waKey := os.Getenv("WEATHERAPI_KEY")
	if owKey == "" || waKey == "" {
		p.errorf("live check needs OPENWEATHER_API_KEY and WEATHERAPI_KEY")
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sources := []domain.SnowSource{
		openweather.NewClient(owKey, 10*time.Second, logger),
		weatherapi.NewClient(waKey, 10*time.Second, logger),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, src := range sources {
		for _, loc := range locations {
			if _, err := src.FetchSnow(ctx, loc); err != nil {
				p.errorf("%s: %s: %v", src.Name(), loc.ID, err)
			}
		}
	}
	return p
}
