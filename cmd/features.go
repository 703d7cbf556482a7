package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

// loadFeatures builds a restaurant profile from either a JSON file or the
// identity flags plus a list of vibe names. The file takes precedence; flags
// layer on top of it.
func loadFeatures(path, category, area, priceLevel string, vibes []string) (model.RestaurantFeatures, error) {
	var f model.RestaurantFeatures

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return f, eris.Wrap(err, "read features file")
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			return f, eris.Wrap(err, "parse features file")
		}
	}

	if category != "" {
		f.Category = category
	}
	if area != "" {
		f.Area = area
	}
	if priceLevel != "" {
		f.PriceLevel = priceLevel
	}

	if len(vibes) > 0 {
		if err := applyVibes(&f, vibes); err != nil {
			return f, err
		}
	}

	return f, nil
}

// applyVibes sets the named amenity flags to true. Names use the ingestion
// column form (outdoor_seating, live_music, ...); unknown names are an error
// rather than a silent no-op.
func applyVibes(f *model.RestaurantFeatures, names []string) error {
	known := f.VibeFields()
	patch := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			return eris.Errorf("unknown vibe: %s", name)
		}
		patch[name] = true
	}

	// Round-trip through JSON so the field tags do the name mapping.
	raw, err := json.Marshal(patch)
	if err != nil {
		return eris.Wrap(err, "encode vibes")
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return eris.Wrap(err, "apply vibes")
	}
	return nil
}
