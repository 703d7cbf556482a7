// Package retrieval plans and executes progressive-relaxation review search.
package retrieval

import (
	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/vectorstore"
)

// DefaultVibeAllowlist names the amenity fields allowed to tighten the
// strictest filter level.
var DefaultVibeAllowlist = []string{"is_open_24_7", "outdoor_seating", "live_music"}

// FilterLevel is one step in the relaxation ladder. Tier 0 is strictest.
type FilterLevel struct {
	Tier      int
	Predicate vectorstore.Predicate
}

// Plan builds the three-level relaxation ladder for a restaurant profile:
//
//	tier 0: identity fields plus allow-listed vibes that are true
//	tier 1: identity fields only
//	tier 2: category only
//
// Empty identity fields are omitted rather than matched against empty
// strings. Each successive tier's predicate is a subset of the previous one.
func Plan(features model.RestaurantFeatures, vibeAllowlist []string) []FilterLevel {
	if vibeAllowlist == nil {
		vibeAllowlist = DefaultVibeAllowlist
	}

	identity := vectorstore.Predicate{}
	if features.Category != "" {
		identity = append(identity, vectorstore.Condition{Field: "category", Value: features.Category})
	}
	if features.Area != "" {
		identity = append(identity, vectorstore.Condition{Field: "area", Value: features.Area})
	}
	if features.PriceLevel != "" {
		identity = append(identity, vectorstore.Condition{Field: "price_level", Value: features.PriceLevel})
	}

	strict := append(vectorstore.Predicate{}, identity...)
	for _, vibe := range features.ActiveVibes(vibeAllowlist) {
		strict = append(strict, vectorstore.Condition{Field: vibe, Value: true})
	}

	category := vectorstore.Predicate{}
	if features.Category != "" {
		category = append(category, vectorstore.Condition{Field: "category", Value: features.Category})
	}

	return []FilterLevel{
		{Tier: 0, Predicate: strict},
		{Tier: 1, Predicate: identity},
		{Tier: 2, Predicate: category},
	}
}
