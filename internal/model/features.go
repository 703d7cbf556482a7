package model

import (
	"fmt"
	"strings"
)

// RestaurantFeatures describes the restaurant profile a user is asking about.
// The three identity fields drive retrieval filtering; the amenity flags are
// optional vibes that tighten the strictest filter level when set.
type RestaurantFeatures struct {
	Category   string `json:"category"`
	Area       string `json:"area"`
	PriceLevel string `json:"price_level"`

	DineIn                bool `json:"dine_in,omitempty"`
	Takeout               bool `json:"takeout,omitempty"`
	Delivery              bool `json:"delivery,omitempty"`
	Reservable            bool `json:"reservable,omitempty"`
	ServesBreakfast       bool `json:"serves_breakfast,omitempty"`
	ServesLunch           bool `json:"serves_lunch,omitempty"`
	ServesDinner          bool `json:"serves_dinner,omitempty"`
	ServesCoffee          bool `json:"serves_coffee,omitempty"`
	ServesDessert         bool `json:"serves_dessert,omitempty"`
	OutdoorSeating        bool `json:"outdoor_seating,omitempty"`
	LiveMusic             bool `json:"live_music,omitempty"`
	GoodForChildren       bool `json:"good_for_children,omitempty"`
	GoodForGroups         bool `json:"good_for_groups,omitempty"`
	GoodForWatchingSports bool `json:"good_for_watching_sports,omitempty"`
	Restroom              bool `json:"restroom,omitempty"`
	ParkingFreeLot        bool `json:"parking_free_lot,omitempty"`
	ParkingFreeStreet     bool `json:"parking_free_street,omitempty"`
	AcceptsDebitCards     bool `json:"accepts_debit_cards,omitempty"`
	AcceptsCashOnly       bool `json:"accepts_cash_only,omitempty"`
	WheelchairAccessible  bool `json:"wheelchair_accessible,omitempty"`
	IsOpen247             bool `json:"is_open_24_7,omitempty"`
	OpenAfterMidnight     bool `json:"open_after_midnight,omitempty"`
	IsClosedAnyDay        bool `json:"is_closed_any_day,omitempty"`
}

// VibeFields maps amenity field names to their values. Field names match the
// ingested metadata column names.
func (f RestaurantFeatures) VibeFields() map[string]bool {
	return map[string]bool{
		"dine_in":                  f.DineIn,
		"takeout":                  f.Takeout,
		"delivery":                 f.Delivery,
		"reservable":               f.Reservable,
		"serves_breakfast":         f.ServesBreakfast,
		"serves_lunch":             f.ServesLunch,
		"serves_dinner":            f.ServesDinner,
		"serves_coffee":            f.ServesCoffee,
		"serves_dessert":           f.ServesDessert,
		"outdoor_seating":          f.OutdoorSeating,
		"live_music":               f.LiveMusic,
		"good_for_children":        f.GoodForChildren,
		"good_for_groups":          f.GoodForGroups,
		"good_for_watching_sports": f.GoodForWatchingSports,
		"restroom":                 f.Restroom,
		"parking_free_lot":         f.ParkingFreeLot,
		"parking_free_street":      f.ParkingFreeStreet,
		"accepts_debit_cards":      f.AcceptsDebitCards,
		"accepts_cash_only":        f.AcceptsCashOnly,
		"wheelchair_accessible":    f.WheelchairAccessible,
		"is_open_24_7":             f.IsOpen247,
		"open_after_midnight":      f.OpenAfterMidnight,
		"is_closed_any_day":        f.IsClosedAnyDay,
	}
}

// ActiveVibes returns the allow-listed vibe fields that are set to true,
// in the order of the allow list. Vibes outside the allow list never
// participate in filtering.
func (f RestaurantFeatures) ActiveVibes(allowlist []string) []string {
	vibes := f.VibeFields()
	var active []string
	for _, name := range allowlist {
		if vibes[name] {
			active = append(active, name)
		}
	}
	return active
}

// QueryText synthesizes the semantic search text for the initial retrieval.
func (f RestaurantFeatures) QueryText() string {
	return fmt.Sprintf("Reviews for a %s in %s that is %s price.", f.Category, f.Area, f.PriceLevel)
}

// Summary renders a short human-readable profile line for prompts and logs.
func (f RestaurantFeatures) Summary(vibeAllowlist []string) string {
	parts := []string{}
	if f.Category != "" {
		parts = append(parts, f.Category)
	}
	if f.Area != "" {
		parts = append(parts, "in "+f.Area)
	}
	if f.PriceLevel != "" {
		parts = append(parts, f.PriceLevel+" price level")
	}
	line := strings.Join(parts, ", ")
	if vibes := f.ActiveVibes(vibeAllowlist); len(vibes) > 0 {
		readable := make([]string, len(vibes))
		for i, v := range vibes {
			readable[i] = strings.ReplaceAll(v, "_", " ")
		}
		line += " (" + strings.Join(readable, ", ") + ")"
	}
	return line
}

// Echo returns the identity fields plus active vibes for response provenance.
func (f RestaurantFeatures) Echo(vibeAllowlist []string) map[string]any {
	echo := map[string]any{}
	if f.Category != "" {
		echo["category"] = f.Category
	}
	if f.Area != "" {
		echo["area"] = f.Area
	}
	if f.PriceLevel != "" {
		echo["price_level"] = f.PriceLevel
	}
	for _, v := range f.ActiveVibes(vibeAllowlist) {
		echo[v] = true
	}
	return echo
}
