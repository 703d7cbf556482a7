// Package advisor orchestrates consultation turns: guardrails, retrieval,
// prompt rendering, and LLM generation.
package advisor

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

const systemPrompt = "You are an expert Restaurant Consultant for the Karachi market. " +
	"You advise restaurant owners using historical customer reviews from a curated database. " +
	"Ground every claim in the reviews you are given; never invent specific facts about restaurants."

// SystemPrompt returns the consultant system prompt sent with every
// generation. Exposed so the warmup path can prime the prompt cache with
// the exact same text.
func SystemPrompt() string { return systemPrompt }

// noReviewsMessage is returned when retrieval found nothing to ground on.
const noReviewsMessage = "No relevant historical reviews found to base advice on. " +
	"Try broadening the restaurant profile (category, area, or price level)."

var titleCaser = cases.Title(language.English)

// prettyPriceLevel turns enum-style price values ("PRICE_LEVEL_MODERATE")
// into readable text ("Moderate"). Plain values pass through title-cased.
func prettyPriceLevel(v string) string {
	v = strings.TrimPrefix(v, "PRICE_LEVEL_")
	v = strings.ReplaceAll(v, "_", " ")
	return titleCaser.String(strings.ToLower(v))
}

// featureDescription renders the client's restaurant profile for the prompt.
func featureDescription(features model.RestaurantFeatures, vibeAllowlist []string) string {
	category := features.Category
	if category == "" {
		category = "restaurant"
	}
	area := features.Area
	if area == "" {
		area = "Karachi"
	}
	desc := fmt.Sprintf("%s in %s", category, area)
	if features.PriceLevel != "" {
		desc += fmt.Sprintf(" at a %s price level", prettyPriceLevel(features.PriceLevel))
	}

	var vibes []string
	for _, v := range features.ActiveVibes(vibeAllowlist) {
		switch v {
		case "is_open_24_7":
			vibes = append(vibes, "24/7 operation")
		default:
			vibes = append(vibes, strings.ReplaceAll(v, "_", " "))
		}
	}
	if len(vibes) > 0 {
		desc += " with " + strings.Join(vibes, ", ")
	}
	return desc
}

// buildPrompt renders the consultation prompt from the profile and the
// retrieved reviews. Ratings are included when present so the model can
// weigh sentiment.
func buildPrompt(features model.RestaurantFeatures, reviews []model.ScoredReview, vibeAllowlist []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A client is opening a new %s.\n", featureDescription(features, vibeAllowlist))
	sb.WriteString("Here are reviews from similar existing restaurants with matching features:\n---\n")
	for _, sr := range reviews {
		if sr.Review.Rating > 0 {
			fmt.Fprintf(&sb, "- [%.1f stars] %s\n", sr.Review.Rating, sr.Review.Text)
		} else {
			fmt.Fprintf(&sb, "- %s\n", sr.Review.Text)
		}
	}
	sb.WriteString("---\n")
	sb.WriteString("Based ONLY on these reviews, list 3 key success factors and 1 potential pitfall for the new owner. Be concise.")
	return sb.String()
}
