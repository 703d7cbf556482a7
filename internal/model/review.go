package model

// ReviewMetadata is the structured metadata stored alongside each review.
// Column names mirror the ingestion schema.
type ReviewMetadata struct {
	Category   string `json:"category"`
	Area       string `json:"area"`
	PriceLevel string `json:"price_level"`

	DineIn                bool `json:"dine_in"`
	Takeout               bool `json:"takeout"`
	Delivery              bool `json:"delivery"`
	Reservable            bool `json:"reservable"`
	ServesBreakfast       bool `json:"serves_breakfast"`
	ServesLunch           bool `json:"serves_lunch"`
	ServesDinner          bool `json:"serves_dinner"`
	ServesCoffee          bool `json:"serves_coffee"`
	ServesDessert         bool `json:"serves_dessert"`
	OutdoorSeating        bool `json:"outdoor_seating"`
	LiveMusic             bool `json:"live_music"`
	GoodForChildren       bool `json:"good_for_children"`
	GoodForGroups         bool `json:"good_for_groups"`
	GoodForWatchingSports bool `json:"good_for_watching_sports"`
	Restroom              bool `json:"restroom"`
	ParkingFreeLot        bool `json:"parking_free_lot"`
	ParkingFreeStreet     bool `json:"parking_free_street"`
	AcceptsDebitCards     bool `json:"accepts_debit_cards"`
	AcceptsCashOnly       bool `json:"accepts_cash_only"`
	WheelchairAccessible  bool `json:"wheelchair_accessible"`
	IsOpen247             bool `json:"is_open_24_7"`
	OpenAfterMidnight     bool `json:"open_after_midnight"`
	IsClosedAnyDay        bool `json:"is_closed_any_day"`
}

// ReviewDocument is one ingested review.
type ReviewDocument struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Rating   float64        `json:"rating"`
	Metadata ReviewMetadata `json:"metadata"`
}

// ScoredReview is a retrieved review with its similarity distance.
// Lower distance means closer match.
type ScoredReview struct {
	Review   ReviewDocument `json:"review"`
	Distance float64        `json:"distance"`
}

// RetrievalResult is the outcome of one progressive retrieval pass.
// Tier records which filter level produced the reviews; an empty Reviews
// slice with the final tier means nothing matched anywhere.
type RetrievalResult struct {
	Reviews []ScoredReview `json:"reviews"`
	Tier    int            `json:"tier"`
}

// Empty reports whether retrieval found nothing.
func (r RetrievalResult) Empty() bool {
	return len(r.Reviews) == 0
}

// Texts returns the review bodies in retrieval order.
func (r RetrievalResult) Texts() []string {
	out := make([]string, len(r.Reviews))
	for i, sr := range r.Reviews {
		out[i] = sr.Review.Text
	}
	return out
}
