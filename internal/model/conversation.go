package model

// TurnRole identifies who produced a conversation turn.
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one message in a consultation conversation.
type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// ConversationContext carries the state of an ongoing consultation. The
// caller owns the context between turns; turns are strictly append-only.
// Concurrent turns against the same context are not supported — interleaved
// writers are last-write-wins.
type ConversationContext struct {
	Features  RestaurantFeatures `json:"features"`
	Retrieved []ScoredReview     `json:"retrieved"`
	Tier      int                `json:"tier"`
	Turns     []Turn             `json:"turns"`
}

// NewConversation starts a consultation for the given restaurant profile.
func NewConversation(features RestaurantFeatures) *ConversationContext {
	return &ConversationContext{Features: features}
}

// MergeRetrieval appends freshly retrieved reviews to the accumulated
// context, skipping documents already present. Earlier reviews are never
// removed.
func (c *ConversationContext) MergeRetrieval(result RetrievalResult) {
	seen := make(map[string]struct{}, len(c.Retrieved))
	for _, sr := range c.Retrieved {
		seen[sr.Review.ID] = struct{}{}
	}
	for _, sr := range result.Reviews {
		if _, ok := seen[sr.Review.ID]; ok {
			continue
		}
		c.Retrieved = append(c.Retrieved, sr)
		seen[sr.Review.ID] = struct{}{}
	}
	c.Tier = result.Tier
}

// AddTurn appends a turn to the transcript.
func (c *ConversationContext) AddTurn(role TurnRole, content string) {
	c.Turns = append(c.Turns, Turn{Role: role, Content: content})
}

// ReviewTexts returns the accumulated review bodies.
func (c *ConversationContext) ReviewTexts() []string {
	out := make([]string, len(c.Retrieved))
	for i, sr := range c.Retrieved {
		out[i] = sr.Review.Text
	}
	return out
}
