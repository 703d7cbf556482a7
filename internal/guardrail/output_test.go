package guardrail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOutput_Toxicity(t *testing.T) {
	rails := New(DefaultConfig(), nil)

	res := rails.CheckOutput("Your customers are stupid and deserve bad food.", nil)
	assert.Equal(t, ActionBlock, res.Action)
	assert.Equal(t, "toxicity_filter", res.RuleType)
}

func TestCheckOutput_GroundedResponsePasses(t *testing.T) {
	rails := New(DefaultConfig(), nil)

	context := []string{
		"The biryani was excellent but the service was slow during dinner rush.",
		"Great outdoor seating, though parking is difficult on weekends.",
	}
	response := "Based on the reviews, customers mentioned slow service during the dinner rush. " +
		"Consider adding staff at peak hours. The outdoor seating is a strength worth promoting, " +
		"and reviews indicate parking difficulty on weekends, so a valet arrangement could help."

	res := rails.CheckOutput(response, context)
	assert.Equal(t, ActionAllow, res.Action)
}

func TestCheckOutput_UngroundedResponseWarns(t *testing.T) {
	rails := New(DefaultConfig(), nil)

	// Long, hedged, no grounding phrases, near-zero overlap with context.
	response := "I think restaurants probably succeed when they focus on quality. Generally speaking, " +
		"ambiance matters and usually customers might be drawn to clean venues. It could be that pricing " +
		"plays a role too, and typically marketing helps. In most cases consistency wins over novelty " +
		"when owners invest patiently across seasons and maintain discipline about sourcing."

	context := []string{"zzz unrelated corpus tokens qqq"}

	res := rails.CheckOutput(response, context)
	assert.Equal(t, ActionWarn, res.Action)
	assert.Equal(t, "hallucination_filter", res.RuleType)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
}

func TestCheckOutput_CompetitorRedaction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableGroundingFilter = false
	cfg.EnableCompetitorFilter = true
	rails := New(cfg, nil)

	res := rails.CheckOutput("Based on the reviews, customers compare you to KFC and Pizza Hut.", nil)
	assert.Equal(t, ActionModify, res.Action)
	assert.NotContains(t, strings.ToLower(res.ModifiedContent), "kfc")
	assert.NotContains(t, strings.ToLower(res.ModifiedContent), "pizza hut")
	assert.Contains(t, res.ModifiedContent, "[competitor restaurant]")
}

func TestCheckOutput_CompetitorFilterOffByDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableGroundingFilter = false
	rails := New(cfg, nil)

	res := rails.CheckOutput("Customers compare you to KFC.", nil)
	assert.Equal(t, ActionAllow, res.Action)
}

func TestGroundingDisclaimer(t *testing.T) {
	assert.Contains(t, GroundingDisclaimer, "general knowledge")
}
