package guardrail

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// toxicityPatterns match hate speech, discriminatory language, violence,
// and basic profanity in generated output.
var toxicityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:hate|despise|loathe)\s+(?:all|every)\s+\w+`),
	regexp.MustCompile(`(?i)\b(?:inferior|superior)\s+(?:race|religion|gender)\b`),
	regexp.MustCompile(`(?i)\b(?:kill|murder|attack|assault|harm)\s+(?:them|people|you)\b`),
	regexp.MustCompile(`(?i)\b(?:f[*u]ck|sh[*i]t|damn|bastard|idiot|stupid)\b`),
}

// uncertaintyPhrases suggest the response is drawing on general knowledge
// rather than the review corpus.
var uncertaintyPhrases = []string{
	"i think", "i believe", "probably", "might be", "could be",
	"i'm not sure but", "i don't have direct access", "without real-time access",
	"i cannot verify", "based on my knowledge", "from my understanding",
	"generally speaking", "typically", "usually", "in most cases",
}

// groundedPhrases signal the response references retrieved data.
var groundedPhrases = []string{
	"based on the reviews", "according to the data", "the reviews show",
	"customers mentioned", "from the database", "the feedback indicates",
	"reviews indicate", "based on customer feedback",
}

// competitorNames are filtered out of responses when the competitor filter
// is enabled.
var competitorNames = []string{
	"mcdonalds", "mcdonald's", "kfc", "pizza hut", "dominos", "domino's",
	"burger king", "subway", "hardees", "hardee's",
}

// CheckOutput moderates a generated response. Toxic output blocks outright;
// an ungrounded response warns so the caller can degrade it with a
// disclaimer; competitor mentions get redacted in place.
func (r *Rails) CheckOutput(text string, retrievedContext []string) Result {
	if r.cfg.EnableToxicityFilter {
		if res := r.checkToxicity(text); res.Action == ActionBlock {
			if r.counters != nil {
				r.counters.RecordOutputBlock()
			}
			zap.L().Warn("output guardrail blocked", zap.String("rule", res.RuleType))
			return res
		}
	}

	if r.cfg.EnableGroundingFilter {
		if res := r.checkGrounding(text, retrievedContext); res.Action == ActionWarn {
			zap.L().Info("output grounding warning",
				zap.Float64("score", res.Confidence),
			)
			return res
		}
	}

	if r.cfg.EnableCompetitorFilter {
		if res := r.checkCompetitors(text); res.Action == ActionModify {
			return res
		}
	}

	return Result{Action: ActionAllow, RuleType: "all_output_checks", Confidence: 1}
}

func (r *Rails) checkToxicity(text string) Result {
	for _, pattern := range toxicityPatterns {
		if pattern.MatchString(text) {
			return Result{
				Action:     ActionBlock,
				RuleType:   "toxicity_filter",
				Reason:     "potentially toxic content detected",
				Confidence: 1,
			}
		}
	}
	return Result{Action: ActionAllow, RuleType: "toxicity_filter", Confidence: 1}
}

// checkGrounding scores how likely the response is untethered from the
// review corpus: many uncertainty phrases add 0.3, a long response with no
// grounding phrase adds 0.3, and under 10% word overlap with the retrieved
// context adds 0.4. Scores at or above the threshold warn.
func (r *Rails) checkGrounding(response string, retrievedContext []string) Result {
	lower := strings.ToLower(response)
	score := 0.0

	uncertain := 0
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) {
			uncertain++
		}
	}
	if uncertain > 2 {
		score += 0.3
	}

	grounded := 0
	for _, phrase := range groundedPhrases {
		if strings.Contains(lower, phrase) {
			grounded++
		}
	}
	if grounded == 0 && len(response) > 200 {
		score += 0.3
	}

	if len(retrievedContext) > 0 {
		contextWords := wordSet(strings.ToLower(strings.Join(retrievedContext, " ")))
		responseWords := wordSet(lower)
		overlap := 0
		for w := range responseWords {
			if _, ok := contextWords[w]; ok {
				overlap++
			}
		}
		ratio := float64(overlap) / float64(max(len(responseWords), 1))
		if ratio < 0.1 {
			score += 0.4
		}
	}

	if score >= r.cfg.GroundingThreshold {
		return Result{
			Action:     ActionWarn,
			RuleType:   "hallucination_filter",
			Reason:     fmt.Sprintf("response may not be grounded in the review corpus (score: %.2f)", score),
			Confidence: score,
		}
	}
	return Result{Action: ActionAllow, RuleType: "hallucination_filter", Confidence: 1 - score}
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (r *Rails) checkCompetitors(text string) Result {
	lower := strings.ToLower(text)
	var mentioned []string
	for _, name := range competitorNames {
		if strings.Contains(lower, name) {
			mentioned = append(mentioned, name)
		}
	}
	if len(mentioned) == 0 {
		return Result{Action: ActionAllow, RuleType: "competitor_filter", Confidence: 1}
	}

	modified := text
	for _, name := range mentioned {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
		modified = re.ReplaceAllString(modified, "[competitor restaurant]")
	}
	return Result{
		Action:          ActionModify,
		RuleType:        "competitor_filter",
		Reason:          "competitor mentions filtered: " + strings.Join(mentioned, ", "),
		ModifiedContent: modified,
		Confidence:      1,
	}
}
