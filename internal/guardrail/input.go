package guardrail

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// piiPatterns maps PII categories to their detection patterns.
var piiPatterns = map[string]*regexp.Regexp{
	"email":       regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	"phone_pk":    regexp.MustCompile(`\b(?:\+92|0)?[0-9]{10,11}\b`),
	"credit_card": regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
	"cnic":        regexp.MustCompile(`\b\d{5}-\d{7}-\d{1}\b`),
	"passport":    regexp.MustCompile(`\b[A-Z]{2}\d{7}\b`),
}

// injectionPatterns match prompt manipulation, jailbreak, and prompt
// extraction attempts.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all|above)\s+(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(previous|all|your)\s+(instructions?|programming)`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|your)\s+(instructions?|rules)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(?:a|an)\s+\w+`),
	regexp.MustCompile(`(?i)pretend\s+(?:you\s+are|to\s+be)`),
	regexp.MustCompile(`(?i)act\s+as\s+(?:if|a|an)`),
	regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
	regexp.MustCompile(`(?i)system\s*(?:prompt|message)\s*:`),
	regexp.MustCompile(`(?i)(?:dan|developer|admin)\s*mode`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)bypass\s+(?:filter|safety|restriction)`),
	regexp.MustCompile(`(?i)unlock\s+(?:full|all)\s+(?:potential|capabilities)`),
	regexp.MustCompile(`(?i)(?:reveal|show|tell|give)\s+(?:me\s+)?(?:your|the)\s+(?:system|initial)\s+prompt`),
	regexp.MustCompile(`(?i)what\s+(?:are|were)\s+your\s+(?:original|initial)\s+instructions`),
	regexp.MustCompile(`(?i)repeat\s+(?:your|the)\s+(?:system|initial)\s+(?:prompt|message)`),
}

// offTopicPatterns match content the consultant should never engage with.
var offTopicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:election|political\s+party|vote\s+for|government\s+policy)\b`),
	regexp.MustCompile(`(?i)\b(?:hack|crack|steal|illegal|drugs?|weapon)\b`),
	regexp.MustCompile(`(?i)\b(?:medical\s+advice|legal\s+advice|financial\s+investment)\b`),
	regexp.MustCompile(`(?i)\b(?:explicit|nsfw|adult\s+content)\b`),
}

// restaurantKeywords anchor a message to the consultation domain.
var restaurantKeywords = []string{
	"restaurant", "food", "menu", "dining", "cuisine", "chef", "kitchen",
	"service", "customer", "review", "rating", "karachi", "clifton", "dha",
	"price", "delivery", "takeout", "reservation", "table", "meal",
	"breakfast", "lunch", "dinner", "cafe", "coffee", "dessert", "chinese",
	"pakistani", "thai", "biryani", "bbq", "fast food", "outdoor seating",
	"ambiance", "taste", "flavor", "spicy", "halal",
}

var greetingWords = []string{"hi", "hello", "hey", "thanks", "thank you", "bye", "ok"}

// CheckInput validates a user message. PII and injection hits always block;
// off-topic content blocks only in strict mode, otherwise long messages with
// no restaurant context get a warning.
func (r *Rails) CheckInput(text string) Result {
	if r.cfg.EnablePIIDetection {
		if res := r.checkPII(text); res.Action == ActionBlock {
			return r.blockInput(res)
		}
	}
	if r.cfg.EnableInjectionFilter {
		if res := r.checkInjection(text); res.Action == ActionBlock {
			return r.blockInput(res)
		}
	}
	if r.cfg.EnableOffTopicFilter {
		res := r.checkOffTopic(text)
		if res.Action == ActionBlock && r.cfg.StrictMode {
			return r.blockInput(res)
		}
		if res.Action == ActionWarn {
			return res
		}
	}
	return Result{Action: ActionAllow, RuleType: "all_input_checks", Confidence: 1}
}

func (r *Rails) blockInput(res Result) Result {
	if r.counters != nil {
		r.counters.RecordInputBlock()
	}
	zap.L().Warn("input guardrail blocked",
		zap.String("rule", res.RuleType),
		zap.String("reason", res.Reason),
	)
	return res
}

func (r *Rails) checkPII(text string) Result {
	var detected []string
	for _, piiType := range []string{"email", "phone_pk", "credit_card", "cnic", "passport"} {
		if piiPatterns[piiType].MatchString(text) {
			detected = append(detected, piiType)
		}
	}
	if len(detected) > 0 {
		return Result{
			Action:     ActionBlock,
			RuleType:   "pii_detection",
			Reason:     "PII detected: " + strings.Join(detected, ", "),
			Confidence: 1,
		}
	}
	return Result{Action: ActionAllow, RuleType: "pii_detection", Confidence: 1}
}

func (r *Rails) checkInjection(text string) Result {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(text) {
			return Result{
				Action:     ActionBlock,
				RuleType:   "prompt_injection",
				Reason:     "potential prompt injection detected",
				Confidence: 1,
			}
		}
	}
	return Result{Action: ActionAllow, RuleType: "prompt_injection", Confidence: 1}
}

func (r *Rails) checkOffTopic(text string) Result {
	for _, pattern := range offTopicPatterns {
		if pattern.MatchString(text) {
			return Result{
				Action:     ActionBlock,
				RuleType:   "off_topic",
				Reason:     "off-topic or inappropriate content detected",
				Confidence: 1,
			}
		}
	}

	lower := strings.ToLower(text)
	hasContext := false
	for _, kw := range restaurantKeywords {
		if strings.Contains(lower, kw) {
			hasContext = true
			break
		}
	}

	words := len(strings.Fields(text))
	isGreeting := false
	if words <= 5 {
		for _, g := range greetingWords {
			if strings.Contains(lower, g) {
				isGreeting = true
				break
			}
		}
	}

	if !hasContext && !isGreeting && words > 10 {
		// The LLM can redirect, so warn rather than block.
		return Result{
			Action:     ActionWarn,
			RuleType:   "off_topic",
			Reason:     "message may be off-topic for restaurant consultation",
			Confidence: 1,
		}
	}
	return Result{Action: ActionAllow, RuleType: "off_topic", Confidence: 1}
}
