package advisor

import "regexp"

// retrievalTriggers are follow-up phrasings that ask for fresh evidence
// rather than a restatement of advice already given. Matching is
// case-insensitive and any single hit routes the turn through retrieval.
var retrievalTriggers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwhich\s+restaurants?\b`),
	regexp.MustCompile(`(?i)\bshow\s+me\s+(some\s+)?(examples?|reviews?)\b`),
	regexp.MustCompile(`(?i)\bwhat\s+do\s+(the\s+)?reviews?\s+say\b`),
	regexp.MustCompile(`(?i)\b(top|best|worst|lowest)[\s-]?rated\b`),
	regexp.MustCompile(`(?i)\bmore\s+(examples?|reviews?)\b`),
	regexp.MustCompile(`(?i)\bexamples?\s+of\s+\w+\s+reviews?\b`),
}

// NeedsRetrieval reports whether a follow-up message asks for review
// evidence. Messages that only reference the prior answer ("summarize
// that again") answer from context without hitting the vector store.
func NeedsRetrieval(message string) bool {
	for _, re := range retrievalTriggers {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
