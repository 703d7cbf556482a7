package guardrail

// BlockedResponse returns the safe fallback message for a blocking result.
func BlockedResponse(res Result) string {
	switch res.RuleType {
	case "pii_detection":
		return "I noticed your message contains personal information (like email, phone number, or ID). " +
			"For your privacy and security, please remove any personal details and rephrase your question. " +
			"I'm here to help with restaurant business advice!"
	case "prompt_injection":
		return "I'm designed to help with restaurant business advice for Taste Karachi. " +
			"How can I assist you with your restaurant planning today?"
	case "off_topic":
		return "I specialize in restaurant business consultation for the Karachi market. " +
			"I'd be happy to help with questions about menu planning, location strategy, " +
			"customer experience, pricing, or any other restaurant-related topics. " +
			"What would you like to know?"
	case "toxicity_filter":
		return "I'm here to provide helpful, professional advice for your restaurant business. " +
			"Let me know how I can assist you with Taste Karachi!"
	default:
		return "I'm sorry, but I couldn't process that request. " +
			"How can I help you with your restaurant business today?"
	}
}

// GroundingDisclaimer is appended to responses that fail the grounding check.
const GroundingDisclaimer = "\n\n*Note: This response is based on general knowledge. " +
	"For specific data about restaurants in Karachi, please ask about " +
	"reviews or specific restaurant features in our database.*"
