package dialog

import "strings"

// Topic is a consultation subject the advisors cover.
type Topic struct {
	ID       string
	Label    string
	keywords []string
}

// Topics is the fixed consultation taxonomy, in menu order.
var Topics = []Topic{
	{ID: "kyc", Label: "KYC and documentation", keywords: []string{"kyc", "document", "verification", "pan", "aadhaar", "identity"}},
	{ID: "account_opening", Label: "Account opening", keywords: []string{"account", "open", "savings", "current account", "demat"}},
	{ID: "loans", Label: "Loans", keywords: []string{"loan", "emi", "mortgage", "borrow", "credit"}},
	{ID: "insurance", Label: "Insurance", keywords: []string{"insurance", "policy", "premium", "cover", "claim"}},
	{ID: "investments", Label: "Investments", keywords: []string{"invest", "mutual fund", "sip", "stocks", "portfolio", "fd", "deposit"}},
}

// ParseTopic matches a free-text reply to a topic, accepting the menu
// number or a keyword. Returns false when nothing matches.
func ParseTopic(message string) (Topic, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	for i, topic := range Topics {
		if lower == topic.ID || containsMenuNumber(lower, i+1) {
			return topic, true
		}
	}
	for _, topic := range Topics {
		for _, kw := range topic.keywords {
			if containsKeyword(lower, kw) {
				return topic, true
			}
		}
	}
	return Topic{}, false
}

// containsKeyword matches kw anchored at a word start, so "loan" still
// hits "loans" but "emi" no longer hits "premium".
func containsKeyword(text, kw string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		if start == 0 || !isKeywordChar(text[start-1]) {
			return true
		}
		idx = start + 1
	}
}

func isKeywordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// TopicByID looks a topic up by its identifier.
func TopicByID(id string) (Topic, bool) {
	for _, topic := range Topics {
		if topic.ID == id {
			return topic, true
		}
	}
	return Topic{}, false
}

func containsMenuNumber(lower string, n int) bool {
	digit := string(rune('0' + n))
	if lower == digit {
		return true
	}
	for _, field := range strings.Fields(strings.Map(stripPunct, lower)) {
		if field == digit {
			return true
		}
	}
	return false
}
