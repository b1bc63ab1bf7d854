package bills

import (
	"strings"

	"github.com/sells-group/billscan/pkg/legiscan"
)

// keywordSynonyms lists accepted stand-ins per search keyword, lowercased.
// The upstream search index matches inflections the exact phrase check
// misses, so a hit that only matches a synonym is still a real hit.
var keywordSynonyms = map[string][]string{
	"prior authorization": {
		"prior auth",
		"preauthorization",
		"pre-authorization",
		"pre-certification",
		"precertification",
	},
	"utilization review": {
		"utilization management",
		"utilisation review",
	},
	"utilization management": {
		"utilization review",
	},
	"prompt pay": {
		"prompt payment",
	},
	"prompt payment": {
		"prompt pay",
	},
	"clean claim": {
		"clean claims",
	},
	"clean claims": {
		"clean claim",
	},
	"artificial intelligence": {
		"machine learning",
		"algorithmic",
	},
	"automated decision making": {
		"automated decision-making",
		"automated decisionmaking",
	},
}

// MatchesKeyword reports whether the bill plausibly matches keyword,
// searching title, description, history actions, and sponsor names.
//
// Matching is deliberately tolerant: the exact phrase, a spacing/hyphen
// insensitive variant, or a known synonym all count. Over-filtering costs
// more than a stray extra row here, so ambiguity resolves toward accepting.
func MatchesKeyword(b *legiscan.Bill, keyword string) bool {
	if b == nil {
		return false
	}

	var sb strings.Builder
	sb.WriteString(b.Title)
	sb.WriteByte(' ')
	sb.WriteString(b.Description)
	for _, h := range b.History {
		sb.WriteByte(' ')
		sb.WriteString(h.Action)
	}
	for _, s := range b.Sponsors {
		sb.WriteByte(' ')
		sb.WriteString(s.Name)
	}
	text := strings.ToLower(sb.String())

	kw := strings.ToLower(keyword)
	if strings.Contains(text, kw) {
		return true
	}

	// Spacing and hyphenation drift: "prior-authorization", "promptpay".
	collapsed := collapse(text)
	if strings.Contains(collapsed, collapse(kw)) {
		return true
	}

	for _, syn := range keywordSynonyms[kw] {
		if strings.Contains(text, syn) || strings.Contains(collapsed, collapse(syn)) {
			return true
		}
	}

	return false
}

// collapse strips spaces and hyphens so spelling variants compare equal.
func collapse(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}
