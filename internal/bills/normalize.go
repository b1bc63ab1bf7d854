package bills

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/sells-group/billscan/internal/model"
	"github.com/sells-group/billscan/pkg/legiscan"
)

const (
	noSponsors     = "No sponsors listed"
	noAction       = "No action recorded"
	noLink         = "No link available"
	maxActionChars = 100
)

// Normalize flattens a full bill record into the export row shape.
func Normalize(b *legiscan.Bill, now time.Time) model.NormalizedRecord {
	return model.NormalizedRecord{
		Year:        b.Session.YearStart,
		State:       model.StateName(b.State),
		BillNumber:  b.BillNumber,
		Title:       b.Title,
		Summary:     b.Description,
		Sponsors:    primarySponsor(b.Sponsors),
		LastAction:  lastAction(b.History),
		BillLink:    billLink(b),
		Status:      model.StatusName(b.Status),
		ExtractedAt: model.FormatExtractedDate(now),
	}
}

// primarySponsor picks the named sponsor with the lowest sponsor order.
func primarySponsor(sponsors []legiscan.Sponsor) string {
	if len(sponsors) == 0 {
		return noSponsors
	}

	sorted := make([]legiscan.Sponsor, len(sponsors))
	copy(sorted, sponsors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SponsorOrder < sorted[j].SponsorOrder
	})

	for _, s := range sorted {
		if s.Name != "" {
			return s.Name
		}
	}
	return noSponsors
}

// lastAction returns the most recent history action text, date stripped and
// truncated for readability.
func lastAction(history []legiscan.HistoryEntry) string {
	if len(history) == 0 {
		return noAction
	}

	latest := history[0]
	for _, h := range history[1:] {
		// Dates are YYYY-MM-DD, so string order is chronological order.
		if h.Date > latest.Date {
			latest = h
		}
	}

	text := latest.Action
	if text == "" {
		return noAction
	}
	return truncateAction(text)
}

// truncateAction caps action text at maxActionChars runes so a multi-byte
// character at the boundary is never split.
func truncateAction(text string) string {
	if utf8.RuneCountInString(text) <= maxActionChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxActionChars]) + "..."
}

// billLink prefers the state legislature's own page over the LegiScan one.
func billLink(b *legiscan.Bill) string {
	if b.StateLink != "" {
		return b.StateLink
	}
	if b.StateURL != "" {
		return b.StateURL
	}
	if b.URL != "" {
		return b.URL
	}
	return noLink
}
