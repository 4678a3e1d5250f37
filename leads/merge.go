package leads

import (
	"strings"

	"github.com/warp/followup-engine/generic"
)

// Merge folds over-segmented records together and removes duplicates.
// Records match on case-insensitive email, digits-only phone or exact lead id.
// Output keeps first-seen order.
func Merge(records []generic.Lead) []generic.Lead {
	var acc []generic.Lead
	for _, r := range records {
		if !r.Identifiable() {
			continue
		}
		if i := findMatch(acc, r); i >= 0 {
			acc[i] = mergeLead(acc[i], r)
			continue
		}
		acc = append(acc, r)
	}
	return dedupByIdentity(acc)
}

func findMatch(acc []generic.Lead, r generic.Lead) int {
	email := strings.ToLower(r.Email)
	phone := generic.PhoneDigits(r.Phone)
	for i, a := range acc {
		switch {
		case email != "" && strings.ToLower(a.Email) == email:
			return i
		case phone != "" && generic.PhoneDigits(a.Phone) == phone:
			return i
		case r.LeadID != "" && a.LeadID == r.LeadID:
			return i
		}
	}
	return -1
}

// mergeLead keeps the first non-empty value per field, except that a
// multi-word name replaces a single-token one.
func mergeLead(into, from generic.Lead) generic.Lead {
	out := into
	out.Name = preferName(into.Name, from.Name)
	out.Email = firstNonEmpty(into.Email, from.Email)
	out.Phone = firstNonEmpty(into.Phone, from.Phone)
	out.Route = firstNonEmpty(into.Route, from.Route)
	out.Dates = firstNonEmpty(into.Dates, from.Dates)
	out.Pax = firstNonEmpty(into.Pax, from.Pax)
	out.LeadID = firstNonEmpty(into.LeadID, from.LeadID)
	out.Cabin = firstNonEmpty(into.Cabin, from.Cabin)
	out.Notes = firstNonEmpty(into.Notes, from.Notes)
	return out
}

func preferName(current, incoming string) string {
	if current == "" {
		return incoming
	}
	if incoming != "" && !strings.Contains(current, " ") && strings.Contains(incoming, " ") {
		return incoming
	}
	return current
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func dedupByIdentity(leads []generic.Lead) []generic.Lead {
	seen := make(map[string]struct{}, len(leads))
	out := make([]generic.Lead, 0, len(leads))
	for _, l := range leads {
		k := l.IdentityKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out
}
