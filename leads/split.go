package leads

import (
	"regexp"
	"strings"

	"github.com/warp/followup-engine/generic"
)

var (
	newLineMarkerRE = regexp.MustCompile(`(?im)^new\b`)
	blankLineRE     = regexp.MustCompile(`\n{2,}`)
)

// IsMultiLead reports whether a normalized blob holds more than one lead:
// more than one distinct email, phone, lead id, or "new" line.
func IsMultiLead(text string) bool {
	emails := distinct(FindEmails(text), strings.ToLower)
	phones := distinct(FindPhones(text), generic.PhoneDigits)
	ids := distinct(FindLeadIDs(text), nil)
	markers := len(newLineMarkerRE.FindAllStringIndex(text, -1))
	return emails > 1 || phones > 1 || ids > 1 || markers > 1
}

// Split cuts a normalized blob into per-lead chunks.
// Single-lead text comes back as one chunk.
func Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !IsMultiLead(text) {
		return []string{text}
	}
	if chunks := splitOnMarkers(text); len(chunks) > 1 {
		return chunks
	}
	return nonEmpty(blankLineRE.Split(text, -1))
}

// splitOnMarkers cuts before every line starting with "new".
// Text before the first marker stays as its own chunk.
func splitOnMarkers(text string) []string {
	locs := newLineMarkerRE.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var parts []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			parts = append(parts, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	parts = append(parts, text[prev:])
	return nonEmpty(parts)
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func distinct(values []string, key func(string) string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key != nil {
			v = key(v)
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
