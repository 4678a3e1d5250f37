/*
Package leads turns pasted lead dumps into structured lead records.

PIPELINE:
  raw text -> Normalize -> Split -> ExtractFields (per chunk) -> Merge

  Every stage is pure and total. Garbage in yields an empty slice, never
  an error. The heuristics target dumps copied from a ticketing system:
  "new <name> <route> ..." header lines, emails, phones, "Lead ID" labels.

SEE ALSO:
  - extract.go: one named extractor per field family
  - split.go: single vs. multi-lead detection
  - merge.go: identity matching and dedup
*/
package leads

import "github.com/warp/followup-engine/generic"

// ParseText extracts lead records from raw pasted text.
func ParseText(raw string) []generic.Lead {
	text := Normalize(raw)
	chunks := Split(text)
	records := make([]generic.Lead, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, ExtractFields(c))
	}
	return Merge(records)
}
