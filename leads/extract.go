package leads

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/warp/followup-engine/generic"
)

// =============================================================================
// EXTRACTORS - One independent heuristic per field family
// =============================================================================

// Extractor pulls one field out of a normalized single-lead chunk.
// Extract sees the fields filled by earlier extractors, never their patterns.
type Extractor struct {
	Field   string
	Extract func(chunk string, partial generic.Lead) string
	Assign  func(l *generic.Lead, value string)
}

// Extractors runs in order; each field is first-match-wins.
var Extractors = []Extractor{
	{Field: "email", Extract: func(c string, _ generic.Lead) string { return ExtractEmail(c) }, Assign: func(l *generic.Lead, v string) { l.Email = v }},
	{Field: "phone", Extract: func(c string, _ generic.Lead) string { return ExtractPhone(c) }, Assign: func(l *generic.Lead, v string) { l.Phone = v }},
	{Field: "route", Extract: func(c string, _ generic.Lead) string { return ExtractRoute(c) }, Assign: func(l *generic.Lead, v string) { l.Route = v }},
	{Field: "name", Extract: func(c string, p generic.Lead) string { return ExtractName(c, p.Email) }, Assign: func(l *generic.Lead, v string) { l.Name = v }},
	{Field: "dates", Extract: func(c string, _ generic.Lead) string { return ExtractDates(c) }, Assign: func(l *generic.Lead, v string) { l.Dates = v }},
	{Field: "pax", Extract: func(c string, _ generic.Lead) string { return ExtractPax(c) }, Assign: func(l *generic.Lead, v string) { l.Pax = v }},
	{Field: "leadId", Extract: func(c string, _ generic.Lead) string { return ExtractLeadID(c) }, Assign: func(l *generic.Lead, v string) { l.LeadID = v }},
	{Field: "cabin", Extract: func(c string, _ generic.Lead) string { return ExtractCabin(c) }, Assign: func(l *generic.Lead, v string) { l.Cabin = v }},
}

// ExtractFields runs every extractor over one chunk.
func ExtractFields(chunk string) generic.Lead {
	var l generic.Lead
	for _, e := range Extractors {
		e.Assign(&l, e.Extract(chunk, l))
	}
	return l
}

// =============================================================================
// EMAIL
// =============================================================================

var (
	emailRE      = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	validEmailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// FindEmails returns every email-shaped token in order.
func FindEmails(s string) []string {
	return emailRE.FindAllString(s, -1)
}

// SafeEmail returns s trimmed if it looks like local@domain.tld, else "".
func SafeEmail(s string) string {
	s = strings.TrimSpace(s)
	if !validEmailRE.MatchString(s) {
		return ""
	}
	return s
}

func ExtractEmail(chunk string) string {
	emails := FindEmails(chunk)
	if len(emails) == 0 {
		return ""
	}
	return SafeEmail(emails[0])
}

// =============================================================================
// PHONE
// =============================================================================

var (
	isoDateTimeRE = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}(?::\d{2})?\b`)
	isoDateRE     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	phoneRE       = regexp.MustCompile(`\+?\d[\d ().-]{6,}\d`)
)

// stripISODates blanks timestamps and ISO dates so they are not read as phones.
func stripISODates(s string) string {
	s = isoDateTimeRE.ReplaceAllString(s, " ")
	return isoDateRE.ReplaceAllString(s, " ")
}

// FindPhones returns phone candidates: >=7 digits, >=8 chars, no ':'.
func FindPhones(s string) []string {
	var out []string
	for _, m := range phoneRE.FindAllString(stripISODates(s), -1) {
		m = strings.TrimSpace(m)
		if strings.Contains(m, ":") || len(m) < 8 || len(generic.PhoneDigits(m)) < 7 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ExtractPhone favors the first 10-15 digit candidate, else the first candidate.
func ExtractPhone(chunk string) string {
	phones := FindPhones(chunk)
	for _, p := range phones {
		if n := len(generic.PhoneDigits(p)); n >= 10 && n <= 15 {
			return p
		}
	}
	if len(phones) > 0 {
		return phones[0]
	}
	return ""
}

// =============================================================================
// ROUTE
// =============================================================================

var (
	routeRE    = regexp.MustCompile(`\b[A-Z]{3}(?:\s*[-–—→|]{1,2}\s*[A-Z]{3})+\b`)
	routeSepRE = regexp.MustCompile(`\s*[-–—→|]{1,2}\s*`)
)

func ExtractRoute(chunk string) string {
	m := routeRE.FindString(chunk)
	if m == "" {
		return ""
	}
	return strings.ToUpper(routeSepRE.ReplaceAllString(m, "-"))
}

// =============================================================================
// NAME
// =============================================================================

var (
	lineNewMarkerRE = regexp.MustCompile(`(?im)^new(?:[ :]+lead)?\b[ :]+(.*)$`)
	anyNewMarkerRE  = regexp.MustCompile(`(?i)\bnew(?:[ :]+lead)?\b[ :]+([^\n]*)`)
	codeTokenRE     = regexp.MustCompile(`^[A-Z]{2,3}(?:[^A-Za-z].*)?$`)
	localSplitRE    = regexp.MustCompile(`[._-]+`)
)

// labelWords start another field, so a name never runs into them.
var labelWords = map[string]bool{
	"lead": true, "pax": true, "passenger": true, "passengers": true,
	"phone": true, "tel": true, "mobile": true, "email": true, "e-mail": true,
	"cabin": true, "business": true, "economy": true, "premium": true,
}

// ExtractName reads the text after a "new" marker, else derives a name from email.
func ExtractName(chunk, email string) string {
	for _, re := range []*regexp.Regexp{lineNewMarkerRE, anyNewMarkerRE} {
		if m := re.FindStringSubmatch(chunk); m != nil {
			if name := cutAtBoundary(m[1]); name != "" {
				return name
			}
		}
	}
	return NameFromEmail(email)
}

// cutAtBoundary keeps leading tokens until a tab or another field begins.
func cutAtBoundary(s string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	var kept []string
	for _, tok := range strings.Fields(s) {
		if isFieldBoundary(tok) {
			break
		}
		kept = append(kept, tok)
	}
	return strings.Trim(strings.Join(kept, " "), " -–—|,;:")
}

func isFieldBoundary(tok string) bool {
	if tok == "|" || strings.Contains(tok, "@") || codeTokenRE.MatchString(tok) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(tok)
	if r == '+' || unicode.IsDigit(r) {
		return true
	}
	word := strings.ToLower(strings.TrimRight(tok, ":#.,"))
	return labelWords[word]
}

// NameFromEmail capitalizes the local part's segments: "john.smith" -> "John Smith".
func NameFromEmail(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return ""
	}
	var parts []string
	for _, p := range localSplitRE.Split(local, -1) {
		if p != "" {
			parts = append(parts, capitalize(p))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// =============================================================================
// DATES
// =============================================================================

const monthPattern = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

var (
	monthRangeRE = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:(?:,\s*|\s+)\d{4})?\s*(?:-|–|—|to|→)\s*(?:` + monthPattern + `\.?\s+)?\d{1,2}(?:st|nd|rd|th)?(?:(?:,\s*|\s+)\d{4})?\b`)
	isoRangeRE   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\s*(?:→|to|–|—|-)\s*\d{4}-\d{2}-\d{2}\b`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// ExtractDates finds a month-name range, else an ISO range, as free text.
func ExtractDates(chunk string) string {
	if m := monthRangeRE.FindString(chunk); m != "" {
		return strings.TrimSpace(whitespaceRE.ReplaceAllString(m, " "))
	}
	if m := isoRangeRE.FindString(chunk); m != "" {
		return whitespaceRE.ReplaceAllString(m, " ")
	}
	return ""
}

// =============================================================================
// PAX
// =============================================================================

var paxREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:pax|passengers?)\s*[:=]?\s*(\d{1,2})\b`),
	regexp.MustCompile(`(?i)\bx\s*(\d{1,2})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:pax|passengers?)\b`),
}

func ExtractPax(chunk string) string {
	for _, re := range paxREs {
		if m := re.FindStringSubmatch(chunk); m != nil {
			return m[1]
		}
	}
	return ""
}

// =============================================================================
// LEAD ID
// =============================================================================

var (
	leadIDLabelRE = regexp.MustCompile(`(?i)\blead\s*(?:id|#)\s*[:#]?\s*(\d{4,9})\b`)
	digitRunRE    = regexp.MustCompile(`\d+`)
)

// FindLeadIDs prefers labeled ids; otherwise standalone 4-9 digit tokens that
// are neither date-like (8 digits) nor phone-like (10-11 digits).
func FindLeadIDs(s string) []string {
	var labeled []string
	for _, m := range leadIDLabelRE.FindAllStringSubmatch(s, -1) {
		labeled = append(labeled, m[1])
	}
	if len(labeled) > 0 {
		return labeled
	}

	text := blankLongPhones(s)
	var out []string
	for _, loc := range digitRunRE.FindAllStringIndex(text, -1) {
		n := loc[1] - loc[0]
		if n < 4 || n > 9 || n == 8 {
			continue
		}
		if !leadIDOpens(text, loc[0]) || !leadIDCloses(text, loc[1]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func ExtractLeadID(chunk string) string {
	ids := FindLeadIDs(chunk)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// blankLongPhones removes phone runs of 10+ digits so their groups are not ids.
func blankLongPhones(s string) string {
	return phoneRE.ReplaceAllStringFunc(s, func(m string) string {
		if len(generic.PhoneDigits(m)) >= 10 {
			return " "
		}
		return m
	})
}

func leadIDOpens(s string, start int) bool {
	if start == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:start])
	return unicode.IsSpace(r) || r == ':' || r == '>'
}

func leadIDCloses(s string, end int) bool {
	if end == len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[end:])
	return unicode.IsSpace(r) || r == '<'
}

// =============================================================================
// CABIN
// =============================================================================

var cabinRE = regexp.MustCompile(`(?i)\b(premium\s+economy|business|first|economy)\b`)

var cabinNames = map[string]string{
	"premium economy": "Premium Economy",
	"business":        "Business",
	"first":           "First",
	"economy":         "Economy",
}

func ExtractCabin(chunk string) string {
	m := cabinRE.FindStringSubmatch(chunk)
	if m == nil {
		return ""
	}
	return cabinNames[strings.ToLower(whitespaceRE.ReplaceAllString(m[1], " "))]
}
