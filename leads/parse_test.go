package leads_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/followup-engine/generic"
	"github.com/warp/followup-engine/leads"
)

const twoLeadDump = `new John Smith JFK-LHR Mar 10 - Mar 17 2 pax
john.smith@example.com +1 555 123 4567
new Mary Jones CDG-NRT Business
mary@example.org`

// =============================================================================
// NORMALIZER
// =============================================================================

func TestNormalize(t *testing.T) {
	got := leads.Normalize("a  b\r\n\r\n\r\n\r\nc\t d ")
	assert.Equal(t, "a b\n\nc d", got)
}

func TestNormalize_LoneCarriageReturn(t *testing.T) {
	assert.Equal(t, "one\ntwo", leads.Normalize("one \rtwo"))
}

// =============================================================================
// SPLITTER
// =============================================================================

func TestSplit_SingleLeadStaysWhole(t *testing.T) {
	text := leads.Normalize("Hi there\njohn@example.com\nJFK-LHR")
	assert.False(t, leads.IsMultiLead(text))
	assert.Equal(t, []string{text}, leads.Split(text))
}

func TestSplit_OnNewMarkers(t *testing.T) {
	chunks := leads.Split(leads.Normalize(twoLeadDump))
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "john.smith@example.com")
	assert.Contains(t, chunks[1], "mary@example.org")
}

func TestSplit_FallsBackToBlankLines(t *testing.T) {
	text := leads.Normalize("Anna\nanna@x.com\n\nBob\nbob@y.com")
	chunks := leads.Split(text)
	assert.Equal(t, []string{"Anna\nanna@x.com", "Bob\nbob@y.com"}, chunks)
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, leads.Split(""))
}

// =============================================================================
// MERGER
// =============================================================================

func TestMerge_CaseInsensitiveEmail(t *testing.T) {
	// GIVEN: Two records sharing an email in different letter case
	// WHEN: Merged
	// THEN: Exactly one record remains, fields filled from both

	got := leads.Merge([]generic.Lead{
		{Name: "J", Email: "JOHN@Example.com"},
		{Name: "John Smith", Email: "john@example.com", Phone: "+44 20 7946 0958"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "John Smith", got[0].Name)
	assert.Equal(t, "JOHN@Example.com", got[0].Email)
	assert.Equal(t, "+44 20 7946 0958", got[0].Phone)
}

func TestMerge_MatchesByPhoneDigitsAndLeadID(t *testing.T) {
	got := leads.Merge([]generic.Lead{
		{Name: "Ann Lee", Phone: "(212) 555-0199"},
		{Route: "JFK-LHR", Phone: "212.555.0199"},
		{LeadID: "12345", Name: "Bo"},
		{LeadID: "12345", Cabin: "First"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "JFK-LHR", got[0].Route)
	assert.Equal(t, "First", got[1].Cabin)
}

func TestMerge_DropsUnidentifiable(t *testing.T) {
	got := leads.Merge([]generic.Lead{{Route: "JFK-LHR", Pax: "2"}})
	assert.Empty(t, got)
}

func TestMerge_KeepsFirstSeenOrder(t *testing.T) {
	got := leads.Merge([]generic.Lead{
		{Email: "b@x.com"},
		{Email: "a@x.com"},
		{Email: "B@x.com", Name: "Bee"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "b@x.com", got[0].Email)
	assert.Equal(t, "Bee", got[0].Name)
	assert.Equal(t, "a@x.com", got[1].Email)
}

// =============================================================================
// PARSE TEXT
// =============================================================================

func TestParseText_MultiLeadSplit(t *testing.T) {
	// GIVEN: Two lines starting with "new" and two distinct emails
	// WHEN: Parsing the blob
	// THEN: Exactly two leads come back, in order

	got := leads.ParseText(twoLeadDump)

	require.Len(t, got, 2)
	assert.Equal(t, generic.Lead{
		Name:  "John Smith",
		Email: "john.smith@example.com",
		Phone: "+1 555 123 4567",
		Route: "JFK-LHR",
		Dates: "Mar 10 - Mar 17",
		Pax:   "2",
	}, got[0])
	assert.Equal(t, "Mary Jones", got[1].Name)
	assert.Equal(t, "CDG-NRT", got[1].Route)
	assert.Equal(t, "Business", got[1].Cabin)
}

func TestParseText_SingleLeadNameFromEmail(t *testing.T) {
	// GIVEN: One email, no "new" marker
	// WHEN: Parsing
	// THEN: One lead named after the email local part

	got := leads.ParseText("Please call back about the trip\njohn.smith@example.com")

	require.Len(t, got, 1)
	assert.Equal(t, "John Smith", got[0].Name)
	assert.Equal(t, "john.smith@example.com", got[0].Email)
}

func TestParseText_MergesOverSegmentedChunks(t *testing.T) {
	got := leads.ParseText("new John Smith\nJOHN@Example.com\nnew J\njohn@example.com\n+44 20 7946 0958")

	require.Len(t, got, 1)
	assert.Equal(t, "John Smith", got[0].Name)
	assert.Equal(t, "+44 20 7946 0958", got[0].Phone)
}

func TestParseText_Deterministic(t *testing.T) {
	first := leads.ParseText(twoLeadDump)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, leads.ParseText(twoLeadDump))
	}
}

func TestParseText_NothingIdentifiable(t *testing.T) {
	assert.Empty(t, leads.ParseText("   \n\t  "))
	assert.Empty(t, leads.ParseText("JFK-LHR 2 pax"))
}
