package leads_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/followup-engine/leads"
)

// =============================================================================
// PER-EXTRACTOR TABLES
// =============================================================================

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Contact: a.b@c.io thanks", "a.b@c.io"},
		{"first x@y.com then z@w.org", "x@y.com"},
		{"no email here @ all", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leads.ExtractEmail(tt.in), tt.in)
	}
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Call 555-123-4567 today", "555-123-4567"},
		{"timestamp ignored", "Call 2025-03-10 14:30 at 555-123-4567", "555-123-4567"},
		{"prefers 10-15 digits", "ext 555-1234, mobile +1 (212) 555-0199", "+1 (212) 555-0199"},
		{"falls back to first", "ext 555-1234 only", "555-1234"},
		{"too short", "short 12345 only", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leads.ExtractPhone(tt.in))
		})
	}
}

func TestExtractRoute(t *testing.T) {
	assert.Equal(t, "JFK-LHR", leads.ExtractRoute("flying JFK - LHR soon"))
	assert.Equal(t, "JFK-LHR-DXB", leads.ExtractRoute("JFK – LHR → DXB"))
	assert.Equal(t, "CDG-NRT", leads.ExtractRoute("CDG|NRT"))
	assert.Equal(t, "", leads.ExtractRoute("jfk-lhr"))
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		email string
		want  string
	}{
		{"marker then route", "new Anna Lee JFK-LHR", "", "Anna Lee"},
		{"marker then RT token", "NEW: Bob Stone RT 2 pax", "", "Bob Stone"},
		{"new lead label", "New lead: Carla Diaz - carla@x.com", "carla@x.com", "Carla Diaz"},
		{"derived from dotted email", "call back", "john.smith@example.com", "John Smith"},
		{"derived from mixed separators", "", "mary_ann-lee@x.com", "Mary Ann Lee"},
		{"derived single token", "", "maria@x.com", "Maria"},
		{"nothing", "hello", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leads.ExtractName(tt.chunk, tt.email))
		})
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"travel Dec 20 - Jan 5, 2026 please", "Dec 20 - Jan 5, 2026"},
		{"March 3rd to 9th", "March 3rd to 9th"},
		{"2025-03-10 to 2025-03-17", "2025-03-10 to 2025-03-17"},
		{"sometime next year", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leads.ExtractDates(tt.in), tt.in)
	}
}

func TestExtractPax(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pax: 3", "3"},
		{"Passengers 12", "12"},
		{"x2 adults", "2"},
		{"4 passengers", "4"},
		{"no count", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leads.ExtractPax(tt.in), tt.in)
	}
}

func TestExtractLeadID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"labeled id", "Lead ID: 123456", "123456"},
		{"labeled hash", "Lead #98765", "98765"},
		{"label wins over bare", "ref 4444 Lead ID: 55555", "55555"},
		{"bare token", "ref 45678 call", "45678"},
		{"between tags", "<td>7654321</td>", "7654321"},
		{"eight digits are dates", "20250310 only", ""},
		{"phones are not ids", "call 5551234567", ""},
		{"grouped phone is not an id", "call +1 212 555 0199", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leads.ExtractLeadID(tt.in))
		})
	}
}

func TestExtractCabin(t *testing.T) {
	assert.Equal(t, "Premium Economy", leads.ExtractCabin("PREMIUM ECONOMY seats"))
	assert.Equal(t, "Business", leads.ExtractCabin("business class"))
	assert.Equal(t, "First", leads.ExtractCabin("first"))
	assert.Equal(t, "", leads.ExtractCabin("coach"))
}

func TestExtractorsAreNamedAndOrdered(t *testing.T) {
	var fields []string
	for _, e := range leads.Extractors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"email", "phone", "route", "name", "dates", "pax", "leadId", "cabin"}, fields)
}
