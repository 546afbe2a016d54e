// internal/models/investor.go
package models

// Source identifies which upstream system produced a record.
type Source string

const (
	SourcePrimary   Source = "PRIMARY"   // internal CRM base, may carry warm leads
	SourceSecondary Source = "SECONDARY" // external enrichment provider
)

// TicketRange is an investment ticket size range in USD. Nil bounds are open.
type TicketRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Overlaps reports whether two ranges intersect. Open bounds always overlap.
func (t *TicketRange) Overlaps(other *TicketRange) bool {
	if t == nil || other == nil {
		return true
	}
	if t.Min != nil && other.Max != nil && *other.Max < *t.Min {
		return false
	}
	if t.Max != nil && other.Min != nil && *other.Min > *t.Max {
		return false
	}
	return true
}

// RawRecord is one investor row as returned by a single source adapter,
// before any reconciliation. Immutable once produced by an adapter.
type RawRecord struct {
	Source     Source       `json:"source"`
	ExternalID string       `json:"externalId"`
	Name       string       `json:"name"`
	Website    string       `json:"website,omitempty"`
	ProfileURL string       `json:"profileUrl,omitempty"`
	Ticket     *TicketRange `json:"ticket,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
	// Warm may only be set by the PRIMARY source.
	Warm bool `json:"warm"`
}

// CanonicalRecord is the deduplicated, merged representation of one investor
// entity. Built only by the merge engine; never mutated after construction.
type CanonicalRecord struct {
	Key        string       `json:"-"`
	Name       string       `json:"name"`
	Website    string       `json:"website,omitempty"`
	ProfileURL string       `json:"profileUrl,omitempty"`
	Ticket     *TicketRange `json:"ticket,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
	Warm       bool         `json:"warm"`
	Provenance []Source     `json:"provenance"`
}

// Company is a general organization record from the direct company search.
type Company struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	Website    string   `json:"website,omitempty"`
	ProfileURL string   `json:"profileUrl,omitempty"`
	Industry   string   `json:"industry,omitempty"`
	Location   string   `json:"location,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Source     Source   `json:"source"`
}

// Person is a contact record from the direct people search.
type Person struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Email       string `json:"email,omitempty"`
	ProfileURL  string `json:"profileUrl,omitempty"`
	Location    string `json:"location,omitempty"`
	Source      Source `json:"source"`
}
