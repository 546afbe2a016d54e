// internal/models/query.go
package models

// StructuredQuery is the parsed form of a natural-language investor request.
// Produced by the external query parser; immutable once built. The core
// consumes it as-is and never constructs one itself.
type StructuredQuery struct {
	Industry      string       `json:"industry,omitempty"`
	Location      string       `json:"location,omitempty"`
	Ticket        *TicketRange `json:"ticketSize,omitempty"`
	SourceProject string       `json:"sourceProject,omitempty"`
	TargetProject string       `json:"newProject,omitempty"`
	Requirements  []string     `json:"requirements,omitempty"`

	// Carried through for downstream consumers; not interpreted by the core.
	CompanyStage string `json:"companyStage,omitempty"`
	InvestorType string `json:"investorType,omitempty"`
	Timeframe    string `json:"timeframe,omitempty"`
}

// CompanySearchQuery drives the synchronous company pass-through search.
type CompanySearchQuery struct {
	Keywords   string `json:"keywords,omitempty"`
	Industry   string `json:"industry,omitempty"`
	Location   string `json:"location,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// PersonSearchQuery drives the synchronous people pass-through search.
type PersonSearchQuery struct {
	JobTitle    string `json:"jobTitle,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Location    string `json:"location,omitempty"`
	MaxResults  int    `json:"maxResults,omitempty"`
}
