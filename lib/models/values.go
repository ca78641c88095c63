package models

type Availability string

const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
	Unknown     Availability = "unknown"
)

// ProductRecord is the normalized output of an extraction adapter. A nil
// Price means the adapter could not detect one; adapters never fail outright.
type ProductRecord struct {
	Title          string
	Price          *float64
	Currency       string
	Image          string
	Availability   Availability
	ReferencePrice *float64
}

// SearchCandidate is one ranked result attached to a SearchRequest. It is
// never persisted on its own.
type SearchCandidate struct {
	Title    string   `json:"title"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	URL      string   `json:"url"`
	Image    string   `json:"image,omitempty"`
}

type SearchCandidates []SearchCandidate
