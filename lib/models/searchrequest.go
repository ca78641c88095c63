package models

import (
	"database/sql"

	"gorm.io/gorm"
)

type SearchStatus string

const (
	SearchPending      SearchStatus = "pending"
	SearchSearching    SearchStatus = "searching"
	SearchOptionsFound SearchStatus = "options_found"
	SearchBlocked      SearchStatus = "blocked"
	SearchError        SearchStatus = "error"
	SearchFulfilled    SearchStatus = "fulfilled"
)

// SearchRequest is a free-text marketplace query. It starts pending, moves
// through searching into options_found/blocked/error, and becomes fulfilled
// once the user picks a candidate (which spawns a TrackedItem).
type SearchRequest struct {
	gorm.Model
	UserID   uint `gorm:"index"`
	Platform Platform
	Query    string
	Location string
	MaxPrice *float64
	Limit    int
	Status   SearchStatus     `gorm:"index:idx_status_updated"`
	Results  SearchCandidates `gorm:"serializer:json"`

	SelectedURL   string
	ErrorMessage  string
	BlockedReason string
	NextRetryAt   sql.NullTime
}

type SearchRequests []SearchRequest
