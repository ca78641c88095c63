package app

import (
	"database/sql"
	"time"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

type UserView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (view UserView) From(entity *models.User) UserView {
	return UserView{
		ID:    entity.ID,
		Name:  entity.Name,
		Email: entity.Email,
		Role:  entity.Role,
	}
}

type ItemView struct {
	ID             uint     `json:"id"`
	UserID         uint     `json:"user_id"`
	URL            string   `json:"url"`
	Platform       string   `json:"platform"`
	Title          string   `json:"title"`
	Image          string   `json:"image,omitempty"`
	CurrentPrice   *float64 `json:"current_price"`
	Currency       string   `json:"currency"`
	ReferencePrice *float64 `json:"reference_price,omitempty"`
	Status         string   `json:"status"`
	BlockedReason  string   `json:"blocked_reason,omitempty"`
	LastChecked    *string  `json:"last_checked"`
}

func (view ItemView) From(entity *models.TrackedItem) ItemView {
	return ItemView{
		ID:             entity.ID,
		UserID:         entity.UserID,
		URL:            entity.URL,
		Platform:       string(entity.Platform),
		Title:          entity.Title,
		Image:          entity.Image,
		CurrentPrice:   entity.CurrentPrice,
		Currency:       entity.Currency,
		ReferencePrice: entity.ReferencePrice,
		Status:         string(entity.Status),
		BlockedReason:  entity.BlockedReason,
		LastChecked:    isoformat(entity.LastChecked),
	}
}

type PricePointView struct {
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
}

func (view PricePointView) From(entity *models.PricePoint) PricePointView {
	return PricePointView{
		Timestamp: entity.Timestamp.UTC().Format(time.RFC3339),
		Price:     entity.Price,
		Currency:  entity.Currency,
	}
}

type AlertView struct {
	ID                uint     `json:"id"`
	TrackedItemID     uint     `json:"item_id"`
	TargetPrice       *float64 `json:"target_price,omitempty"`
	DiscountThreshold *float64 `json:"discount_threshold,omitempty"`
	NotifyOnce        bool     `json:"notify_once"`
	HasNotifiedOnce   bool     `json:"has_notified_once"`
	IsActive          bool     `json:"is_active"`
}

func (view AlertView) From(entity *models.AlertRule) AlertView {
	return AlertView{
		ID:                entity.ID,
		TrackedItemID:     entity.TrackedItemID,
		TargetPrice:       entity.TargetPrice,
		DiscountThreshold: entity.DiscountThreshold,
		NotifyOnce:        entity.NotifyOnce,
		HasNotifiedOnce:   entity.HasNotifiedOnce,
		IsActive:          entity.IsActive,
	}
}

type SearchRequestView struct {
	ID            uint                     `json:"id"`
	Platform      string                   `json:"platform"`
	Query         string                   `json:"query"`
	Location      string                   `json:"location,omitempty"`
	MaxPrice      *float64                 `json:"max_price,omitempty"`
	Limit         int                      `json:"limit"`
	Status        string                   `json:"status"`
	Results       []models.SearchCandidate `json:"results,omitempty"`
	SelectedURL   string                   `json:"selected_url,omitempty"`
	ErrorMessage  string                   `json:"error_message,omitempty"`
	BlockedReason string                   `json:"blocked_reason,omitempty"`
	NextRetryAt   *string                  `json:"next_retry_at,omitempty"`
}

func (view SearchRequestView) From(entity *models.SearchRequest) SearchRequestView {
	return SearchRequestView{
		ID:            entity.ID,
		Platform:      string(entity.Platform),
		Query:         entity.Query,
		Location:      entity.Location,
		MaxPrice:      entity.MaxPrice,
		Limit:         entity.Limit,
		Status:        string(entity.Status),
		Results:       entity.Results,
		SelectedURL:   entity.SelectedURL,
		ErrorMessage:  entity.ErrorMessage,
		BlockedReason: entity.BlockedReason,
		NextRetryAt:   isoformat(entity.NextRetryAt),
	}
}

type NotificationView struct {
	ID            uint   `json:"id"`
	TrackedItemID uint   `json:"item_id"`
	Message       string `json:"message"`
	Channel       string `json:"channel"`
	Status        string `json:"status"`
	SentAt        string `json:"sent_at"`
	Read          bool   `json:"read"`
}

func (view NotificationView) From(entity *models.NotificationEvent) NotificationView {
	return NotificationView{
		ID:            entity.ID,
		TrackedItemID: entity.TrackedItemID,
		Message:       entity.Message,
		Channel:       entity.Channel,
		Status:        entity.Status,
		SentAt:        entity.SentAt.UTC().Format(time.RFC3339),
		Read:          entity.Read,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[*T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i := range elems {
		var u U
		out[i] = u.From(&elems[i])
	}
	return out
}

func isoformat(t sql.NullTime) *string {
	if t.Valid {
		s := t.Time.UTC().Format(time.RFC3339)
		return &s
	}
	return nil
}
