// Package item implements the wardrobe item model and its DynamoDB
// storage layer.
package item

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// WardrobeItem is the canonical wardrobe item entity.
type WardrobeItem struct {
	ItemID         string `json:"itemId"`
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Season         string `json:"season,omitempty"`
	Color          string `json:"color,omitempty"`
	Brand          string `json:"brand,omitempty"`
	PurchaseDate   string `json:"purchaseDate,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	SharedCount    int    `json:"sharedCount"`
	IsPublic       bool   `json:"isPublic"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// CreateItemRequest is the body of a create-item call.
type CreateItemRequest struct {
	ItemID         string `json:"itemId"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Season         string `json:"season,omitempty"`
	Color          string `json:"color,omitempty"`
	Brand          string `json:"brand,omitempty"`
	PurchaseDate   string `json:"purchaseDate,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// allowedSeasons are the accepted season values, compared case-insensitively.
var allowedSeasons = []string{"spring", "summer", "autumn", "fall", "winter", "all-season"}

// Validate checks the request body and returns every violation found.
// An empty slice means the request is valid.
func (r *CreateItemRequest) Validate() []string {
	var errs []string

	if strings.TrimSpace(r.ItemID) == "" {
		errs = append(errs, "itemId is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		errs = append(errs, "category is required")
	}
	// Limits count characters, not bytes, so multibyte names are not
	// penalized.
	if utf8.RuneCountInString(r.Name) > 200 {
		errs = append(errs, "name must be 200 characters or fewer")
	}
	if utf8.RuneCountInString(r.Category) > 100 {
		errs = append(errs, "category must be 100 characters or fewer")
	}
	if strings.TrimSpace(r.Season) != "" && !validSeason(r.Season) {
		errs = append(errs, fmt.Sprintf("season must be one of: %s", strings.Join(allowedSeasons, ", ")))
	}

	return errs
}

func validSeason(season string) bool {
	for _, s := range allowedSeasons {
		if strings.EqualFold(season, s) {
			return true
		}
	}
	return false
}

// ListQuery describes a listing request against the storage layer.
// Limit must already be clamped by the caller; Cursor is the opaque token
// from a previous page, or empty.
type ListQuery struct {
	UserID   string
	Season   string
	Category string
	Limit    int32
	Cursor   string
}

// ListResult is one page of items. NextCursor is empty when there is no
// further page.
type ListResult struct {
	Items      []*WardrobeItem
	NextCursor string
}

// ActivityRecord is an audit trail entry appended by the share workflow.
type ActivityRecord struct {
	ActivityID   string
	UserID       string
	ActivityType string
	ItemID       string
	ItemName     string
	Timestamp    string
	Metadata     map[string]string
}
