package item

import (
	"encoding/json"

	"github.com/wdrbe/wardrobe-api/internal/dynamo"
)

// Entity type discriminators stored on every record.
const (
	entityTypeItem        = "Item"
	entityTypeUserItem    = "UserItem"
	entityTypeIdempotency = "Idempotency"
	entityTypeActivity    = "Activity"
)

// itemRecord is the canonical item row. Optional attributes carry
// omitempty so an absent value is an omitted attribute, never an empty
// string.
type itemRecord struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	UserID         string `dynamodbav:"UserId"`
	Name           string `dynamodbav:"Name"`
	Category       string `dynamodbav:"Category"`
	Season         string `dynamodbav:"Season,omitempty"`
	Color          string `dynamodbav:"Color,omitempty"`
	Brand          string `dynamodbav:"Brand,omitempty"`
	PurchaseDate   string `dynamodbav:"PurchaseDate,omitempty"`
	ImageURL       string `dynamodbav:"ImageUrl,omitempty"`
	IdempotencyKey string `dynamodbav:"IdempotencyKey,omitempty"`
	SharedCount    int    `dynamodbav:"SharedCount"`
	IsPublic       bool   `dynamodbav:"IsPublic"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
	UpdatedAt      string `dynamodbav:"UpdatedAt"`
	EntityType     string `dynamodbav:"EntityType"`
}

// userItemRecord is the denormalized listing projection, keyed under the
// owner and indexed by season and recency on GSI1.
type userItemRecord struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	ItemID         string `dynamodbav:"ItemId"`
	Name           string `dynamodbav:"Name"`
	Category       string `dynamodbav:"Category"`
	Season         string `dynamodbav:"Season,omitempty"`
	Color          string `dynamodbav:"Color,omitempty"`
	Brand          string `dynamodbav:"Brand,omitempty"`
	PurchaseDate   string `dynamodbav:"PurchaseDate,omitempty"`
	ImageURL       string `dynamodbav:"ImageUrl,omitempty"`
	IdempotencyKey string `dynamodbav:"IdempotencyKey,omitempty"`
	EntityType     string `dynamodbav:"EntityType"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
}

// idempotencyRecord binds a client-chosen key to the item it created.
type idempotencyRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	ItemID     string `dynamodbav:"ItemId"`
	EntityType string `dynamodbav:"EntityType"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
}

// activityRecord is the stored form of an ActivityRecord. Metadata is
// serialized to a JSON string attribute.
type activityRecord struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	ActivityType string `dynamodbav:"ActivityType"`
	ItemID       string `dynamodbav:"ItemId"`
	ItemName     string `dynamodbav:"ItemName,omitempty"`
	Timestamp    string `dynamodbav:"Timestamp"`
	Metadata     string `dynamodbav:"Metadata,omitempty"`
	EntityType   string `dynamodbav:"EntityType"`
}

func newItemRecord(it *WardrobeItem) itemRecord {
	return itemRecord{
		PK:             dynamo.ItemPK(it.ItemID),
		SK:             dynamo.SKMetadata,
		UserID:         it.UserID,
		Name:           it.Name,
		Category:       it.Category,
		Season:         it.Season,
		Color:          it.Color,
		Brand:          it.Brand,
		PurchaseDate:   it.PurchaseDate,
		ImageURL:       it.ImageURL,
		IdempotencyKey: it.IdempotencyKey,
		SharedCount:    it.SharedCount,
		IsPublic:       it.IsPublic,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
		EntityType:     entityTypeItem,
	}
}

func newUserItemRecord(it *WardrobeItem) userItemRecord {
	return userItemRecord{
		PK:             dynamo.UserPK(it.UserID),
		SK:             dynamo.UserItemSK(it.ItemID),
		ItemID:         it.ItemID,
		Name:           it.Name,
		Category:       it.Category,
		Season:         it.Season,
		Color:          it.Color,
		Brand:          it.Brand,
		PurchaseDate:   it.PurchaseDate,
		ImageURL:       it.ImageURL,
		IdempotencyKey: it.IdempotencyKey,
		EntityType:     entityTypeUserItem,
		GSI1PK:         dynamo.SeasonPK(it.UserID, it.Season),
		GSI1SK:         dynamo.RecencySK(it.UpdatedAt),
	}
}

func newIdempotencyRecord(it *WardrobeItem) idempotencyRecord {
	return idempotencyRecord{
		PK:         dynamo.UserPK(it.UserID),
		SK:         dynamo.IdempotencySK(it.IdempotencyKey),
		ItemID:     it.ItemID,
		EntityType: entityTypeIdempotency,
		CreatedAt:  it.CreatedAt,
		GSI1PK:     dynamo.UserPK(it.UserID),
		GSI1SK:     dynamo.IdempotencySK(it.IdempotencyKey),
	}
}

func newActivityRecord(a *ActivityRecord) (activityRecord, error) {
	rec := activityRecord{
		PK:           dynamo.UserPK(a.UserID),
		SK:           dynamo.ActivitySK(a.ActivityID),
		ActivityType: a.ActivityType,
		ItemID:       a.ItemID,
		ItemName:     a.ItemName,
		Timestamp:    a.Timestamp,
		EntityType:   entityTypeActivity,
	}
	if len(a.Metadata) > 0 {
		meta, err := json.Marshal(a.Metadata)
		if err != nil {
			return activityRecord{}, err
		}
		rec.Metadata = string(meta)
	}
	return rec, nil
}

func (r itemRecord) toItem() *WardrobeItem {
	return &WardrobeItem{
		ItemID:         dynamo.ItemIDFromPK(r.PK),
		UserID:         r.UserID,
		Name:           r.Name,
		Category:       r.Category,
		Season:         r.Season,
		Color:          r.Color,
		Brand:          r.Brand,
		PurchaseDate:   r.PurchaseDate,
		ImageURL:       r.ImageURL,
		IdempotencyKey: r.IdempotencyKey,
		SharedCount:    r.SharedCount,
		IsPublic:       r.IsPublic,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
