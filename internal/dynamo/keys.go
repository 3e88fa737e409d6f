// Package dynamo provides shared DynamoDB constants and key builders for
// the single-table wardrobe layout.
package dynamo

import "strings"

const (
	// Primary key attributes.
	AttrPK = "PK"
	AttrSK = "SK"

	// Secondary index and its key attributes.
	IndexGSI1  = "GSI1"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"

	// Key prefixes.
	PrefixItem        = "ITEM#"
	PrefixUser        = "USER#"
	PrefixIdempotency = "IDEMPOTENCY#"
	PrefixActivity    = "ACTIVITY#"

	// Sort key of the canonical item record.
	SKMetadata = "METADATA"

	// Season segment used when an item has no season.
	SeasonAll = "all-season"
)

// ItemPK returns the partition key of a canonical item record.
func ItemPK(itemID string) string {
	return PrefixItem + itemID
}

// UserPK returns the partition key shared by a user's projection,
// idempotency, and activity records.
func UserPK(userID string) string {
	return PrefixUser + userID
}

// UserItemSK returns the sort key of a user-item projection record.
func UserItemSK(itemID string) string {
	return PrefixItem + itemID
}

// IdempotencySK returns the sort key of an idempotency record.
func IdempotencySK(key string) string {
	return PrefixIdempotency + key
}

// ActivitySK returns the sort key of an activity record.
func ActivitySK(activityID string) string {
	return PrefixActivity + activityID
}

// SeasonPK returns the GSI1 partition key for a user's items in a season.
// The season segment is lower-cased; an empty season maps to SeasonAll so
// that "Winter" and "winter" land in the same index partition.
func SeasonPK(userID, season string) string {
	segment := SeasonAll
	if season != "" {
		segment = strings.ToLower(season)
	}
	return PrefixUser + userID + "#SEASON#" + segment
}

// RecencySK returns the GSI1 sort key of a projection record, ordered by
// the item's last update.
func RecencySK(updatedAt string) string {
	return PrefixItem + updatedAt
}

// ItemIDFromPK extracts the item identifier from a canonical partition key.
func ItemIDFromPK(pk string) string {
	return strings.TrimPrefix(pk, PrefixItem)
}
