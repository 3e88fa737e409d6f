package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wdrbe/wardrobe-api/internal/item"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listItemsResponse is the body of a successful listing call.
type listItemsResponse struct {
	Items      []*item.WardrobeItem `json:"items"`
	NextCursor string               `json:"nextCursor,omitempty"`
	HasMore    bool                 `json:"hasMore"`
}

// createItem handles POST /users/{userId}/items.
func (h *handler) createItem(ctx context.Context, request events.APIGatewayProxyRequest, userID string) events.APIGatewayProxyResponse {
	if request.PathParameters["userId"] != userID {
		return errorResponse(403, "forbidden", "user mismatch")
	}

	var body item.CreateItemRequest
	if err := json.Unmarshal([]byte(request.Body), &body); err != nil {
		return validationFailedResponse([]string{"Invalid JSON payload"})
	}
	if errs := body.Validate(); len(errs) > 0 {
		return validationFailedResponse(errs)
	}

	if body.IdempotencyKey != "" {
		existing, err := h.repo.GetItemByIdempotencyKey(ctx, userID, body.IdempotencyKey)
		if err == nil {
			logger.InfoContext(ctx, "Idempotent create returning existing item",
				slog.String("item_id", existing.ItemID),
				slog.String("user_id", userID),
				slog.String("idempotency_key", body.IdempotencyKey),
			)
			return jsonResponse(200, existing)
		}
		if !errors.Is(err, item.ErrNotFound) {
			logger.ErrorContext(ctx, "Idempotency lookup failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			return internalErrorResponse()
		}
	}

	created, err := h.repo.UpsertItem(ctx, &item.WardrobeItem{
		ItemID:         body.ItemID,
		UserID:         userID,
		Name:           body.Name,
		Category:       body.Category,
		Season:         body.Season,
		Color:          body.Color,
		Brand:          body.Brand,
		PurchaseDate:   body.PurchaseDate,
		ImageURL:       body.ImageURL,
		IdempotencyKey: body.IdempotencyKey,
	})
	if errors.Is(err, item.ErrIdempotencyConflict) {
		// A concurrent create with the same key won the transaction;
		// return the winner's item as an idempotent hit.
		winner, lookupErr := h.repo.GetItemByIdempotencyKey(ctx, userID, body.IdempotencyKey)
		if lookupErr != nil {
			logger.ErrorContext(ctx, "Failed to resolve idempotency race winner",
				slog.String("user_id", userID),
				slog.String("idempotency_key", body.IdempotencyKey),
				slog.String("error", lookupErr.Error()),
			)
			return internalErrorResponse()
		}
		return jsonResponse(200, winner)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create item",
			slog.String("item_id", body.ItemID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return internalErrorResponse()
	}

	logger.InfoContext(ctx, "Item created",
		slog.String("item_id", created.ItemID),
		slog.String("user_id", created.UserID),
		slog.String("category", created.Category),
	)
	return jsonResponse(201, created)
}

// listItems handles GET /users/{userId}/items.
func (h *handler) listItems(ctx context.Context, request events.APIGatewayProxyRequest, userID string) events.APIGatewayProxyResponse {
	if request.PathParameters["userId"] != userID {
		return errorResponse(403, "forbidden", "user mismatch")
	}

	// Whitespace-only filter values mean no filter, so they never
	// select the season index path.
	query := request.QueryStringParameters
	result, err := h.repo.ListItems(ctx, item.ListQuery{
		UserID:   userID,
		Season:   strings.TrimSpace(query["season"]),
		Category: strings.TrimSpace(query["category"]),
		Limit:    parseLimit(query["limit"]),
		Cursor:   query["cursor"],
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list items",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return internalErrorResponse()
	}

	items := result.Items
	if items == nil {
		items = []*item.WardrobeItem{}
	}

	logger.InfoContext(ctx, "Items listed",
		slog.String("user_id", userID),
		slog.Int("count", len(items)),
		slog.Bool("has_more", result.NextCursor != ""),
	)
	return jsonResponse(200, listItemsResponse{
		Items:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.NextCursor != "",
	})
}

// parseLimit applies the default and the [1, 100] clamp to the caller's
// page size.
func parseLimit(value string) int32 {
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return int32(limit)
}
