package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wdrbe/wardrobe-api/internal/item"
	"github.com/wdrbe/wardrobe-api/internal/share"
)

// shareItem handles POST /items/{itemId}/share. The share itself is
// asynchronous: after the ownership check the event is enqueued and the
// call answers 202 with the correlation ID.
func (h *handler) shareItem(ctx context.Context, request events.APIGatewayProxyRequest, userID string) events.APIGatewayProxyResponse {
	itemID := request.PathParameters["itemId"]
	if itemID == "" {
		return errorResponse(400, "bad_request", "missing itemId")
	}

	it, err := h.repo.GetItem(ctx, itemID)
	if errors.Is(err, item.ErrNotFound) {
		return errorResponse(404, "not_found", "item not found")
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read item for share",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		return internalErrorResponse()
	}

	if it.UserID != userID {
		return errorResponse(403, "forbidden", "cannot share another user's item")
	}

	msg := share.NewEventMessage(userID, itemID, request.RequestContext.RequestID)
	if err := h.publisher.Publish(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to enqueue share event",
			slog.String("item_id", itemID),
			slog.String("user_id", userID),
			slog.String("request_id", msg.RequestID),
			slog.String("error", err.Error()),
		)
		return internalErrorResponse()
	}

	logger.InfoContext(ctx, "Share request enqueued",
		slog.String("item_id", itemID),
		slog.String("user_id", userID),
		slog.String("request_id", msg.RequestID),
	)
	return jsonResponse(202, map[string]string{
		"itemId":  itemID,
		"status":  "queued",
		"eventId": msg.RequestID,
	})
}
