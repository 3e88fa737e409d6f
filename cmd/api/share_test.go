package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wdrbe/wardrobe-api/internal/item"
	"github.com/wdrbe/wardrobe-api/internal/share"
)

func shareRequest(itemID, requestID string) events.APIGatewayProxyRequest {
	request := events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Resource:   "/items/{itemId}/share",
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: requestID,
		},
	}
	if itemID != "" {
		request.PathParameters = map[string]string{"itemId": itemID}
	}
	return request
}

func TestShareItem(t *testing.T) {
	repo := newFakeRepo()
	repo.items["i1"] = &item.WardrobeItem{ItemID: "i1", UserID: "u1", Name: "Red Scarf"}
	publisher := &fakePublisher{}
	h := newTestHandler(repo, publisher, "u1")

	response, err := h.handle(context.Background(), shareRequest("i1", "req-42"))
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 202 {
		t.Fatalf("status = %d, want 202\n%s", response.StatusCode, response.Body)
	}

	body := decodeBody(t, response)
	if body["itemId"] != "i1" {
		t.Errorf("itemId = %v, want i1", body["itemId"])
	}
	if body["status"] != "queued" {
		t.Errorf("status = %v, want queued", body["status"])
	}
	if body["eventId"] != "req-42" {
		t.Errorf("eventId = %v, want req-42", body["eventId"])
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published = %d events, want 1", len(publisher.published))
	}
	msg := publisher.published[0]
	if msg.Type != share.EventTypeShareItem {
		t.Errorf("Type = %q, want %q", msg.Type, share.EventTypeShareItem)
	}
	if msg.UserID != "u1" || msg.ItemID != "i1" {
		t.Errorf("message = %+v", msg)
	}
	if msg.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want req-42", msg.RequestID)
	}
}

func TestShareItem_MissingItemID(t *testing.T) {
	h := newTestHandler(newFakeRepo(), &fakePublisher{}, "u1")

	response, err := h.handle(context.Background(), shareRequest("", "req-1"))
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 400 {
		t.Errorf("status = %d, want 400", response.StatusCode)
	}
}

func TestShareItem_NotFound(t *testing.T) {
	h := newTestHandler(newFakeRepo(), &fakePublisher{}, "u1")

	response, err := h.handle(context.Background(), shareRequest("i-missing", "req-1"))
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 404 {
		t.Errorf("status = %d, want 404", response.StatusCode)
	}
}

func TestShareItem_NotOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.items["i1"] = &item.WardrobeItem{ItemID: "i1", UserID: "someone-else"}
	publisher := &fakePublisher{}
	h := newTestHandler(repo, publisher, "u1")

	response, err := h.handle(context.Background(), shareRequest("i1", "req-1"))
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 403 {
		t.Fatalf("status = %d, want 403", response.StatusCode)
	}
	if len(publisher.published) != 0 {
		t.Error("event published for an item the caller does not own")
	}
}

func TestShareItem_PublishFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.items["i1"] = &item.WardrobeItem{ItemID: "i1", UserID: "u1"}
	publisher := &fakePublisher{err: errors.New("queue unavailable")}
	h := newTestHandler(repo, publisher, "u1")

	response, err := h.handle(context.Background(), shareRequest("i1", "req-1"))
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 500 {
		t.Errorf("status = %d, want 500", response.StatusCode)
	}
}
