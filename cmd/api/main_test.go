package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wdrbe/wardrobe-api/internal/auth"
	"github.com/wdrbe/wardrobe-api/internal/item"
	"github.com/wdrbe/wardrobe-api/internal/share"
)

const testTimestamp = "2024-01-20T10:00:00.000000Z"

// fakeRepo is an in-memory ItemRepository keyed the same way as the
// table: canonical items by item ID, idempotency records by user and key.
type fakeRepo struct {
	items map[string]*item.WardrobeItem
	idem  map[string]string

	upsertErr error
	listErr   error

	// idemMissFirst makes the next idempotency lookup report not
	// found, to stage the window where two writers race.
	idemMissFirst bool

	lastList   item.ListQuery
	listResult *item.ListResult
	upserted   []*item.WardrobeItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		items: make(map[string]*item.WardrobeItem),
		idem:  make(map[string]string),
	}
}

func idemKey(userID, key string) string {
	return "USER#" + userID + "|IDEMPOTENCY#" + key
}

func (f *fakeRepo) GetItem(ctx context.Context, itemID string) (*item.WardrobeItem, error) {
	it, ok := f.items[itemID]
	if !ok {
		return nil, item.ErrNotFound
	}
	copied := *it
	return &copied, nil
}

func (f *fakeRepo) GetItemByIdempotencyKey(ctx context.Context, userID, key string) (*item.WardrobeItem, error) {
	if f.idemMissFirst {
		f.idemMissFirst = false
		return nil, item.ErrNotFound
	}
	itemID, ok := f.idem[idemKey(userID, key)]
	if !ok {
		return nil, item.ErrNotFound
	}
	return f.GetItem(ctx, itemID)
}

func (f *fakeRepo) UpsertItem(ctx context.Context, it *item.WardrobeItem) (*item.WardrobeItem, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if it.CreatedAt == "" {
		it.CreatedAt = testTimestamp
	}
	it.UpdatedAt = testTimestamp

	copied := *it
	f.items[it.ItemID] = &copied
	if it.IdempotencyKey != "" {
		f.idem[idemKey(it.UserID, it.IdempotencyKey)] = it.ItemID
	}
	f.upserted = append(f.upserted, &copied)
	return it, nil
}

func (f *fakeRepo) ListItems(ctx context.Context, q item.ListQuery) (*item.ListResult, error) {
	f.lastList = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &item.ListResult{}, nil
}

// fakePublisher records published share events.
type fakePublisher struct {
	published []share.EventMessage
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, msg share.EventMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

// fakeValidator authenticates every request as a fixed user, or fails.
type fakeValidator struct {
	userID string
	err    error
}

func (f *fakeValidator) Validate(ctx context.Context, headers map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func newTestHandler(repo *fakeRepo, publisher *fakePublisher, userID string) *handler {
	return newHandler(repo, publisher, &fakeValidator{userID: userID})
}

func decodeBody(t *testing.T, response events.APIGatewayProxyResponse) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(response.Body), &body); err != nil {
		t.Fatalf("response body is not JSON: %v\n%s", err, response.Body)
	}
	return body
}

func TestHandle_Unauthorized(t *testing.T) {
	h := newHandler(newFakeRepo(), &fakePublisher{}, &fakeValidator{
		err: &auth.Error{Reason: "token expired"},
	})

	response, err := h.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Resource:   "/users/{userId}/items",
	})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 401 {
		t.Fatalf("status = %d, want 401", response.StatusCode)
	}
	body := decodeBody(t, response)
	if body["error"] != "unauthorized" {
		t.Errorf("error = %v, want unauthorized", body["error"])
	}
	if body["message"] != "token expired" {
		t.Errorf("message = %v, want token expired", body["message"])
	}
}

func TestHandle_SecretFailureIsNotUnauthorized(t *testing.T) {
	h := newHandler(newFakeRepo(), &fakePublisher{}, &fakeValidator{
		err: errors.New("parameter store unavailable"),
	})

	response, err := h.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Resource:   "/users/{userId}/items",
	})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", response.StatusCode)
	}
	if strings.Contains(response.Body, "parameter store") {
		t.Error("internal failure detail leaked to the client")
	}
}

func TestHandle_UnknownRoute(t *testing.T) {
	h := newTestHandler(newFakeRepo(), &fakePublisher{}, "u1")

	response, err := h.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: "DELETE",
		Resource:   "/users/{userId}/items",
	})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.StatusCode != 404 {
		t.Errorf("status = %d, want 404", response.StatusCode)
	}
}

func TestHandle_ResponseHeaders(t *testing.T) {
	h := newTestHandler(newFakeRepo(), &fakePublisher{}, "u1")

	response, err := h.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     "GET",
		Resource:       "/users/{userId}/items",
		PathParameters: map[string]string{"userId": "u1"},
	})
	if err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if response.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", response.Headers["Content-Type"])
	}
	if response.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", response.Headers["Access-Control-Allow-Origin"])
	}
}
