// Package main implements the wardrobe API Lambda behind API Gateway.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/wdrbe/wardrobe-api/internal/auth"
	"github.com/wdrbe/wardrobe-api/internal/awsinit"
	"github.com/wdrbe/wardrobe-api/internal/item"
	"github.com/wdrbe/wardrobe-api/internal/logging"
	"github.com/wdrbe/wardrobe-api/internal/share"
	"github.com/wdrbe/wardrobe-api/internal/tracing"
)

var logger = logging.New()

// ItemRepository defines the storage operations the API uses.
// IncrementShareCount and CreateActivity live on the same repository but
// are invoked by the downstream share worker, not this Lambda.
type ItemRepository interface {
	GetItem(ctx context.Context, itemID string) (*item.WardrobeItem, error)
	GetItemByIdempotencyKey(ctx context.Context, userID, key string) (*item.WardrobeItem, error)
	UpsertItem(ctx context.Context, it *item.WardrobeItem) (*item.WardrobeItem, error)
	ListItems(ctx context.Context, q item.ListQuery) (*item.ListResult, error)
}

// SharePublisher defines the interface for emitting share events.
type SharePublisher interface {
	Publish(ctx context.Context, msg share.EventMessage) error
}

// TokenValidator defines the interface for authenticating requests.
type TokenValidator interface {
	Validate(ctx context.Context, headers map[string]string) (string, error)
}

// handler routes authenticated API Gateway requests.
type handler struct {
	repo      ItemRepository
	publisher SharePublisher
	validator TokenValidator
}

// newHandler creates a new handler.
func newHandler(repo ItemRepository, publisher SharePublisher, validator TokenValidator) *handler {
	return &handler{
		repo:      repo,
		publisher: publisher,
		validator: validator,
	}
}

// handle authenticates the request and dispatches on method and resource.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := tracing.Tracer("wardrobe-api")
	ctx, span := tracer.Start(ctx, "APIHandler")
	defer span.End()

	userID, err := h.validator.Validate(ctx, request.Headers)
	if err != nil {
		var authErr *auth.Error
		if errors.As(err, &authErr) {
			return errorResponse(401, "unauthorized", authErr.Reason), nil
		}
		logger.ErrorContext(ctx, "Token validation infrastructure failure",
			slog.String("error", err.Error()),
		)
		return internalErrorResponse(), nil
	}

	switch strings.ToUpper(request.HTTPMethod) + " " + request.Resource {
	case "POST /users/{userId}/items":
		return h.createItem(ctx, request, userID), nil
	case "GET /users/{userId}/items":
		return h.listItems(ctx, request, userID), nil
	case "POST /items/{itemId}/share":
		return h.shareItem(ctx, request, userID), nil
	default:
		return errorResponse(404, "not_found", "no such route"), nil
	}
}

// corsHeaders are attached to every response.
var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization,X-Request-Id",
	"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
}

// jsonResponse serializes payload into an API Gateway response.
func jsonResponse(statusCode int, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		// Marshalling our own response types cannot realistically
		// fail, but never answer with an empty body.
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Headers:    corsHeaders,
			Body:       `{"error":"internal_error","message":"internal error"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    corsHeaders,
		Body:       string(body),
	}
}

func errorResponse(statusCode int, code, message string) events.APIGatewayProxyResponse {
	return jsonResponse(statusCode, map[string]string{
		"error":   code,
		"message": message,
	})
}

// internalErrorResponse is deliberately generic; downstream failure
// detail stays in the logs.
func internalErrorResponse() events.APIGatewayProxyResponse {
	return errorResponse(500, "internal_error", "internal error")
}

func validationFailedResponse(errs []string) events.APIGatewayProxyResponse {
	return jsonResponse(400, map[string]any{
		"error":  "validation_failed",
		"errors": errs,
	})
}

func main() {
	ctx := context.Background()

	result, err := awsinit.Init(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tableName := requireEnv("TABLE_NAME")
	queueURL := requireEnv("QUEUE_URL")
	jwtSecretParam := requireEnv("JWT_SECRET_PARAM")

	repo := item.NewRepository(dynamodb.NewFromConfig(result.Config), tableName, logger)
	publisher := share.NewPublisher(sqs.NewFromConfig(result.Config), queueURL)
	secrets := auth.NewSSMSecretProvider(ssm.NewFromConfig(result.Config), jwtSecretParam)
	validator := auth.NewValidator(secrets)

	h := newHandler(repo, publisher, validator)
	result.Start(h.handle)
}

func requireEnv(name string) string {
	value := os.Getenv(name)
	if value == "" {
		logger.Error("FATAL: Missing required environment variable", slog.String("name", name))
		os.Exit(1)
	}
	return value
}
