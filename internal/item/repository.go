package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/wdrbe/wardrobe-api/internal/dynamo"
)

// Error types for repository operations.
var (
	ErrNotFound            = errors.New("item not found")
	ErrNotOwner            = errors.New("item owned by another user")
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	ErrTransactionFailed   = errors.New("transaction failed")
)

// timeLayout is a fixed-width UTC timestamp so that lexicographic order
// on the GSI1 sort key matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// DynamoDBClient defines the interface for DynamoDB operations.
type DynamoDBClient interface {
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Repository handles wardrobe item storage operations against the
// single table.
type Repository struct {
	client    DynamoDBClient
	tableName string
	logger    *slog.Logger
	now       func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(client DynamoDBClient, tableName string, logger *slog.Logger) *Repository {
	return &Repository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// GetItem reads the canonical record by item ID. Returns ErrNotFound when
// the key is absent.
func (r *Repository) GetItem(ctx context.Context, itemID string) (*WardrobeItem, error) {
	output, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrPK: &types.AttributeValueMemberS{Value: dynamo.ItemPK(itemID)},
			dynamo.AttrSK: &types.AttributeValueMemberS{Value: dynamo.SKMetadata},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item %q: %w", itemID, err)
	}
	if output.Item == nil {
		return nil, ErrNotFound
	}

	var rec itemRecord
	if err := attributevalue.UnmarshalMap(output.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item %q: %w", itemID, err)
	}
	return rec.toItem(), nil
}

// GetItemByIdempotencyKey resolves an idempotency record to the canonical
// item it produced. Returns ErrNotFound when no record exists, or when
// the record points at a missing item.
func (r *Repository) GetItemByIdempotencyKey(ctx context.Context, userID, key string) (*WardrobeItem, error) {
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(dynamo.IndexGSI1),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: dynamo.UserPK(userID)},
			":sk": &types.AttributeValueMemberS{Value: dynamo.IdempotencySK(key)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query idempotency key: %w", err)
	}
	if len(output.Items) == 0 {
		return nil, ErrNotFound
	}

	itemID := stringAttr(output.Items[0], "ItemId")
	if itemID == "" {
		return nil, ErrNotFound
	}
	return r.GetItem(ctx, itemID)
}

// UpsertItem writes the canonical record, the listing projection, and,
// when an idempotency key is present, the idempotency record in a single
// transaction. CreatedAt is set only on first write; UpdatedAt always
// advances. The idempotency put is conditional on its key being unused,
// so concurrent creates with the same key admit at most one winner; the
// loser gets ErrIdempotencyConflict and should re-read the winner's item.
func (r *Repository) UpsertItem(ctx context.Context, it *WardrobeItem) (*WardrobeItem, error) {
	now := r.now().UTC().Format(timeLayout)
	if it.CreatedAt == "" {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	canonical, err := attributevalue.MarshalMap(newItemRecord(it))
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	projection, err := attributevalue.MarshalMap(newUserItemRecord(it))
	if err != nil {
		return nil, fmt.Errorf("marshal projection: %w", err)
	}

	transactItems := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: canonical}},
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: projection}},
	}

	idempotencyIndex := -1
	if it.IdempotencyKey != "" {
		marker, err := attributevalue.MarshalMap(newIdempotencyRecord(it))
		if err != nil {
			return nil, fmt.Errorf("marshal idempotency record: %w", err)
		}
		idempotencyIndex = len(transactItems)
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                marker,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		return nil, r.mapUpsertError(err, idempotencyIndex)
	}

	return it, nil
}

// mapUpsertError distinguishes a lost idempotency race from other
// transaction failures.
func (r *Repository) mapUpsertError(err error, idempotencyIndex int) error {
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) && idempotencyIndex >= 0 {
		for i, reason := range txErr.CancellationReasons {
			if i == idempotencyIndex && reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrIdempotencyConflict
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

// ListItems returns one page of a user's items, newest first. A season
// filter selects the GSI1 query path; otherwise the primary table is
// queried by sort-key prefix. A category filter is applied by the store
// after key matching, so a page may come back under-filled even when
// more matching items exist.
func (r *Repository) ListItems(ctx context.Context, q ListQuery) (*ListResult, error) {
	var input *dynamodb.QueryInput
	if q.Season != "" {
		input = &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(dynamo.IndexGSI1),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: dynamo.SeasonPK(q.UserID, q.Season)},
			},
		}
	} else {
		input = &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: dynamo.UserPK(q.UserID)},
				":sk": &types.AttributeValueMemberS{Value: dynamo.PrefixItem},
			},
		}
	}
	input.ScanIndexForward = aws.Bool(false)
	input.Limit = aws.Int32(q.Limit)

	if q.Category != "" {
		input.FilterExpression = aws.String("Category = :category")
		input.ExpressionAttributeValues[":category"] = &types.AttributeValueMemberS{Value: q.Category}
	}

	if q.Cursor != "" {
		startKey, err := decodeCursor(q.Cursor)
		if err != nil {
			// A malformed cursor restarts from the beginning; it is
			// never surfaced as a client error.
			r.logger.WarnContext(ctx, "Ignoring malformed pagination cursor",
				slog.String("user_id", q.UserID),
				slog.String("error", err.Error()),
			)
		} else {
			input.ExclusiveStartKey = startKey
		}
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	items := make([]*WardrobeItem, 0, len(output.Items))
	for _, row := range output.Items {
		itemID := stringAttr(row, "ItemId")
		if itemID == "" {
			continue
		}
		it, err := r.GetItem(ctx, itemID)
		if errors.Is(err, ErrNotFound) {
			// Projection without a canonical record; skip rather
			// than fail the whole page.
			r.logger.WarnContext(ctx, "Skipping orphaned projection",
				slog.String("user_id", q.UserID),
				slog.String("item_id", itemID),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	nextCursor, err := encodeCursor(output.LastEvaluatedKey)
	if err != nil {
		return nil, fmt.Errorf("encode cursor: %w", err)
	}

	return &ListResult{Items: items, NextCursor: nextCursor}, nil
}

// IncrementShareCount bumps the share counter and marks the item public,
// but only when the stored owner matches userID. Returns ErrNotOwner
// otherwise. Invoked by the downstream share worker.
func (r *Repository) IncrementShareCount(ctx context.Context, itemID, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrPK: &types.AttributeValueMemberS{Value: dynamo.ItemPK(itemID)},
			dynamo.AttrSK: &types.AttributeValueMemberS{Value: dynamo.SKMetadata},
		},
		ConditionExpression: aws.String("UserId = :userId"),
		UpdateExpression:    aws.String("SET SharedCount = if_not_exists(SharedCount, :zero) + :inc, IsPublic = :isPublic, UpdatedAt = :updated"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId":   &types.AttributeValueMemberS{Value: userID},
			":zero":     &types.AttributeValueMemberN{Value: "0"},
			":inc":      &types.AttributeValueMemberN{Value: "1"},
			":isPublic": &types.AttributeValueMemberBOOL{Value: true},
			":updated":  &types.AttributeValueMemberS{Value: r.now().UTC().Format(timeLayout)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotOwner
		}
		return fmt.Errorf("increment share count for %q: %w", itemID, err)
	}
	return nil
}

// CreateActivity appends an audit record. A zero ActivityID, type, or
// timestamp is filled in, so each call writes a fresh record.
func (r *Repository) CreateActivity(ctx context.Context, a *ActivityRecord) error {
	if a.ActivityID == "" {
		a.ActivityID = uuid.NewString()
	}
	if a.ActivityType == "" {
		a.ActivityType = "ItemShared"
	}
	if a.Timestamp == "" {
		a.Timestamp = r.now().UTC().Format(timeLayout)
	}

	rec, err := newActivityRecord(a)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}
	attrs, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      attrs,
	})
	if err != nil {
		return fmt.Errorf("put activity: %w", err)
	}
	return nil
}

// stringAttr reads a string attribute from a raw row, returning "" when
// absent or of another type.
func stringAttr(row map[string]types.AttributeValue, name string) string {
	if v, ok := row[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
