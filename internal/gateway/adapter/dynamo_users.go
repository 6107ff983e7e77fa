package adapter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/dynamo"
	"github.com/aelexs/auth-gateway/internal/gateway/app"
)

// userDynamoDB is a narrow, consumer-defined interface for the DynamoDB
// operations the user store needs. The *dynamodb.Client satisfies it.
type userDynamoDB interface {
	GetItem(ctx context.Context, params *dynamo.GetItemInput, optFns ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error)
	Query(ctx context.Context, params *dynamo.QueryInput, optFns ...func(*dynamo.Options)) (*dynamo.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamo.UpdateItemInput, optFns ...func(*dynamo.Options)) (*dynamo.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamo.TransactWriteItemsInput, optFns ...func(*dynamo.Options)) (*dynamo.TransactWriteItemsOutput, error)
}

// userItem is the DynamoDB item shape for the users table. The partition
// key pk is "USER#{id}" for user rows and "NAME#{name}" for the uniqueness
// sentinel rows; the counter row lives at pk "COUNTER#user_id".
type userItem struct {
	PK           string `dynamodbav:"pk"`
	UserID       int64  `dynamodbav:"user_id"`
	Name         string `dynamodbav:"name"`
	PasswordHash string `dynamodbav:"password_hash"`
	CreatedAt    string `dynamodbav:"created_at"`
}

// UserStore persists user records in DynamoDB. It implements app.UserStore.
type UserStore struct {
	db        userDynamoDB
	tableName string
	indexName string
	clock     domain.Clock
}

// Compile-time check: UserStore implements app.UserStore.
var _ app.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore backed by the given DynamoDB client.
func NewUserStore(db userDynamoDB, tableName string, clock domain.Clock) *UserStore {
	return &UserStore{
		db:        db,
		tableName: tableName,
		indexName: "name-index",
		clock:     clock,
	}
}

// GetByID retrieves a user record by numeric ID using a strongly
// consistent read. Returns domain.ErrNotFound when no user exists.
func (s *UserStore) GetByID(ctx context.Context, userID int64) (*app.UserRecord, error) {
	ctx, span := tracer.Start(ctx, "dynamo.users.get_by_id")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "dynamodb"),
		attribute.String("db.operation", "GetItem"),
	)

	out, err := s.db.GetItem(ctx, &dynamo.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]dynamo.AttributeValue{
			"pk": &dynamo.AttributeValueMemberS{Value: userPK(userID)},
		},
		ConsistentRead: dynamo.Bool(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("user store: get by id: %w", err)
	}

	if out.Item == nil {
		return nil, fmt.Errorf("user store: get by id: %w", domain.ErrNotFound)
	}

	var item userItem
	if err := dynamo.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("user store: unmarshal user: %w", err)
	}

	return recordFromItem(item), nil
}

// FindByName looks up a user by name via the name-index GSI, then fetches
// the full record with a consistent GetItem read. Returns domain.ErrNotFound
// when no user exists for the given name.
func (s *UserStore) FindByName(ctx context.Context, name string) (*app.UserRecord, error) {
	ctx, span := tracer.Start(ctx, "dynamo.users.find_by_name")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "dynamodb"),
		attribute.String("db.operation", "Query"),
	)

	keyExpr := "#n = :name"
	nameAttr := "name"

	queryOut, err := s.db.Query(ctx, &dynamo.QueryInput{
		TableName:                &s.tableName,
		IndexName:                &s.indexName,
		KeyConditionExpression:   &keyExpr,
		ExpressionAttributeNames: map[string]string{"#n": nameAttr},
		ExpressionAttributeValues: map[string]dynamo.AttributeValue{
			":name": &dynamo.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("user store: find by name query: %w", err)
	}

	// The GSI holds both user rows and sentinel rows for a name; pick the
	// row carrying a user_id.
	var userID int64
	found := false
	for _, raw := range queryOut.Items {
		var projected struct {
			PK     string `dynamodbav:"pk"`
			UserID int64  `dynamodbav:"user_id"`
		}
		if err := dynamo.UnmarshalMap(raw, &projected); err != nil {
			return nil, fmt.Errorf("user store: unmarshal gsi projection: %w", err)
		}
		if projected.UserID != 0 {
			userID = projected.UserID
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("user store: find by name: %w", domain.ErrNotFound)
	}

	// Check context between multi-step operations.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("user store: find by name: %w", err)
	}

	return s.GetByID(ctx, userID)
}

// Insert allocates a numeric ID from the counter row, then writes the user
// row and a name sentinel row in one TransactWriteItems. The sentinel's
// attribute_not_exists condition makes name uniqueness atomic with the
// write: two concurrent inserts for the same name cannot both commit.
// Returns domain.ErrAlreadyExists when the name is taken.
func (s *UserStore) Insert(ctx context.Context, record app.NewUserRecord) (*app.UserRecord, error) {
	ctx, span := tracer.Start(ctx, "dynamo.users.insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "dynamodb"),
		attribute.String("db.operation", "TransactWriteItems"),
	)

	userID, err := s.nextUserID(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	item := userItem{
		PK:           userPK(userID),
		UserID:       userID,
		Name:         record.Name,
		PasswordHash: record.PasswordHash,
		CreatedAt:    s.clock.Now().UTC().Format(time.RFC3339),
	}

	userAttrs, err := dynamo.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("user store: marshal user: %w", err)
	}

	notExists := "attribute_not_exists(pk)"

	_, err = s.db.TransactWriteItems(ctx, &dynamo.TransactWriteItemsInput{
		TransactItems: []dynamo.TransactWriteItem{
			{
				Put: &dynamo.Put{
					TableName:           &s.tableName,
					Item:                userAttrs,
					ConditionExpression: &notExists,
				},
			},
			{
				Put: &dynamo.Put{
					TableName: &s.tableName,
					Item: map[string]dynamo.AttributeValue{
						"pk":      &dynamo.AttributeValueMemberS{Value: namePK(record.Name)},
						"name":    &dynamo.AttributeValueMemberS{Value: record.Name},
						"user_id": &dynamo.AttributeValueMemberN{Value: strconv.FormatInt(userID, 10)},
					},
					ConditionExpression: &notExists,
				},
			},
		},
	})
	if err != nil {
		txErr := classifyInsertError(err)
		span.RecordError(txErr)
		span.SetStatus(codes.Error, txErr.Error())
		return nil, txErr
	}

	return recordFromItem(item), nil
}

// nextUserID atomically increments the counter row and returns the new value.
func (s *UserStore) nextUserID(ctx context.Context) (int64, error) {
	updateExpr := "ADD user_id :one"

	out, err := s.db.UpdateItem(ctx, &dynamo.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]dynamo.AttributeValue{
			"pk": &dynamo.AttributeValueMemberS{Value: "COUNTER#user_id"},
		},
		UpdateExpression: &updateExpr,
		ExpressionAttributeValues: map[string]dynamo.AttributeValue{
			":one": &dynamo.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: "UPDATED_NEW",
	})
	if err != nil {
		return 0, fmt.Errorf("user store: allocate user id: %w", err)
	}

	counter, ok := out.Attributes["user_id"].(*dynamo.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("user store: counter row returned no numeric user_id")
	}

	userID, err := strconv.ParseInt(counter.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user store: parse counter value %q: %w", counter.Value, err)
	}

	return userID, nil
}

// classifyInsertError maps a TransactWriteItems failure to a domain error.
// A ConditionalCheckFailed cancellation on either item means the name (or,
// impossibly, the freshly allocated ID) is taken.
func classifyInsertError(err error) error {
	reasons, ok := dynamo.IsTransactionCanceledException(err)
	if !ok {
		return fmt.Errorf("user store: insert: %w", err)
	}

	for _, reason := range reasons {
		if reason == "ConditionalCheckFailed" {
			return fmt.Errorf("user store: insert: %w", domain.ErrAlreadyExists)
		}
	}

	return fmt.Errorf("user store: insert: transaction canceled: %w", err)
}

func recordFromItem(item userItem) *app.UserRecord {
	return &app.UserRecord{
		UserID:       item.UserID,
		Name:         item.Name,
		PasswordHash: item.PasswordHash,
		CreatedAt:    item.CreatedAt,
	}
}

func userPK(userID int64) string {
	return "USER#" + strconv.FormatInt(userID, 10)
}

func namePK(name string) string {
	return "NAME#" + name
}
